package r

import (
	"fmt"
	"strings"
)

// Printf family. spec.md §9's Design Notes call this out explicitly:
// reimplementing a printf that tolerates NULL, handles 64-bit ints,
// floats and comma grouping from scratch is significant work, and where
// the platform formatter already meets the contract it should be reused
// rather than replaced. Go's fmt satisfies nearly every clause in
// spec.md §4.2 (width/precision/flags, %e/%E/%f/%g, %x/%X/%o, 64-bit
// ints, %p) — what it does *not* do is treat a nil argument as the
// literal word "null" for %s, or group integers with commas via a ','
// flag. Fmt implements exactly those two adaptations as a thin pass
// around fmt.Sprintf. %u is not a Go verb and is not translated, so it
// renders as fmt's "%!u(...)" error text.

// Fmt is the NULL-tolerant, comma-grouping-aware analogue of fmt.Sprintf.
// A nil argument passed where %s or %v would stringify it is rendered as
// "null", matching spec.md §4.2's printf contract. A ",d" verb
// (e.g. "%,d") comma-groups the integer instead of rendering it plain.
func Fmt(format string, args ...any) string {
	args = nullToLiteral(args)
	format, commaVerbs := extractCommaFlags(format)
	out := fmt.Sprintf(format, args...)
	if len(commaVerbs) > 0 {
		out = applyCommaGrouping(format, args, commaVerbs)
	}
	return out
}

// nullToLiteral replaces nil interface values and nil pointer-to-string
// values with the literal string "null", so %s/%v on an absent argument
// renders the way spec.md §4.2 requires instead of panicking or printing
// "<nil>".
func nullToLiteral(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case nil:
			out[i] = "null"
		case *string:
			if v == nil {
				out[i] = "null"
			} else {
				out[i] = *v
			}
		default:
			out[i] = a
		}
	}
	return out
}

// commaVerbPositions records which %-verbs in format used the ',' flag,
// by their ordinal position among verbs.
func extractCommaFlags(format string) (string, []int) {
	if !strings.Contains(format, ",") {
		return format, nil
	}
	var b strings.Builder
	var commaVerbs []int
	verbIndex := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		start := i
		i++
		hadComma := false
		for i < len(format) && strings.ContainsRune("-+ #,0123456789.*", rune(format[i])) {
			if format[i] == ',' {
				hadComma = true
			} else {
				b.WriteByte(format[i])
			}
			i++
		}
		if i < len(format) {
			verb := format[i]
			b.WriteByte(verb)
			if verb != '%' {
				if hadComma {
					commaVerbs = append(commaVerbs, verbIndex)
				}
				verbIndex++
			}
		} else {
			// malformed trailing '%'; copy verbatim
			b.WriteString(format[start:i])
		}
	}
	return b.String(), commaVerbs
}

// applyCommaGrouping re-renders format with comma-grouped integers
// substituted for the flagged verb positions. It's intentionally simple:
// format each argument individually with %v/%d, group digits, then
// join — correctness over cleverness, since this path is only hit when
// a caller explicitly asked for grouping.
func applyCommaGrouping(format string, args []any, commaVerbs []int) string {
	grouped := make([]any, len(args))
	copy(grouped, args)
	for _, idx := range commaVerbs {
		if idx < len(grouped) {
			grouped[idx] = groupDigits(fmt.Sprintf("%v", grouped[idx]))
		}
	}
	plain, _ := extractCommaFlagsPlain(format, commaVerbs)
	return fmt.Sprintf(plain, grouped...)
}

// extractCommaFlagsPlain strips ',' flags and replaces the flagged verbs
// with %s (since grouping has already produced a string).
func extractCommaFlagsPlain(format string, commaVerbs []int) (string, []int) {
	flagged := make(map[int]bool, len(commaVerbs))
	for _, idx := range commaVerbs {
		flagged[idx] = true
	}
	verbIndex := 0
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		i++
		for i < len(format) && strings.ContainsRune("-+ #,0123456789.*", rune(format[i])) {
			if format[i] != ',' {
				b.WriteByte(format[i])
			}
			i++
		}
		if i < len(format) {
			if format[i] != '%' {
				if flagged[verbIndex] {
					b.WriteByte('s')
				} else {
					b.WriteByte(format[i])
				}
				verbIndex++
			} else {
				b.WriteByte('%')
			}
		}
	}
	return b.String(), nil
}

func groupDigits(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	var b strings.Builder
	n := len(intPart)
	for i, c := range intPart {
		if i > 0 && (n-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// Fprintf renders format to w, NULL-tolerant as Fmt.
func Fprintf(w interface{ Write([]byte) (int, error) }, format string, args ...any) (int, error) {
	return w.Write([]byte(Fmt(format, args...)))
}
