package r

import (
	"strconv"
	"strings"
	"time"
)

// tickAnchor pins the monotonic tick clock to a single reference point,
// mirroring the teacher event loop's tickAnchor pattern (loop.go): ticks
// are milliseconds elapsed since this anchor, so GetTicks is monotonic and
// immune to wall-clock adjustments even though it's derived from
// time.Now() (Go's monotonic reading, carried in every time.Time since
// Go 1.9).
var tickAnchor = time.Now()

// GetTime returns wall-clock milliseconds since the Unix epoch.
func GetTime() int64 { return time.Now().UnixMilli() }

// GetTicks returns monotonic milliseconds since process start. It never
// decreases and is unaffected by wall-clock adjustments.
func GetTicks() int64 { return time.Since(tickAnchor).Milliseconds() }

// GetHiResTicks returns the highest resolution monotonic counter
// available, in nanoseconds since process start.
func GetHiResTicks() int64 { return time.Since(tickAnchor).Nanoseconds() }

// GetElapsedTicks returns the number of ticks elapsed since mark (a
// value previously returned by GetTicks).
func GetElapsedTicks(mark int64) int64 { return GetTicks() - mark }

// GetRemainingTicks returns the ticks remaining until mark+timeout,
// clamped to [0, timeout]. A timeout of 0 means "no deadline" and
// GetRemainingTicks returns 0 in that case too, matching spec.md §4.4/§5
// ("deadline 0 means infinite").
func GetRemainingTicks(mark, timeout int64) int64 {
	if timeout <= 0 {
		return 0
	}
	remaining := timeout - GetElapsedTicks(mark)
	if remaining < 0 {
		return 0
	}
	if remaining > timeout {
		return timeout
	}
	return remaining
}

// isoLayout is the canonical ISO-8601 layout used by GetIsoDate/ParseIsoDate.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// GetIsoDate renders t (wall-clock milliseconds since epoch) as an
// ISO-8601 string in UTC.
func GetIsoDate(t int64) string {
	return time.UnixMilli(t).UTC().Format(isoLayout)
}

// ParseIsoDate parses an ISO-8601 string back into wall-clock
// milliseconds since epoch. ParseIsoDate(GetIsoDate(t)) == t for any
// representable millisecond time, satisfying the round-trip law in
// spec.md §8 property 7.
func ParseIsoDate(s string) (int64, error) {
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		// Be lenient about the optional fractional seconds / offset forms.
		if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
			return t2.UnixMilli(), nil
		}
		return 0, NewError(ErrBadFormat, "invalid ISO-8601 date %q: %v", s, err)
	}
	return t.UnixMilli(), nil
}

// formatTokenMap maps the spec's convenience strftime-equivalent aliases
// to Go reference-time layouts, applied token by token so an arbitrary
// mixture of literal text and tokens (as used by §6's time format family)
// round-trips predictably.
var formatTokenMap = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'M': "04",
	'S': "05",
	'Z': "Z07:00",
	'a': "Mon",
	'A': "Monday",
	'b': "Jan",
	'B': "January",
	'p': "PM",
}

// expandStrftime lowers a strftime-style format string (plus the
// convenience aliases %F, %T, %R, %v, %D from spec.md §6) into a Go
// reference-time layout string.
func expandStrftime(fmtStr string) string {
	replacer := strings.NewReplacer(
		"%F", "2006-01-02",
		"%T", "15:04:05",
		"%R", "15:04",
		"%v", "02-Jan-2006",
		"%D", "01/02/06",
	)
	fmtStr = replacer.Replace(fmtStr)

	var b strings.Builder
	for i := 0; i < len(fmtStr); i++ {
		if fmtStr[i] == '%' && i+1 < len(fmtStr) {
			if layout, ok := formatTokenMap[fmtStr[i+1]]; ok {
				b.WriteString(layout)
				i++
				continue
			}
		}
		b.WriteByte(fmtStr[i])
	}
	return b.String()
}

// defaultTimeFormat renders RFC-822-style output, per spec.md §4.4's "the
// default format renders RFC-822-style when fmt is null".
const defaultTimeFormat = time.RFC822

// FormatLocalTime renders t (wall-clock ms since epoch) in the local
// timezone using a strftime-style format, or RFC-822 if format is "".
func FormatLocalTime(format string, t int64) string {
	if format == "" {
		return time.UnixMilli(t).Local().Format(defaultTimeFormat)
	}
	return time.UnixMilli(t).Local().Format(expandStrftime(format))
}

// FormatUniversalTime is FormatLocalTime, rendered in UTC.
func FormatUniversalTime(format string, t int64) string {
	if format == "" {
		return time.UnixMilli(t).UTC().Format(defaultTimeFormat)
	}
	return time.UnixMilli(t).UTC().Format(expandStrftime(format))
}

// GetDate renders the current local time with FormatLocalTime.
func GetDate(format string) string { return FormatLocalTime(format, GetTime()) }

// ParseValue parses a human value with an optional unit suffix (k, m, g,
// sec, min, hr, day, week, month, year, unlimited, forever), per
// spec.md §4.2. "unlimited"/"forever" parse to -1. Units k/m/g are
// treated as decimal multipliers (1000-based, as spec.md's string
// utilities are generic value parsing, not specifically byte sizing);
// time units are converted to milliseconds.
func ParseValue(s string) (int64, error) {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch lower {
	case "unlimited", "forever":
		return -1, nil
	case "":
		return 0, NewError(ErrBadArgs, "empty value")
	}

	unit, scale := splitUnit(lower)
	n, err := strconv.ParseFloat(strings.TrimSpace(unit), 64)
	if err != nil {
		return 0, NewError(ErrBadArgs, "invalid value %q: %v", s, err)
	}
	return int64(n * float64(scale)), nil
}

func splitUnit(s string) (numberPart string, scale int64) {
	suffixes := []struct {
		suffix string
		scale  int64
	}{
		{"unlimited", -1},
		{"forever", -1},
		{"year", 365 * 24 * 60 * 60 * 1000},
		{"month", 30 * 24 * 60 * 60 * 1000},
		{"week", 7 * 24 * 60 * 60 * 1000},
		{"day", 24 * 60 * 60 * 1000},
		{"hr", 60 * 60 * 1000},
		{"min", 60 * 1000},
		{"sec", 1000},
		{"g", 1_000_000_000},
		{"m", 1_000_000},
		{"k", 1_000},
	}
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf.suffix) {
			return strings.TrimSuffix(s, suf.suffix), suf.scale
		}
	}
	return s, 1
}
