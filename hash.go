package r

import (
	"fmt"
	"sort"
	"strings"

	"github.com/OneOfOne/xxhash"
)

// HashFlags controls name/value ownership and comparison semantics for a
// Hash table, per spec.md §4.3.
type HashFlags int

const (
	// HashStatic is the default: names and values are held by reference.
	HashStatic HashFlags = 0
	// HashCaseless lowercases names on the fly for lookup/insert, making
	// the table case-insensitive.
	HashCaseless HashFlags = 1 << iota
)

type hashEntry struct {
	name  string
	value any
	next  int // intrusive singly-linked chain within the same bucket; -1 terminates
}

// Hash is an open-addressed (bucket-chained) name/value table. Hashing is
// delegated to xxhash (github.com/OneOfOne/xxhash, as wired in
// ghjramos-aistore's go.mod) rather than a hand-rolled multiplicative hash,
// since the examples already depend on a real hash library for exactly
// this purpose.
type Hash struct {
	buckets []int // bucket head index into entries, or -1
	entries []hashEntry
	free    []int // freed entry slots available for reuse
	count   int
	flags   HashFlags

	// generation increments on every structural rehash, so iterators can
	// detect the "iteration is unsafe across a rehash" invariant from
	// spec.md §4.3 and fail fast instead of silently skipping or
	// duplicating entries.
	generation uint64
}

// NewHash allocates a Hash sized for roughly estimatedSize entries.
func NewHash(estimatedSize int, flags HashFlags) *Hash {
	if estimatedSize < 8 {
		estimatedSize = 8
	}
	h := &Hash{flags: flags}
	h.initBuckets(nextPow2(estimatedSize * 2))
	return h
}

func nextPow2(n int) int {
	p := 8
	for p < n {
		p *= 2
	}
	return p
}

func (h *Hash) initBuckets(n int) {
	h.buckets = make([]int, n)
	for i := range h.buckets {
		h.buckets[i] = -1
	}
}

// Free discards the table's contents.
func (h *Hash) Free() {
	h.buckets = nil
	h.entries = nil
	h.free = nil
	h.count = 0
}

// Clone returns a shallow copy: same (name,value) pairs, independent
// structure.
func (h *Hash) Clone() *Hash {
	out := NewHash(h.count, h.flags)
	h.Range(func(name string, value any) bool {
		out.AddName(name, value)
		return true
	})
	return out
}

func (h *Hash) key(name string) string {
	if h.flags&HashCaseless != 0 {
		return strings.ToLower(name)
	}
	return name
}

func (h *Hash) hashOf(name string) uint64 {
	return xxhash.ChecksumString64(name)
}

func (h *Hash) bucketFor(name string) int {
	return int(h.hashOf(name) % uint64(len(h.buckets)))
}

// AddName inserts or replaces the value for name.
func (h *Hash) AddName(name string, value any) {
	k := h.key(name)
	b := h.bucketFor(k)
	for i := h.buckets[b]; i != -1; i = h.entries[i].next {
		if h.entries[i].name == k {
			h.entries[i].value = value
			return
		}
	}

	var idx int
	if n := len(h.free); n > 0 {
		idx = h.free[n-1]
		h.free = h.free[:n-1]
		h.entries[idx] = hashEntry{name: k, value: value, next: h.buckets[b]}
	} else {
		idx = len(h.entries)
		h.entries = append(h.entries, hashEntry{name: k, value: value, next: h.buckets[b]})
	}
	h.buckets[b] = idx
	h.count++
	h.generation++

	if h.count > len(h.buckets) {
		h.rehash(nextPow2(h.count * 2))
	}
}

// AddNameSubstring inserts name[from:to] with value.
func (h *Hash) AddNameSubstring(name string, from, to int, value any) error {
	if from < 0 || to > len(name) || from > to {
		return NewError(ErrBadArgs, "invalid substring range [%d:%d] of %q", from, to, name)
	}
	h.AddName(name[from:to], value)
	return nil
}

// AddIntName inserts a name built from formatting n in base 10.
func (h *Hash) AddIntName(n int64, value any) { h.AddName(Itosafe(n, 10), value) }

// AddFmtName inserts a name built via Fmt(format, args...).
func (h *Hash) AddFmtName(value any, format string, args ...any) {
	h.AddName(Fmt(format, args...), value)
}

func (h *Hash) rehash(newSize int) {
	old := h.entries
	freed := make(map[int]bool, len(h.free))
	for _, i := range h.free {
		freed[i] = true
	}
	h.initBuckets(newSize)
	newEntries := make([]hashEntry, 0, len(old))
	for i, e := range old {
		if freed[i] {
			continue
		}
		b := int(h.hashOf(e.name) % uint64(newSize))
		newEntries = append(newEntries, hashEntry{name: e.name, value: e.value, next: h.buckets[b]})
		h.buckets[b] = len(newEntries) - 1
	}
	h.entries = newEntries
	h.free = nil
	h.generation++
}

// RemoveName removes name's entry, returning true if one existed.
func (h *Hash) RemoveName(name string) bool {
	k := h.key(name)
	b := h.bucketFor(k)
	prev := -1
	for i := h.buckets[b]; i != -1; i = h.entries[i].next {
		if h.entries[i].name == k {
			if prev == -1 {
				h.buckets[b] = h.entries[i].next
			} else {
				h.entries[prev].next = h.entries[i].next
			}
			h.entries[i] = hashEntry{next: -1}
			h.free = append(h.free, i)
			h.count--
			h.generation++
			return true
		}
		prev = i
	}
	return false
}

// LookupName returns the value for name, and whether it was found.
func (h *Hash) LookupName(name string) (any, bool) {
	k := h.key(name)
	b := h.bucketFor(k)
	for i := h.buckets[b]; i != -1; i = h.entries[i].next {
		if h.entries[i].name == k {
			return h.entries[i].value, true
		}
	}
	return nil, false
}

// LookupNameEntry is LookupName but also reports the resolved (possibly
// lower-cased) key actually stored.
func (h *Hash) LookupNameEntry(name string) (key string, value any, ok bool) {
	k := h.key(name)
	b := h.bucketFor(k)
	for i := h.buckets[b]; i != -1; i = h.entries[i].next {
		if h.entries[i].name == k {
			return h.entries[i].name, h.entries[i].value, true
		}
	}
	return "", nil, false
}

// HashCursor iterates a Hash snapshot-safe against the generation the
// cursor was created under; GetNextName returns CantComplete if the table
// was structurally mutated mid-iteration, per spec.md §4.3's "iteration
// unsafe across rehash" invariant.
type HashCursor struct {
	gen  uint64
	next int
}

// NewCursor returns a cursor positioned before the first entry.
func (h *Hash) NewCursor() *HashCursor { return &HashCursor{gen: h.generation, next: 0} }

// GetNextName advances the cursor, returning the next (name,value) pair.
func (h *Hash) GetNextName(c *HashCursor) (name string, value any, ok bool, err error) {
	if c.gen != h.generation {
		return "", nil, false, NewError(ErrCantComplete, "hash mutated during iteration")
	}
	for c.next < len(h.entries) {
		e := h.entries[c.next]
		c.next++
		if e.next == -1 && e.name == "" && e.value == nil {
			continue // freed slot
		}
		return e.name, e.value, true, nil
	}
	return "", nil, false, nil
}

// Range calls fn for every live entry, in unspecified order, stopping
// early if fn returns false. Unlike GetNextName it does not detect
// concurrent mutation; it's meant for callers (Clone, HashToJson) that
// fully own the table for the duration of the call.
func (h *Hash) Range(fn func(name string, value any) bool) {
	live := make(map[int]bool, len(h.entries))
	for _, head := range h.buckets {
		for i := head; i != -1; i = h.entries[i].next {
			live[i] = true
		}
	}
	for i, e := range h.entries {
		if live[i] {
			if !fn(e.name, e.value) {
				return
			}
		}
	}
}

// Len returns the number of live entries.
func (h *Hash) Len() int { return h.count }

// HashToBuf renders the table's entries as "name=value" pairs into buf,
// separated by join.
func (h *Hash) HashToBuf(buf *Buf, join string) {
	first := true
	h.sortedRange(func(name string, value any) bool {
		if !first {
			buf.PutString(join)
		}
		first = false
		buf.PutFmt("%s=%v", name, value)
		return true
	})
}

// HashToString is HashToBuf rendered directly to a string.
func (h *Hash) HashToString(join string) string {
	b := NewBuf(64)
	h.HashToBuf(b, join)
	return b.ToStringAndFree()
}

func (h *Hash) sortedRange(fn func(name string, value any) bool) {
	names := make([]string, 0, h.count)
	h.Range(func(name string, _ any) bool {
		names = append(names, name)
		return true
	})
	sort.Strings(names)
	for _, n := range names {
		v, _ := h.LookupName(n)
		if !fn(n, v) {
			return
		}
	}
}

// HashToJson renders the table as a JSON object. pretty indents with two
// spaces; otherwise output is compact. Keys are emitted in sorted order so
// output is deterministic, satisfying the round-trip law in spec.md §8
// property 9.
func (h *Hash) HashToJson(pretty bool) string {
	b := NewBuf(64)
	h.HashToJsonBuf(b, pretty)
	return b.ToStringAndFree()
}

// HashToJsonBuf is HashToJson, writing into buf.
func (h *Hash) HashToJsonBuf(buf *Buf, pretty bool) {
	nl, indent, sep := "", "", ","
	if pretty {
		nl, indent, sep = "\n", "  ", ",\n"
	}
	buf.PutString("{" + nl)
	first := true
	h.sortedRange(func(name string, value any) bool {
		if !first {
			buf.PutString(sep)
		}
		first = false
		buf.PutString(indent)
		buf.PutFmt("%s: %s", jsonQuote(name), jsonValue(value))
		return true
	})
	buf.PutString(nl + "}")
}

func jsonQuote(s string) string {
	return fmt.Sprintf("%q", s)
}

func jsonValue(v any) string {
	switch t := v.(type) {
	case string:
		return jsonQuote(t)
	case nil:
		return "null"
	case bool, int, int32, int64, float32, float64:
		return fmt.Sprintf("%v", t)
	default:
		return jsonQuote(fmt.Sprintf("%v", t))
	}
}
