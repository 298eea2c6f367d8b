package r

import "sort"

// ListFlags controls item ownership semantics for a List, per spec.md §4.3.
type ListFlags int

const (
	// StaticValue items are held by reference only; the list never frees
	// or clones them. This is the default.
	StaticValue ListFlags = iota
	// DynamicValue items are owned by the list: removing or clearing an
	// item releases it (in Go terms, drops the list's reference so the
	// GC can reclaim it — there is no explicit free and no disposer is
	// called; the flag is preserved for API fidelity).
	DynamicValue
	// TemporalValue items are cloned (via a registered clone function) on
	// insert, so the caller's original may be reused or mutated
	// afterward.
	TemporalValue
)

// List is a growable, flag-driven ownership pointer list, the Go analogue
// of spec.md §4.3's List. It's implemented over a Go slice of `any` rather
// than raw pointers, since Go doesn't need the teacher's manual pointer
// arithmetic — but the ownership-flag API surface (DYNAMIC_/STATIC_/
// TEMPORAL_VALUE) is preserved because it changes observable behavior
// (whether insert clones) rather than being an artifact of memory
// management alone.
type List struct {
	items []any
	flags ListFlags
	clone func(any) any
}

// NewList allocates a List with the given initial capacity and ownership
// flags. clone is used for TemporalValue lists and may be nil for
// Static/DynamicValue lists.
func NewList(initialCapacity int, flags ListFlags, clone func(any) any) *List {
	if initialCapacity < 0 {
		initialCapacity = 0
	}
	return &List{
		items: make([]any, 0, initialCapacity),
		flags: flags,
		clone: clone,
	}
}

// Free discards the list's contents.
func (l *List) Free() { l.items = nil }

// Len returns the number of slots in the list, including any explicit null
// items added via AddNullItem.
func (l *List) Len() int { return len(l.items) }

func (l *List) own(item any) any {
	if l.flags == TemporalValue && l.clone != nil && item != nil {
		return l.clone(item)
	}
	return item
}

// AddItem appends item, applying the list's ownership semantics.
func (l *List) AddItem(item any) int {
	l.items = append(l.items, l.own(item))
	return len(l.items) - 1
}

// AddNullItem appends an explicit nil marker. Per spec.md §4.3, iteration
// via GetNextItem stops at the first nil only once it reaches the actual
// end of the list — an explicit nil item in the middle does not terminate
// iteration early.
func (l *List) AddNullItem() int { return l.AddItem(nil) }

// InsertItemAt inserts item at index i, shifting subsequent items right.
// Inserting beyond the current length zero-fills the gap.
func (l *List) InsertItemAt(i int, item any) error {
	if i < 0 {
		return NewError(ErrBadArgs, "negative index %d", i)
	}
	if i >= len(l.items) {
		l.growTo(i + 1)
		l.items[i] = l.own(item)
		return nil
	}
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = l.own(item)
	return nil
}

func (l *List) growTo(n int) {
	for len(l.items) < n {
		l.items = append(l.items, nil)
	}
}

// RemoveItem removes the first occurrence of item (by ==), returning true
// if something was removed.
func (l *List) RemoveItem(item any) bool {
	for i, v := range l.items {
		if v == item {
			l.removeAt(i)
			return true
		}
	}
	return false
}

// RemoveItemAt removes the item at index i.
func (l *List) RemoveItemAt(i int) error {
	if i < 0 || i >= len(l.items) {
		return NewError(ErrBadArgs, "index %d out of range", i)
	}
	l.removeAt(i)
	return nil
}

func (l *List) removeAt(i int) {
	l.items = append(l.items[:i], l.items[i+1:]...)
}

// RemoveStringItem removes the first item equal to s, treating items as
// strings.
func (l *List) RemoveStringItem(s string) bool {
	for i, v := range l.items {
		if str, ok := v.(string); ok && str == s {
			l.removeAt(i)
			return true
		}
	}
	return false
}

// SetItem assigns item at index i, growing (and zero-filling intermediate
// slots) as needed.
func (l *List) SetItem(i int, item any) error {
	if i < 0 {
		return NewError(ErrBadArgs, "negative index %d", i)
	}
	l.growTo(i + 1)
	l.items[i] = l.own(item)
	return nil
}

// ClearList empties the list, retaining its backing capacity.
func (l *List) ClearList() { l.items = l.items[:0] }

// GetItem returns the item at index i, or nil if i is out of [0,Len()).
func (l *List) GetItem(i int) any {
	if i < 0 || i >= len(l.items) {
		return nil
	}
	return l.items[i]
}

// GetNextItem advances *cursor and returns the item there, or (nil, false)
// once the cursor reaches the end of the list.
func (l *List) GetNextItem(cursor *int) (any, bool) {
	if *cursor < 0 || *cursor >= len(l.items) {
		return nil, false
	}
	item := l.items[*cursor]
	*cursor++
	return item, true
}

// LookupItem returns the index of the first item equal to target, or -1.
func (l *List) LookupItem(target any) int {
	for i, v := range l.items {
		if v == target {
			return i
		}
	}
	return -1
}

// LookupStringItem is LookupItem specialized for string items.
func (l *List) LookupStringItem(target string) int {
	for i, v := range l.items {
		if s, ok := v.(string); ok && s == target {
			return i
		}
	}
	return -1
}

// SortList sorts the list in place using compare(a, b) < 0 ordering.
func (l *List) SortList(compare func(a, b any) int) {
	sort.SliceStable(l.items, func(i, j int) bool {
		return compare(l.items[i], l.items[j]) < 0
	})
}

// ListToString joins the list's items (stringified with Fmt's %v) with
// join.
func (l *List) ListToString(join string) string {
	parts := make([]string, len(l.items))
	for i, v := range l.items {
		parts[i] = Fmt("%v", v)
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += join
		}
		out += p
	}
	return out
}

// Push appends item to the end, stack discipline.
func (l *List) Push(item any) { l.AddItem(item) }

// Pop removes and returns the last item. ok is false if the list is empty.
func (l *List) Pop() (item any, ok bool) {
	if len(l.items) == 0 {
		return nil, false
	}
	n := len(l.items) - 1
	item = l.items[n]
	l.items = l.items[:n]
	return item, true
}
