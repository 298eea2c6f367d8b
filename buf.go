package r

// Buf is a growable byte buffer with explicit read and write cursors, the
// Go analogue of spec.md §4.3's Buffer: content lives in data[start:end],
// reads consume from start forward, writes append at end, and len(data)
// is the allocation ceiling, so compact/grow can reason about
// available headroom without reallocating when avoidable. Grounded on the
// teacher's own preference for slice-backed, cursor-driven buffers
// (eventloop/ingress.go's chunked byte queues) rather than a ring buffer.
type Buf struct {
	data  []byte
	start int
	end   int
}

// NewBuf allocates a Buf with the given initial capacity. A non-positive
// initial is treated as a minimal default, matching the teacher's
// tolerance for zero-value configuration.
func NewBuf(initial int) *Buf {
	if initial <= 0 {
		initial = 64
	}
	return &Buf{data: make([]byte, initial)}
}

// Init re-initializes b in place with a fresh backing array of the given
// initial capacity, discarding any existing content.
func (b *Buf) Init(initial int) {
	if initial <= 0 {
		initial = 64
	}
	b.data = make([]byte, initial)
	b.start = 0
	b.end = 0
}

// Free releases the backing array. b is left empty and usable again after
// a subsequent Init.
func (b *Buf) Free() {
	b.data = nil
	b.start = 0
	b.end = 0
}

// Len returns the number of unread bytes currently buffered.
func (b *Buf) Len() int { return b.end - b.start }

// Size returns the total backing capacity.
func (b *Buf) Size() int { return len(b.data) }

// Space returns the number of bytes that can be written before a Grow is
// required.
func (b *Buf) Space() int { return len(b.data) - b.end }

// Put appends p to the buffer, growing as needed.
func (b *Buf) Put(p []byte) {
	b.ReserveSpace(len(p))
	b.end += copy(b.data[b.end:], p)
}

// PutChar appends a single byte.
func (b *Buf) PutChar(c byte) {
	b.ReserveSpace(1)
	b.data[b.end] = c
	b.end++
}

// PutString appends s.
func (b *Buf) PutString(s string) { b.Put([]byte(s)) }

// PutSub appends s[from:to].
func (b *Buf) PutSub(s string, from, to int) {
	if from < 0 || to > len(s) || from > to {
		invokeMemHandler(MemWarning, 0)
		return
	}
	b.PutString(s[from:to])
}

// PutBlock appends count bytes from p (count may be less than len(p) to
// append a prefix).
func (b *Buf) PutBlock(p []byte, count int) {
	if count > len(p) {
		count = len(p)
	}
	if count < 0 {
		count = 0
	}
	b.Put(p[:count])
}

// PutInt appends the base-10 decimal rendering of n.
func (b *Buf) PutInt(n int64) { b.PutString(Itosafe(n, 10)) }

// PutFmt appends the result of Fmt(format, args...).
func (b *Buf) PutFmt(format string, args ...any) { b.PutString(Fmt(format, args...)) }

// GetChar consumes and returns the next unread byte. ok is false if the
// buffer is empty.
func (b *Buf) GetChar() (c byte, ok bool) {
	if b.start >= b.end {
		return 0, false
	}
	c = b.data[b.start]
	b.start++
	return c, true
}

// GetBlock consumes up to len(p) bytes into p, returning the count actually
// copied (which may be less than len(p) if fewer bytes are buffered).
func (b *Buf) GetBlock(p []byte) int {
	n := copy(p, b.data[b.start:b.end])
	b.start += n
	return n
}

// LookAtNext returns the next unread byte without consuming it.
func (b *Buf) LookAtNext() (c byte, ok bool) {
	if b.start >= b.end {
		return 0, false
	}
	return b.data[b.start], true
}

// LookAtLast returns the last written byte without consuming it.
func (b *Buf) LookAtLast() (c byte, ok bool) {
	if b.end <= b.start {
		return 0, false
	}
	return b.data[b.end-1], true
}

// AdjustStart moves the read cursor forward by n (zero-copy consume, for
// callers that wrote directly into the buffer's backing storage via a
// lower-level API).
func (b *Buf) AdjustStart(n int) {
	b.start += n
	if b.start > b.end {
		b.start = b.end
	}
	if b.start < 0 {
		b.start = 0
	}
}

// AdjustEnd moves the write cursor forward by n, for callers that wrote
// directly into the space returned by Space/the backing array.
func (b *Buf) AdjustEnd(n int) {
	b.end += n
	if b.end > len(b.data) {
		b.end = len(b.data)
	}
	if b.end < b.start {
		b.end = b.start
	}
}

// Compact moves any unread content down to offset 0, reclaiming the space
// consumed so far.
func (b *Buf) Compact() {
	if b.start == 0 {
		return
	}
	n := copy(b.data, b.data[b.start:b.end])
	b.start = 0
	b.end = n
}

// Flush empties the buffer (content discarded, capacity retained).
func (b *Buf) Flush() {
	b.start = 0
	b.end = 0
}

// ResetIfEmpty rewinds both cursors to 0 when the buffer currently holds no
// unread content, so a long-lived buffer that's been fully drained doesn't
// creep its cursors toward the end of its backing array forever.
func (b *Buf) ResetIfEmpty() {
	if b.start == b.end {
		b.start = 0
		b.end = 0
	}
}

// ReserveSpace ensures at least n bytes of space are available past end,
// growing (and compacting first, if that alone suffices) as needed.
func (b *Buf) ReserveSpace(n int) {
	if n < 0 {
		invokeMemHandler(MemWarning, n)
		return
	}
	if b.Space() >= n {
		return
	}
	if b.start > 0 {
		b.Compact()
		if b.Space() >= n {
			return
		}
	}
	b.Grow(n - b.Space())
}

// Grow increases the backing array's capacity by at least `by` bytes,
// doubling the current capacity (or more) until the request fits, matching
// spec.md §4.3's growth policy. A request of 0 is a no-op; growth is
// capped only by available memory.
func (b *Buf) Grow(by int) {
	if by <= 0 {
		return
	}
	newCap := len(b.data)
	if newCap == 0 {
		newCap = 64
	}
	target := len(b.data) + by
	for newCap < target {
		newCap *= 2
	}
	nd := make([]byte, newCap)
	copy(nd, b.data[:b.end])
	b.data = nd
}

// AddNull writes a trailing NUL byte past end without advancing end,
// satisfying the spec's "byte past end is \0 after addNull" invariant
// while leaving the buffer's logical length unchanged.
func (b *Buf) AddNull() {
	b.ReserveSpace(1)
	b.data[b.end] = 0
}

// ToString returns the unread content as a string, without copying out of
// the backing array beyond what string conversion in Go always requires.
func (b *Buf) ToString() string { return string(b.data[b.start:b.end]) }

// ToStringAndFree returns the unread content as a string and releases the
// buffer's backing array, transferring conceptual ownership of the
// content to the caller.
func (b *Buf) ToStringAndFree() string {
	s := b.ToString()
	b.Free()
	return s
}

// Bytes returns the unread content as a byte slice aliasing the buffer's
// backing array; callers must not retain it across further mutation.
func (b *Buf) Bytes() []byte { return b.data[b.start:b.end] }

// WriteString implements io.StringWriter-compatible appending, letting Buf
// be used as a builder target (e.g. with fmt.Fprintf).
func (b *Buf) WriteString(s string) (int, error) {
	b.PutString(s)
	return len(s), nil
}

// Write implements io.Writer.
func (b *Buf) Write(p []byte) (int, error) {
	b.Put(p)
	return len(p), nil
}
