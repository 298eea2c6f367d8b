package r

import "container/heap"

// EventFlags modify how an event is dispatched when it fires.
type EventFlags int

const (
	// EventRegular dispatches by resuming the associated fiber (spawning
	// one if none was supplied). Default.
	EventRegular EventFlags = 0
	// EventFast runs directly on the main fiber at fire time and must not
	// suspend, per spec.md §4.6.
	EventFast EventFlags = 1 << iota
)

// EventProc is the callback invoked when an event fires.
type EventProc func(arg any)

// rEvent is one scheduled timer/callback entry. Grounded on the teacher's
// own timer-heap entries (eventloop/loop.go uses container/heap for its
// timer wheel) but simplified to the flat deadline+insertion-order model
// spec.md §4.6 calls for (no repeat/interval semantics — those belong to a
// higher layer, not this core).
type rEvent struct {
	id        uint64
	deadline  int64  // absolute monotonic tick
	seq       uint64 // insertion order, for FIFO tie-break
	proc      EventProc
	arg       any
	flags     EventFlags
	fiber     *Fiber // fiber to resume on fire, for EventRegular; nil spawns one
	index     int    // heap index, maintained by container/heap
	fired     bool
	cancelled bool
}

// eventHeap implements heap.Interface ordered by (deadline, seq) so equal
// deadlines fire in insertion order, satisfying spec.md §8 property 3.
type eventHeap []*rEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *eventHeap) Push(x any) {
	e := x.(*rEvent)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// EventQueue is the process-wide due-event min-heap described by
// spec.md §4.6. It's driven exclusively by the main fiber; foreign-thread
// callers go through the ingress (ingress.go) instead of touching it
// directly, per spec.md §5's shared-resource policy.
type EventQueue struct {
	heap    eventHeap
	byID    map[uint64]*rEvent
	nextID  uint64
	nextSeq uint64
}

func newEventQueue() *EventQueue {
	return &EventQueue{byID: make(map[uint64]*rEvent)}
}

// AllocEvent schedules an event to fire after delay ticks (relative to
// now). An EventFast event runs proc(arg) inline. An EventRegular event
// bound to a non-main fiber resumes that fiber with arg, and proc is not
// invoked; with fiber nil or the main fiber, proc(arg) runs on a newly
// spawned fiber. Returns the event's id, which is never 0 and never
// reused for the process's lifetime.
func (q *EventQueue) AllocEvent(fiber *Fiber, proc EventProc, arg any, delay int64, flags EventFlags) uint64 {
	if delay < 0 {
		delay = 0
	}
	q.nextID++
	id := q.nextID
	q.nextSeq++
	e := &rEvent{
		id:       id,
		deadline: GetTicks() + delay,
		seq:      q.nextSeq,
		proc:     proc,
		arg:      arg,
		flags:    flags,
		fiber:    fiber,
	}
	heap.Push(&q.heap, e)
	q.byID[id] = e
	return id
}

// StartEvent is AllocEvent using the current fiber (curFiber) as the
// dispatch target.
func (q *EventQueue) StartEvent(curFiber *Fiber, proc EventProc, arg any, delay int64) uint64 {
	return q.AllocEvent(curFiber, proc, arg, delay, EventRegular)
}

// StopEvent cancels event id. Returns ErrCantFind if the event already
// fired or never existed.
func (q *EventQueue) StopEvent(id uint64) error {
	e, ok := q.byID[id]
	if !ok || e.fired || e.cancelled {
		return ErrIsCantFind
	}
	e.cancelled = true
	if e.index >= 0 {
		heap.Remove(&q.heap, e.index)
	}
	delete(q.byID, id)
	return nil
}

// RunEvent fires event id immediately (out of deadline order), then
// removes it.
func (q *EventQueue) RunEvent(id uint64) error {
	e, ok := q.byID[id]
	if !ok || e.fired || e.cancelled {
		return ErrIsCantFind
	}
	if e.index >= 0 {
		heap.Remove(&q.heap, e.index)
	}
	delete(q.byID, id)
	e.fired = true
	if e.proc != nil {
		e.proc(e.arg)
	}
	return nil
}

// LookupEvent reports whether id is still pending (not yet fired or
// cancelled).
func (q *EventQueue) LookupEvent(id uint64) bool {
	e, ok := q.byID[id]
	return ok && !e.fired && !e.cancelled
}

// HasDueEvents reports whether any event's deadline has already passed.
func (q *EventQueue) HasDueEvents() bool {
	return len(q.heap) > 0 && q.heap[0].deadline <= GetTicks()
}

// dueEvent is a fired event ready for dispatch by the caller (loop.go),
// which decides how to map fast/regular flags onto actual fiber
// resumption — EventQueue itself has no fiber-scheduling knowledge beyond
// carrying the target fiber pointer through.
type dueEvent struct {
	proc  EventProc
	arg   any
	flags EventFlags
	fiber *Fiber
}

// RunEvents fires every event whose deadline has passed, in ascending
// deadline order with FIFO tie-break, appending each to due (via the
// returned slice) for the caller to dispatch, then returns the number of
// ticks until the next pending event (or -1 if the queue is empty).
func (q *EventQueue) RunEvents(due []dueEvent) ([]dueEvent, int64) {
	now := GetTicks()
	for len(q.heap) > 0 && q.heap[0].deadline <= now {
		e := heap.Pop(&q.heap).(*rEvent)
		delete(q.byID, e.id)
		e.fired = true
		due = append(due, dueEvent{proc: e.proc, arg: e.arg, flags: e.flags, fiber: e.fiber})
	}
	if len(q.heap) == 0 {
		return due, -1
	}
	remaining := q.heap[0].deadline - GetTicks()
	if remaining < 0 {
		remaining = 0
	}
	return due, remaining
}
