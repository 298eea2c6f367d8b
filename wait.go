package r

// WaitHandler is invoked (on a new fiber, unless the caller is already
// waiting via WaitForIO) when a Wait's mask fires or its deadline elapses.
type WaitHandler func(arg any, mask IOEvents)

// Wait binds a wait record to an OS file descriptor, the Go analogue of
// spec.md §4.6's wait subsystem entries. It's created via
// Runtime.AllocWait and driven by the Runtime's poller + event queue.
type Wait struct {
	fd       int
	mask     IOEvents
	deadline int64
	handler  WaitHandler
	arg      any

	// blocked, if non-nil, is the fiber parked in WaitForIO; resumeWait
	// and the poller's dispatch both deliver to it via the scheduler.
	blocked *Fiber

	// timeoutEventID is the id of the pending deadline event in the event
	// queue, if a non-zero deadline was set; used to cancel the timeout
	// once the fd actually becomes ready.
	timeoutEventID uint64
	hasTimeout     bool

	freed bool
}

// waitRegistry owns all live Wait records for a Runtime, keyed by fd.
// Main-fiber-only, like EventQueue and WatchRegistry.
type waitRegistry struct {
	byFD map[int]*Wait
}

func newWaitRegistry() *waitRegistry {
	return &waitRegistry{byFD: make(map[int]*Wait)}
}

// AllocWait creates a new Wait bound to fd.
func (r *waitRegistry) AllocWait(fd int) *Wait {
	w := &Wait{fd: fd}
	r.byFD[fd] = w
	return w
}

// FreeWait removes w's registration. If a fiber is currently blocked in
// WaitForIO on w, the caller (Runtime.FreeWait) is responsible for
// resuming it with a zero mask before calling this, per spec.md §4.6.
func (r *waitRegistry) FreeWait(w *Wait) {
	w.freed = true
	delete(r.byFD, w.fd)
}

func (r *waitRegistry) lookup(fd int) (*Wait, bool) {
	w, ok := r.byFD[fd]
	return w, ok
}
