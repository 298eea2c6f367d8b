package r

// This file is the public surface over Runtime's internal
// scheduler/event/watch/wait state. Methods that go through call run
// directly when the caller is the goroutine currently holding the
// cooperative baton (the loop goroutine, the running fiber's goroutine,
// or, before ServiceEvents starts, the goroutine that called Init) and
// otherwise post through the ingress and block on a reply channel, per
// spec.md §4.6's thread-safe-ingress requirement for
// allocEvent/startEvent/spawnFiber/resumeFiber/signal.

func (rt *Runtime) call(fn func()) {
	if rt.onActiveGoroutine() {
		fn()
		return
	}
	done := make(chan struct{})
	rt.ingress.post(func(rt *Runtime) {
		fn()
		close(done)
	})
	<-done
}

// State returns the runtime's current lifecycle state.
func (rt *Runtime) State() RuntimeState { return rt.state.Load() }

// IsRunning reports whether the event loop should still be considered
// live (StateInitialized or StateReady).
func (rt *Runtime) IsRunning() bool { return rt.state.IsRunning() }

// GetFiber returns the fiber currently executing. Valid only when called
// from within fiber code (including the main fiber).
func (rt *Runtime) GetFiber() *Fiber { return rt.scheduler.GetFiber() }

// IsMain reports whether the current fiber is the main fiber.
func (rt *Runtime) IsMain() bool { return rt.scheduler.IsMain() }

// SpawnFiber allocates and schedules a fiber to run fn(arg), thread-safe.
func (rt *Runtime) SpawnFiber(name string, fn func(arg any) any, arg any) (*Fiber, error) {
	var f *Fiber
	var err error
	rt.call(func() {
		f, err = rt.scheduler.SpawnFiber(name, fn, arg)
		if err == nil {
			rt.events.AllocEvent(rt.scheduler.mainFiber, func(a any) {
				rt.scheduler.ResumeFiber(f, a)
			}, arg, 0, EventFast)
		}
	})
	return f, err
}

// YieldFiber suspends the current fiber and returns the value passed to
// the matching ResumeFiber call. Must be called from within fiber code,
// never from the main fiber or a foreign thread.
func (rt *Runtime) YieldFiber(result any) any {
	f := rt.scheduler.GetFiber()
	return rt.scheduler.YieldFiber(f, result)
}

// Enter acquires a (spec.md §4.5's fiber critical section) on behalf of
// the calling fiber, suspending it if a is already held. deadline is an
// absolute tick deadline (GetTicks); 0 waits forever, a negative deadline
// means "don't wait" (returns ErrWouldBlock immediately if held). Must be
// called from within fiber code (including the main fiber).
func (rt *Runtime) Enter(a *Access, deadline int64) error {
	f := rt.scheduler.GetFiber()
	return a.Enter(rt.scheduler, f, deadline)
}

// Leave releases a, handing it to the longest-waiting fiber (if any) in
// FIFO order. Safe to call from fiber code or a foreign thread.
func (rt *Runtime) Leave(a *Access) {
	a.Leave()
}

// ResumeFiber transfers control to f with value, thread-safe.
func (rt *Runtime) ResumeFiber(f *Fiber, value any) any {
	var out any
	rt.call(func() {
		out = rt.scheduler.ResumeFiber(f, value)
	})
	return out
}

// SpawnThread runs fn(arg) off the cooperative thread of control and
// yields the calling fiber until it completes, returning fn's result.
// Must be called from within fiber code.
func (rt *Runtime) SpawnThread(fn func(arg any) any, arg any) any {
	caller := rt.scheduler.GetFiber()
	done := runHelperThread(fn, arg)

	if caller.main {
		return <-done
	}

	go func() {
		r := <-done
		rt.ingress.post(func(rt *Runtime) {
			rt.scheduler.ResumeFiber(caller, r)
		})
	}()
	return rt.scheduler.YieldFiber(caller, nil)
}

// SetFiberStack sets the default fiber stack-size hint (clamped to
// [MinFiberStack, MaxFiberStack]); retained for API fidelity per
// options.go's WithFiberStackSize doc comment.
func (rt *Runtime) SetFiberStack(size int) {
	if size < MinFiberStack {
		size = MinFiberStack
	}
	if size > MaxFiberStack {
		size = MaxFiberStack
	}
}

// SetFiberLimits caps the number of concurrently live fibers.
func (rt *Runtime) SetFiberLimits(maxFibers int) {
	rt.call(func() {
		rt.scheduler.maxFibers = maxFibers
	})
}

// AllocEvent schedules an event after delay ticks, dispatched as
// EventQueue.AllocEvent describes. Thread-safe.
func (rt *Runtime) AllocEvent(fiber *Fiber, proc EventProc, arg any, delay int64, flags EventFlags) uint64 {
	var id uint64
	rt.call(func() {
		id = rt.events.AllocEvent(fiber, proc, arg, delay, flags)
	})
	return id
}

// StartEvent is AllocEvent using the calling fiber as the dispatch target.
func (rt *Runtime) StartEvent(proc EventProc, arg any, delay int64) uint64 {
	caller := rt.scheduler.GetFiber()
	return rt.AllocEvent(caller, proc, arg, delay, EventRegular)
}

// StopEvent cancels event id, thread-safe.
func (rt *Runtime) StopEvent(id uint64) error {
	var err error
	rt.call(func() { err = rt.events.StopEvent(id) })
	return err
}

// RunEvent fires event id immediately, thread-safe.
func (rt *Runtime) RunEvent(id uint64) error {
	var err error
	rt.call(func() { err = rt.events.RunEvent(id) })
	return err
}

// LookupEvent reports whether id is still pending.
func (rt *Runtime) LookupEvent(id uint64) bool {
	var ok bool
	rt.call(func() { ok = rt.events.LookupEvent(id) })
	return ok
}

// HasDueEvents reports whether any scheduled event's deadline has passed.
func (rt *Runtime) HasDueEvents() bool {
	var ok bool
	rt.call(func() { ok = rt.events.HasDueEvents() })
	return ok
}

// Watch subscribes proc to name.
func (rt *Runtime) Watch(name string, proc WatchProc, data any) {
	rt.call(func() { rt.watches.Watch(name, proc, data) })
}

// WatchOff unsubscribes the exact (proc, data) triple from name.
func (rt *Runtime) WatchOff(name string, proc WatchProc, data any) {
	rt.call(func() { rt.watches.WatchOff(name, proc, data) })
}

// Signal enqueues one event per subscriber of name, delivered
// asynchronously on its own fiber. Thread-safe.
func (rt *Runtime) Signal(name string, arg any) {
	rt.call(func() {
		rt.watches.Signal(name, rt.events, rt.scheduler.mainFiber, arg)
	})
}

// SignalSync walks name's subscriber list and calls each inline. Must be
// called from the main fiber; subscribers must not block.
func (rt *Runtime) SignalSync(name string, arg any) {
	rt.watches.SignalSync(name, arg)
}

// AllocWait binds a new wait record to fd. The fd is registered with the
// poller when a mask is first set on it (SetWaitHandler, SetWaitMask or
// WaitForIO).
func (rt *Runtime) AllocWait(fd int) (*Wait, error) {
	var w *Wait
	var err error
	rt.call(func() {
		w = rt.waits.AllocWait(fd)
	})
	return w, err
}

// SetWaitHandler installs handler to be invoked (on a new fiber) when any
// bit of mask fires on w's fd, or deadline elapses (an absolute monotonic
// tick deadline; 0 means no deadline).
func (rt *Runtime) SetWaitHandler(w *Wait, handler WaitHandler, arg any, mask IOEvents, deadline int64) error {
	var err error
	rt.call(func() {
		w.handler = handler
		w.arg = arg
		err = rt.applyWaitMask(w, mask, deadline)
	})
	return err
}

// SetWaitMask adjusts w's mask/deadline without changing its handler.
func (rt *Runtime) SetWaitMask(w *Wait, mask IOEvents, deadline int64) error {
	var err error
	rt.call(func() { err = rt.applyWaitMask(w, mask, deadline) })
	return err
}

func (rt *Runtime) applyWaitMask(w *Wait, mask IOEvents, deadline int64) error {
	wasRegistered := w.mask != 0
	w.mask = mask
	w.deadline = deadline

	var err error
	if wasRegistered {
		err = rt.poller.modify(w.fd, mask)
	} else {
		err = rt.poller.add(w.fd, mask)
	}
	if err != nil {
		return err
	}

	if w.hasTimeout {
		_ = rt.events.StopEvent(w.timeoutEventID)
		w.hasTimeout = false
	}
	if deadline > 0 && !rt.disableTimeouts {
		delay := deadline - GetTicks()
		if delay < 0 {
			delay = 0
		}
		w.timeoutEventID = rt.events.AllocEvent(rt.scheduler.mainFiber, func(a any) {
			rt.fireWaitTimeout(w)
		}, nil, delay, EventFast)
		w.hasTimeout = true
	}
	return nil
}

func (rt *Runtime) fireWaitTimeout(w *Wait) {
	if w.freed {
		return
	}
	w.hasTimeout = false
	if w.blocked != nil {
		f := w.blocked
		w.blocked = nil
		rt.scheduler.ResumeFiber(f, Timeout)
		return
	}
	if w.handler != nil {
		handler, arg := w.handler, w.arg
		f, err := rt.scheduler.SpawnFiber("wait-timeout", func(a any) any {
			handler(arg, Timeout)
			return nil
		}, nil)
		if err == nil {
			rt.scheduler.ResumeFiber(f, nil)
		}
	}
}

// WaitForIO suspends the calling fiber until fd matches mask or deadline
// elapses, returning the observed mask (which may include Timeout). Must
// be called from within a non-main fiber.
func (rt *Runtime) WaitForIO(w *Wait, mask IOEvents, deadline int64) (IOEvents, error) {
	caller := rt.scheduler.GetFiber()
	if caller.main {
		return 0, NewError(ErrBadState, "WaitForIO cannot be called from the main fiber")
	}

	rt.call(func() {
		w.blocked = caller
		_ = rt.applyWaitMask(w, mask, deadline)
	})

	result := rt.scheduler.YieldFiber(caller, nil)
	got, _ := result.(IOEvents)
	if got == 0 {
		return 0, ErrIsClosed
	}
	return got, nil
}

// ResumeWait wakes a fiber blocked on w with a synthetic mask, used for
// cancellation.
func (rt *Runtime) ResumeWait(w *Wait, mask IOEvents) {
	rt.call(func() {
		if w.blocked == nil {
			return
		}
		f := w.blocked
		w.blocked = nil
		rt.scheduler.ResumeFiber(f, mask)
	})
}

// FreeWait removes w's registration, waking any blocked fiber with a zero
// mask first.
func (rt *Runtime) FreeWait(w *Wait) {
	rt.call(func() {
		if w.blocked != nil {
			f := w.blocked
			w.blocked = nil
			rt.scheduler.ResumeFiber(f, IOEvents(0))
		}
		if w.hasTimeout {
			_ = rt.events.StopEvent(w.timeoutEventID)
		}
		_ = rt.poller.remove(w.fd)
		rt.waits.FreeWait(w)
	})
}

// SetTimeouts globally enables or disables I/O timeout deadlines, useful
// for single-stepping under a debugger (spec.md §4.6).
func (rt *Runtime) SetTimeouts(enabled bool) {
	rt.call(func() { rt.disableTimeouts = !enabled })
}
