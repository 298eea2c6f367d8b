package r

import (
	"os"
	"runtime"
	"sync"
)

// Runtime ties together the scheduler, event queue, watch registry, wait
// registry, I/O poller, and ingress into the single-threaded cooperative
// core described by spec.md §4.5/§4.6. It is created by Init and driven by
// ServiceEvents on the main fiber.
type Runtime struct {
	state     *runtimeState
	scheduler *Scheduler
	events    *EventQueue
	watches   *WatchRegistry
	waits     *waitRegistry
	poller    ioPoller
	wake      *wakeup
	ingress   *ingress
	Log       *Log

	disableTimeouts bool

	stopOnce sync.Once
}

// EntryFunc is the signature of the fiber Init starts running once
// ServiceEvents begins: unlike a plain fiber function, it also receives
// the Runtime it's running under, since nothing else is in scope to
// provide one at the point Init constructs the entry fiber.
type EntryFunc func(rt *Runtime, arg any) any

// Init allocates a Runtime, configures logging and limits from opts, and
// starts fiberFn(rt, arg) as the first fiber once ServiceEvents begins
// running, matching spec.md §6's "a main that calls init(fiberFn, arg)
// then serviceEvents".
func Init(fiberFn EntryFunc, arg any, opts ...InitOption) (*Runtime, error) {
	markMainThread()

	cfg, err := resolveInitOptions(opts)
	if err != nil {
		return nil, err
	}

	logSpec := cfg.logSpec
	if env := os.Getenv("LOG_FILTER"); env != "" {
		logSpec = env
	}
	log, err := InitLog(logSpec, cfg.appName)
	if err != nil {
		return nil, err
	}
	if cfg.logFormat != "" && os.Getenv("LOG_FORMAT") == "" {
		log.mu.Lock()
		log.format = cfg.logFormat
		log.mu.Unlock()
	}

	poller, err := newPlatformPoller()
	if err != nil {
		return nil, err
	}
	if cfg.poller != "" && cfg.poller != platformPollerName {
		log.Info("init", "poller %q requested but this build only provides %q", cfg.poller, platformPollerName)
	}
	wake, err := newWakeup()
	if err != nil {
		_ = poller.close()
		return nil, err
	}
	if err := poller.add(wake.fd(), Readable); err != nil {
		_ = poller.close()
		_ = wake.close()
		return nil, err
	}

	rt := &Runtime{
		state:           newRuntimeState(),
		scheduler:       newScheduler(cfg.maxFibers),
		events:          newEventQueue(),
		watches:         newWatchRegistry(),
		waits:           newWaitRegistry(),
		poller:          poller,
		wake:            wake,
		Log:             log,
		disableTimeouts: cfg.disableTimeouts,
	}
	rt.ingress = newIngress(wake)
	// Until ServiceEvents takes over, the goroutine that called Init is the
	// one that uses the runtime directly (see onActiveGoroutine).
	rt.scheduler.activeGoroutine.Store(getGoroutineID())

	if fiberFn != nil {
		rt.events.AllocEvent(rt.scheduler.mainFiber, func(a any) {
			f, err := rt.scheduler.SpawnFiber("entry", func(fiberArg any) any {
				return fiberFn(rt, fiberArg)
			}, arg)
			if err == nil {
				rt.scheduler.ResumeFiber(f, arg)
			}
		}, nil, 0, EventFast)
	}

	rt.state.Store(StateInitialized)
	return rt, nil
}

func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}

// onActiveGoroutine reports whether the caller is running as whichever
// goroutine currently holds the cooperative baton — the loop goroutine
// when idle between fibers, or the currently-running fiber's goroutine —
// as opposed to a genuine foreign OS thread that must go through the
// ingress. Grounded on the teacher's isLoopThread/getGoroutineID
// (eventloop/loop.go), generalized from "is this the loop" to "is this
// whoever is cooperatively active right now", since fiber code (which
// runs on its own goroutine, not the loop's) must also be allowed to call
// the thread-safe API directly without deadlocking on a loop goroutine
// that is itself parked inside ResumeFiber waiting for that very fiber.
func (rt *Runtime) onActiveGoroutine() bool {
	return getGoroutineID() == rt.scheduler.activeGoroutine.Load()
}

// ServiceEvents runs the loop until the runtime state becomes
// StateStopping, then returns. Must be called from the goroutine that will
// be treated as the "loop thread" for the duration of the call.
func (rt *Runtime) ServiceEvents() error {
	id := getGoroutineID()
	rt.scheduler.activeGoroutine.Store(id)
	rt.scheduler.mainFiber.goroutineID = id

	rt.state.TryTransition(StateInitialized, StateReady)

	var (
		due    []dueEvent
		polled []polledEvent
		err    error
	)

	for rt.state.IsRunning() {
		rt.ingress.drain(rt)

		due = due[:0]
		due, ticksUntilNext := rt.events.RunEvents(due)
		for _, e := range due {
			rt.dispatch(e)
		}

		if !rt.state.IsRunning() {
			break
		}

		timeoutMs := -1
		if ticksUntilNext >= 0 {
			timeoutMs = int(ticksUntilNext)
		}

		polled = polled[:0]
		polled, err = rt.poller.poll(timeoutMs, polled)
		if err != nil {
			rt.Log.Error("loop", "poll: %v", err)
			continue
		}
		for _, pe := range polled {
			if pe.fd == rt.wake.fd() {
				rt.wake.drain()
				continue
			}
			rt.dispatchIO(pe.fd, pe.mask)
		}
	}

	rt.state.Store(StateStopped)
	return nil
}

func (rt *Runtime) dispatch(e dueEvent) {
	if e.proc == nil {
		return
	}
	if e.flags&EventFast != 0 {
		e.proc(e.arg)
		return
	}
	if e.fiber != nil && !e.fiber.main {
		rt.scheduler.ResumeFiber(e.fiber, e.arg)
		return
	}
	f, err := rt.scheduler.SpawnFiber("event", func(a any) any {
		e.proc(a)
		return nil
	}, e.arg)
	if err != nil {
		rt.Log.Error("loop", "spawn event fiber: %v", err)
		return
	}
	rt.scheduler.ResumeFiber(f, e.arg)
}

func (rt *Runtime) dispatchIO(fd int, mask IOEvents) {
	w, ok := rt.waits.lookup(fd)
	if !ok || w.freed {
		return
	}
	if w.hasTimeout {
		_ = rt.events.StopEvent(w.timeoutEventID)
		w.hasTimeout = false
	}
	if w.blocked != nil {
		f := w.blocked
		w.blocked = nil
		rt.scheduler.ResumeFiber(f, mask)
		return
	}
	if w.handler != nil {
		handler, arg := w.handler, w.arg
		f, err := rt.scheduler.SpawnFiber("wait", func(a any) any {
			handler(arg, mask)
			return nil
		}, nil)
		if err == nil {
			rt.scheduler.ResumeFiber(f, nil)
		}
	}
}

// Stop requests immediate shutdown: the loop wakes up and returns from
// ServiceEvents on its next iteration, discarding any pending events.
// Thread-safe.
func (rt *Runtime) Stop() {
	rt.stopOnce.Do(func() {})
	rt.state.Store(StateStopping)
	rt.wake.signal()
}

// GracefulStop requests shutdown but lets the events that are already due
// drain first: ServiceEvents runs one more pass of RunEvents, dispatching
// every event due at that point, then returns. Events scheduled for later
// are not run. Thread-safe.
func (rt *Runtime) GracefulStop() {
	rt.ingress.post(func(rt *Runtime) {
		// A GracefulStop observed via the ingress still needs one more
		// pass of RunEvents to drain whatever's currently due; setting
		// state here (rather than directly) ensures the transition is
		// only visible once prior posts have been applied in order.
		rt.state.Store(StateStopping)
	})
	rt.wake.signal()
}

// Close releases the poller and wakeup descriptors. Call after
// ServiceEvents has returned.
func (rt *Runtime) Close() error {
	_ = rt.Log.Close()
	_ = rt.poller.close()
	return rt.wake.close()
}
