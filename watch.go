package r

import "reflect"

// funcEqual compares two WatchProc values by underlying code pointer,
// since Go func values aren't comparable with ==. This is the same trick
// used to let callers unsubscribe by passing the same named function
// value twice; it does not distinguish between two different closures
// created from the same function literal.
func funcEqual(a, b WatchProc) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// WatchProc is a subscriber callback registered via Watch.
type WatchProc func(name string, data any)

type watchSub struct {
	proc WatchProc
	data any
}

// WatchRegistry is the name -> subscriber map described by spec.md §4.6.
// Like EventQueue, it's main-fiber-only; Signal (but not SignalSync) is
// reachable from foreign threads only via the ingress.
type WatchRegistry struct {
	subs map[string][]watchSub
}

func newWatchRegistry() *WatchRegistry {
	return &WatchRegistry{subs: make(map[string][]watchSub)}
}

// Watch appends (proc, data) to name's subscriber list.
func (w *WatchRegistry) Watch(name string, proc WatchProc, data any) {
	w.subs[name] = append(w.subs[name], watchSub{proc, data})
}

// WatchOff removes the exact (proc, data) triple from name's list, if
// present. Equality of proc is by reference identity (Go func values
// aren't comparable, so callers that want to unsubscribe must retain and
// pass back the original WatchProc value via a closure-capturing
// variable — same constraint the C API has on function-pointer identity).
func (w *WatchRegistry) WatchOff(name string, proc WatchProc, data any) {
	subs := w.subs[name]
	for i := range subs {
		if funcEqual(subs[i].proc, proc) && subs[i].data == data {
			w.subs[name] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Signal enqueues one event per current subscriber of name, to be
// delivered asynchronously on its own fiber (fiber-delivered, per
// spec.md §4.6). Each subscriber is called with arg, as with SignalSync.
// Callers reach this through Runtime.Signal, which posts through the
// ingress from foreign threads.
func (w *WatchRegistry) Signal(name string, queue *EventQueue, curFiber *Fiber, arg any) {
	// Snapshot the subscriber slice: additions during delivery must not be
	// observed until the next Signal call, per spec.md §4.6.
	subs := append([]watchSub(nil), w.subs[name]...)
	for _, s := range subs {
		sub := s
		queue.StartEvent(curFiber, func(a any) {
			sub.proc(name, a)
		}, arg, 0)
	}
}

// SignalSync walks name's subscriber list and calls each inline,
// synchronously. Subscribers must not block — there is no fiber to
// suspend into on this path.
func (w *WatchRegistry) SignalSync(name string, arg any) {
	subs := append([]watchSub(nil), w.subs[name]...)
	for _, s := range subs {
		s.proc(name, arg)
	}
}
