// Package r implements the core of a portable, single-threaded cooperative
// runtime for embedded and IoT agents: a fiber scheduler, an integrated
// event/timer/wait loop, non-blocking sockets, and the supporting
// primitives (buffers, lists, hashes, a red-black tree, a filtered log
// pipeline, and a reentrant-safe printf).
//
// # Architecture
//
// Everything in the runtime is driven by a single [Runtime] value, created
// by [Init] and run via [Runtime.ServiceEvents] on one goroutine (the
// "main fiber"). All other fibers, spawned with [Runtime.SpawnFiber], are
// cooperatively scheduled on top of that one goroutine: they never run in
// parallel with it or with each other. Foreign goroutines interact with
// the runtime only through the handful of thread-safe entry points
// documented on each type (AllocEvent, StartEvent, Signal, SpawnFiber,
// ResumeFiber).
//
// # Platform support
//
// I/O readiness polling uses the platform-native mechanism:
//   - Linux: epoll
//   - macOS/BSD: kqueue
//   - other Unix: a portable select-based fallback
//
// # Execution model
//
// Each iteration of the loop: fire all events whose deadline has passed,
// in deadline order (FIFO tie-break), compute the time until the next
// event, then wait for I/O up to that timeout or until woken by a signal,
// a resumed fiber, or a foreign-thread post.
package r
