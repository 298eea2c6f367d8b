package r

import (
	"sync"

	"golang.org/x/sys/unix"
)

// wakeup is the self-pipe that lets any goroutine — including a foreign
// thread outside the fiber scheduler — force the event loop's poll() call
// to return immediately, per spec.md §4.6 ("a wakeup channel (self-pipe,
// eventfd, or equivalent)"). A plain pipe is used rather than Linux's
// eventfd specifically so the same implementation works unmodified across
// every ioPoller backend (epoll, kqueue, select) instead of needing a
// parallel eventfd-based wakeup just for Linux.
type wakeup struct {
	r, w int
	mu   sync.Mutex
	done bool
}

func newWakeup() (*wakeup, error) {
	var fds [2]int
	// unix.Pipe (rather than the Linux-only Pipe2) to stay portable across
	// the epoll/kqueue/select backends this wakeup is shared by.
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, NewError(ErrCantInitialize, "wakeup pipe: %v", err)
	}
	for _, fd := range fds {
		unix.CloseOnExec(fd)
		if err := unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(fds[0])
			_ = unix.Close(fds[1])
			return nil, NewError(ErrCantInitialize, "wakeup pipe nonblock: %v", err)
		}
	}
	return &wakeup{r: fds[0], w: fds[1]}, nil
}

// fd returns the read end, for registration with the poller.
func (w *wakeup) fd() int { return w.r }

// signal writes a single byte, waking any blocked poll(). Safe to call
// from any goroutine, any number of times; a poller that's already awake
// simply drains the extra bytes on its next drain call.
func (w *wakeup) signal() {
	w.mu.Lock()
	closed := w.done
	w.mu.Unlock()
	if closed {
		return
	}
	var b [1]byte
	_, _ = unix.Write(w.w, b[:])
}

// drain reads and discards all pending wakeup bytes, so the next signal
// reliably causes another wakeup rather than being satisfied by leftover
// bytes from a previous one.
func (w *wakeup) drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(w.r, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (w *wakeup) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return nil
	}
	w.done = true
	_ = unix.Close(w.w)
	return unix.Close(w.r)
}
