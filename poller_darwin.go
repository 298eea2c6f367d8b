//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package r

import (
	"sync"

	"golang.org/x/sys/unix"
)

// kqueuePoller implements ioPoller over BSD/Darwin kqueue, the §6
// "kqueue on BSD/macOS" default. Each registered fd gets independent
// EVFILT_READ/EVFILT_WRITE filters (added/removed individually), mirroring
// epollPoller's per-fd mask semantics so wait.go can treat both backends
// identically.
type kqueuePoller struct {
	mu       sync.Mutex
	kq       int
	closed   bool
	eventBuf []unix.Kevent_t
}

// platformPollerName identifies this build's poller backend, for
// WithPoller override-mismatch diagnostics in Init.
const platformPollerName = "kqueue"

func newPlatformPoller() (ioPoller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, NewError(ErrCantInitialize, "kqueue: %v", err)
	}
	return &kqueuePoller{kq: fd, eventBuf: make([]unix.Kevent_t, 256)}, nil
}

func (p *kqueuePoller) changeFilters(fd int, mask IOEvents, enable bool) error {
	var changes []unix.Kevent_t
	flag := uint16(unix.EV_ADD | unix.EV_ENABLE)
	if !enable {
		flag = unix.EV_DELETE
	}
	if mask&Readable != 0 || !enable {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: flag})
	}
	if mask&Writable != 0 || !enable {
		changes = append(changes, unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: flag})
	}
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	if err != nil && !enable {
		// ENOENT on delete of an already-gone filter is routine (e.g. the
		// write filter was never registered); ignore it.
		if err == unix.ENOENT {
			return nil
		}
	}
	if err != nil {
		return NewError(ErrCantInitialize, "kevent register fd %d: %v", fd, err)
	}
	return nil
}

func (p *kqueuePoller) add(fd int, mask IOEvents) error {
	return p.changeFilters(fd, mask, true)
}

func (p *kqueuePoller) modify(fd int, mask IOEvents) error {
	// Clear any existing filters then re-register the requested set —
	// kqueue has no single-call "replace interest set" primitive.
	_ = p.changeFilters(fd, Readable|Writable, false)
	return p.changeFilters(fd, mask, true)
}

func (p *kqueuePoller) remove(fd int) error {
	return p.changeFilters(fd, Readable|Writable, false)
}

func (p *kqueuePoller) poll(timeoutMs int, dst []polledEvent) ([]polledEvent, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * 1_000_000)
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.eventBuf, ts)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, NewError(ErrNetwork, "kevent wait: %v", err)
	}
	byFD := map[int]IOEvents{}
	for i := 0; i < n; i++ {
		ev := p.eventBuf[i]
		fd := int(ev.Ident)
		switch ev.Filter {
		case unix.EVFILT_READ:
			byFD[fd] |= Readable
		case unix.EVFILT_WRITE:
			byFD[fd] |= Writable
		}
		if ev.Flags&unix.EV_EOF != 0 {
			byFD[fd] |= Modified
		}
	}
	for fd, mask := range byFD {
		dst = append(dst, polledEvent{fd: fd, mask: mask})
	}
	return dst, nil
}

func (p *kqueuePoller) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.kq)
}
