//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package r

import (
	"sync"

	"golang.org/x/sys/unix"
)

// selectPoller implements ioPoller over select(2), the §6 "select
// elsewhere" fallback for Unix platforms without epoll/kqueue. It's O(n)
// per poll in the number of registered fds, which is the documented
// tradeoff of this backend — acceptable given it's only reached on
// platforms that offer nothing better.
type selectPoller struct {
	mu     sync.Mutex
	closed bool
	fds    map[int]IOEvents
}

// platformPollerName identifies this build's poller backend, for
// WithPoller override-mismatch diagnostics in Init.
const platformPollerName = "select"

func newPlatformPoller() (ioPoller, error) {
	return &selectPoller{fds: make(map[int]IOEvents)}, nil
}

func (p *selectPoller) add(fd int, mask IOEvents) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fds[fd] = mask
	return nil
}

func (p *selectPoller) modify(fd int, mask IOEvents) error {
	return p.add(fd, mask)
}

func (p *selectPoller) remove(fd int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.fds, fd)
	return nil
}

func (p *selectPoller) poll(timeoutMs int, dst []polledEvent) ([]polledEvent, error) {
	p.mu.Lock()
	fds := make(map[int]IOEvents, len(p.fds))
	for fd, mask := range p.fds {
		fds[fd] = mask
	}
	p.mu.Unlock()

	var rSet, wSet unix.FdSet
	maxFD := 0
	for fd, mask := range fds {
		if mask&Readable != 0 {
			fdSetAdd(&rSet, fd)
		}
		if mask&Writable != 0 {
			fdSetAdd(&wSet, fd)
		}
		if fd > maxFD {
			maxFD = fd
		}
	}

	var timeout *unix.Timeval
	if timeoutMs >= 0 {
		t := unix.NsecToTimeval(int64(timeoutMs) * 1_000_000)
		timeout = &t
	}

	_, err := unix.Select(maxFD+1, &rSet, &wSet, nil, timeout)
	if err != nil {
		if err == unix.EINTR {
			return dst, nil
		}
		return dst, NewError(ErrNetwork, "select: %v", err)
	}

	for fd, mask := range fds {
		var got IOEvents
		if mask&Readable != 0 && fdSetIsSet(&rSet, fd) {
			got |= Readable
		}
		if mask&Writable != 0 && fdSetIsSet(&wSet, fd) {
			got |= Writable
		}
		if got != 0 {
			dst = append(dst, polledEvent{fd: fd, mask: got})
		}
	}
	return dst, nil
}

// fdSetAdd/fdSetIsSet manipulate a unix.FdSet's bitmap directly, since
// golang.org/x/sys/unix exposes FdSet as a plain struct with no bit-twiddling
// methods of its own (unlike C's FD_SET/FD_ISSET macros).
func fdSetAdd(set *unix.FdSet, fd int) {
	idx := fd / 64
	bit := uint(fd % 64)
	set.Bits[idx] |= 1 << bit
}

func fdSetIsSet(set *unix.FdSet, fd int) bool {
	idx := fd / 64
	bit := uint(fd % 64)
	return set.Bits[idx]&(1<<bit) != 0
}

func (p *selectPoller) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.fds = nil
	return nil
}
