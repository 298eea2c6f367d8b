package r

import (
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// Socket wraps a connected, non-blocking stream socket for use from fiber
// code: reads and writes go straight through raw syscalls on the
// underlying fd (so they compose with the Runtime's own epoll/kqueue/
// select poller instead of Go's private netpoller), grounded on
// socket515-gaio's watcher.go raw-fd proactor style — EAGAIN retries by
// parking the calling fiber on a Wait rather than gaio's callback
// completion queue.
type Socket struct {
	rt   *Runtime
	conn net.Conn // kept to hold the fd's owning net.Conn alive and for Close
	raw  syscall.RawConn
	fd   int
	wait *Wait

	closed bool
	eof    bool
}

// socketFromConn extracts the raw fd from conn, puts it in non-blocking
// mode, and registers a Wait for it.
func socketFromConn(rt *Runtime, conn net.Conn) (*Socket, error) {
	sc, ok := conn.(interface {
		SyscallConn() (syscall.RawConn, error)
	})
	if !ok {
		return nil, NewError(ErrBadArgs, "connection type %T has no SyscallConn", conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return nil, NewError(ErrFail, "SyscallConn: %v", err)
	}

	var fd int
	var ctrlErr error
	if err := raw.Control(func(sysfd uintptr) {
		fd = int(sysfd)
		ctrlErr = unix.SetNonblock(fd, true)
	}); err != nil {
		return nil, NewError(ErrFail, "control: %v", err)
	}
	if ctrlErr != nil {
		return nil, NewError(ErrFail, "set nonblock: %v", ctrlErr)
	}

	w, err := rt.AllocWait(fd)
	if err != nil {
		return nil, err
	}

	return &Socket{rt: rt, conn: conn, raw: raw, fd: fd, wait: w}, nil
}

// ConnectSocket dials network/address and returns a ready-to-use Socket.
// Must be called from within fiber code; the dial itself runs on a helper
// goroutine via SpawnThread so it doesn't block the loop.
func ConnectSocket(rt *Runtime, network, address string) (*Socket, error) {
	result := rt.SpawnThread(func(arg any) any {
		conn, err := net.Dial(network, address)
		if err != nil {
			return err
		}
		return conn
	}, nil)

	if err, ok := result.(error); ok {
		return nil, NewError(ErrFail, "dial %s %s: %v", network, address, err)
	}
	conn, _ := result.(net.Conn)
	if conn == nil {
		return nil, NewError(ErrFail, "dial %s %s: no connection", network, address)
	}
	return socketFromConn(rt, conn)
}

// SocketListener accepts inbound connections, surfaced to fiber code one
// at a time via AcceptSocket.
type SocketListener struct {
	rt  *Runtime
	ln  net.Listener
	fd  int
	raw syscall.RawConn

	wait *Wait
}

// ListenSocket binds network/address and returns a listener usable from
// fiber code.
func ListenSocket(rt *Runtime, network, address string) (*SocketListener, error) {
	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, NewError(ErrFail, "listen %s %s: %v", network, address, err)
	}

	sc, ok := ln.(interface {
		SyscallConn() (syscall.RawConn, error)
	})
	if !ok {
		_ = ln.Close()
		return nil, NewError(ErrBadArgs, "listener type %T has no SyscallConn", ln)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		_ = ln.Close()
		return nil, NewError(ErrFail, "SyscallConn: %v", err)
	}

	var fd int
	var ctrlErr error
	if err := raw.Control(func(sysfd uintptr) {
		fd = int(sysfd)
		ctrlErr = unix.SetNonblock(fd, true)
	}); err != nil {
		_ = ln.Close()
		return nil, NewError(ErrFail, "control: %v", err)
	}
	if ctrlErr != nil {
		_ = ln.Close()
		return nil, NewError(ErrFail, "set nonblock: %v", ctrlErr)
	}

	w, err := rt.AllocWait(fd)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	return &SocketListener{rt: rt, ln: ln, fd: fd, raw: raw, wait: w}, nil
}

// AcceptSocket blocks the calling fiber until a connection arrives (or
// deadline, an absolute monotonic tick, elapses) and returns it as a
// Socket. deadline of 0 waits forever.
func (l *SocketListener) AcceptSocket(deadline int64) (*Socket, error) {
	for {
		conn, err := l.ln.Accept()
		if err == nil {
			return socketFromConn(l.rt, conn)
		}
		if !isTemporary(err) {
			return nil, NewError(ErrFail, "accept: %v", err)
		}
		mask, werr := l.rt.WaitForIO(l.wait, Readable, deadline)
		if werr != nil {
			return nil, werr
		}
		if mask&Timeout != 0 {
			return nil, ErrIsTimeout
		}
	}
}

// Close releases the listener's fd and Wait registration.
func (l *SocketListener) Close() error {
	l.rt.FreeWait(l.wait)
	return l.ln.Close()
}

func isTemporary(err error) bool {
	type temporary interface{ Temporary() bool }
	if t, ok := err.(temporary); ok {
		return t.Temporary()
	}
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR
}

// ReadSocket reads up to len(buf) bytes, blocking the calling fiber on
// EAGAIN until the fd is readable or deadline (an absolute monotonic
// tick; 0 waits forever) elapses. Must be called from within fiber code.
func (s *Socket) ReadSocket(buf []byte, deadline int64) (int, error) {
	if s.closed {
		return 0, ErrIsClosed
	}
	for {
		var n int
		var opErr error
		err := s.raw.Read(func(fd uintptr) bool {
			n, opErr = unix.Read(int(fd), buf)
			return true
		})
		if err != nil {
			return 0, NewError(ErrFail, "read: %v", err)
		}
		if opErr == nil {
			if n == 0 {
				s.eof = true
			}
			return n, nil
		}
		if opErr != unix.EAGAIN {
			return 0, NewError(ErrFail, "read: %v", opErr)
		}

		mask, werr := s.rt.WaitForIO(s.wait, Readable, deadline)
		if werr != nil {
			return 0, werr
		}
		if mask&Timeout != 0 {
			return 0, ErrIsTimeout
		}
	}
}

// IsSocketEof reports whether the last ReadSocket call observed the peer's
// orderly close (a zero-length read), per spec.md §4.7's readSocket
// distinguishing EOF from other zero-byte outcomes via isSocketEof.
func (s *Socket) IsSocketEof() bool { return s.eof }

// WriteSocket writes all of buf, blocking the calling fiber on EAGAIN
// until the fd is writable or deadline elapses. Must be called from
// within fiber code.
func (s *Socket) WriteSocket(buf []byte, deadline int64) (int, error) {
	if s.closed {
		return 0, ErrIsClosed
	}
	total := 0
	for total < len(buf) {
		var n int
		var opErr error
		err := s.raw.Write(func(fd uintptr) bool {
			n, opErr = unix.Write(int(fd), buf[total:])
			return true
		})
		if err != nil {
			return total, NewError(ErrFail, "write: %v", err)
		}
		if opErr == nil {
			total += n
			continue
		}
		if opErr != unix.EAGAIN {
			return total, NewError(ErrFail, "write: %v", opErr)
		}

		mask, werr := s.rt.WaitForIO(s.wait, Writable, deadline)
		if werr != nil {
			return total, werr
		}
		if mask&Timeout != 0 {
			return total, ErrIsTimeout
		}
	}
	return total, nil
}

// CloseSocket performs an orderly close (TCP FIN), releasing the fd's
// Wait registration first so no fiber is left parked on it.
func (s *Socket) CloseSocket() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.rt.FreeWait(s.wait)
	return s.conn.Close()
}

// ResetSocket performs an abortive close (TCP RST via SO_LINGER 0),
// matching spec.md's "hard reset" socket teardown distinct from the
// graceful CloseSocket.
func (s *Socket) ResetSocket() error {
	if s.closed {
		return nil
	}
	if tc, ok := s.conn.(*net.TCPConn); ok {
		_ = tc.SetLinger(0)
	}
	return s.CloseSocket()
}
