package r

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// socketTestHarness starts a Runtime's event loop on a background goroutine
// and returns a shutdown func, so fiber-only socket APIs (AcceptSocket,
// ReadSocket, WriteSocket, WaitForIO underneath them) have somewhere to run.
func socketTestHarness(t *testing.T) (*Runtime, func()) {
	t.Helper()
	rt, err := Init(nil, nil, WithLogSpec("none:all:all"))
	require.NoError(t, err)
	wait := runForTest(t, rt)
	return rt, func() {
		rt.Stop()
		require.NoError(t, wait())
		require.NoError(t, rt.Close())
	}
}

func TestSocketConnectAcceptReadWriteRoundTrip(t *testing.T) {
	rt, shutdown := socketTestHarness(t)
	defer shutdown()

	ln, err := ListenSocket(rt, "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	addr := ln.ln.Addr().String()

	type acceptResult struct {
		sock *Socket
		err  error
	}
	acceptCh := make(chan acceptResult, 1)
	_, err = rt.SpawnFiber("accepter", func(arg any) any {
		s, err := ln.AcceptSocket(0)
		acceptCh <- acceptResult{s, err}
		return nil
	}, nil)
	require.NoError(t, err)

	type connectResult struct {
		sock *Socket
		err  error
	}
	connectCh := make(chan connectResult, 1)
	_, err = rt.SpawnFiber("connecter", func(arg any) any {
		s, err := ConnectSocket(rt, "tcp", addr)
		connectCh <- connectResult{s, err}
		return nil
	}, nil)
	require.NoError(t, err)

	accepted := <-acceptCh
	require.NoError(t, accepted.err)
	require.NotNil(t, accepted.sock)
	defer accepted.sock.CloseSocket()

	connected := <-connectCh
	require.NoError(t, connected.err)
	require.NotNil(t, connected.sock)
	defer connected.sock.CloseSocket()

	writeDone := make(chan error, 1)
	_, err = rt.SpawnFiber("writer", func(arg any) any {
		_, err := connected.sock.WriteSocket([]byte("hello"), 0)
		writeDone <- err
		return nil
	}, nil)
	require.NoError(t, err)
	require.NoError(t, <-writeDone)

	readCh := make(chan struct {
		n   int
		err error
		buf []byte
	}, 1)
	_, err = rt.SpawnFiber("reader", func(arg any) any {
		buf := make([]byte, 16)
		n, err := accepted.sock.ReadSocket(buf, 0)
		readCh <- struct {
			n   int
			err error
			buf []byte
		}{n, err, buf}
		return nil
	}, nil)
	require.NoError(t, err)

	got := <-readCh
	require.NoError(t, got.err)
	assert.Equal(t, "hello", string(got.buf[:got.n]))
}

func TestAcceptSocketTimesOutWithNoPendingConnection(t *testing.T) {
	rt, shutdown := socketTestHarness(t)
	defer shutdown()

	ln, err := ListenSocket(rt, "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	resultCh := make(chan error, 1)
	_, err = rt.SpawnFiber("accepter", func(arg any) any {
		_, err := ln.AcceptSocket(GetTicks() + 5)
		resultCh <- err
		return nil
	}, nil)
	require.NoError(t, err)

	err = <-resultCh
	assert.ErrorIs(t, err, ErrIsTimeout)
}

func TestSocketCloseSocketIsIdempotent(t *testing.T) {
	rt, shutdown := socketTestHarness(t)
	defer shutdown()

	ln, err := ListenSocket(rt, "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	addr := ln.ln.Addr().String()

	doneCh := make(chan error, 1)
	_, err = rt.SpawnFiber("connecter", func(arg any) any {
		s, err := ConnectSocket(rt, "tcp", addr)
		if err != nil {
			doneCh <- err
			return nil
		}
		if err := s.CloseSocket(); err != nil {
			doneCh <- err
			return nil
		}
		// second close must be a no-op, not an error
		doneCh <- s.CloseSocket()
		return nil
	}, nil)
	require.NoError(t, err)
	require.NoError(t, <-doneCh)
}

func TestSocketReadWriteAfterCloseReturnsClosed(t *testing.T) {
	rt, shutdown := socketTestHarness(t)
	defer shutdown()

	ln, err := ListenSocket(rt, "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	addr := ln.ln.Addr().String()

	doneCh := make(chan struct {
		readErr  error
		writeErr error
	}, 1)
	_, err = rt.SpawnFiber("connecter", func(arg any) any {
		s, err := ConnectSocket(rt, "tcp", addr)
		if err != nil {
			panic(err)
		}
		require.NoError(t, s.CloseSocket())
		_, readErr := s.ReadSocket(make([]byte, 4), 0)
		_, writeErr := s.WriteSocket([]byte("x"), 0)
		doneCh <- struct {
			readErr  error
			writeErr error
		}{readErr, writeErr}
		return nil
	}, nil)
	require.NoError(t, err)

	got := <-doneCh
	assert.ErrorIs(t, got.readErr, ErrIsClosed)
	assert.ErrorIs(t, got.writeErr, ErrIsClosed)
}

// TestSocketLargeTransferReadsUntilEof writes a 500,000-byte payload,
// shuts down the writer, and reads until IsSocketEof reports true,
// checking the received bytes are identical to what was sent.
func TestSocketLargeTransferReadsUntilEof(t *testing.T) {
	rt, shutdown := socketTestHarness(t)
	defer shutdown()

	ln, err := ListenSocket(rt, "tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	addr := ln.ln.Addr().String()

	const size = 500_000
	payload := make([]byte, size)
	_, err = rand.Read(payload)
	require.NoError(t, err)

	acceptCh := make(chan *Socket, 1)
	_, err = rt.SpawnFiber("accepter", func(arg any) any {
		s, err := ln.AcceptSocket(0)
		require.NoError(t, err)
		acceptCh <- s
		return nil
	}, nil)
	require.NoError(t, err)

	writeDone := make(chan error, 1)
	_, err = rt.SpawnFiber("writer", func(arg any) any {
		s, err := ConnectSocket(rt, "tcp", addr)
		if err != nil {
			writeDone <- err
			return nil
		}
		_, werr := s.WriteSocket(payload, 0)
		if werr == nil {
			werr = s.CloseSocket()
		}
		writeDone <- werr
		return nil
	}, nil)
	require.NoError(t, err)

	accepted := <-acceptCh
	defer accepted.CloseSocket()

	readCh := make(chan struct {
		buf []byte
		eof bool
		err error
	}, 1)
	_, err = rt.SpawnFiber("reader", func(arg any) any {
		var buf bytes.Buffer
		chunk := make([]byte, 32*1024)
		for {
			n, rerr := accepted.ReadSocket(chunk, 0)
			if rerr != nil {
				readCh <- struct {
					buf []byte
					eof bool
					err error
				}{buf.Bytes(), accepted.IsSocketEof(), rerr}
				return nil
			}
			buf.Write(chunk[:n])
			if accepted.IsSocketEof() {
				readCh <- struct {
					buf []byte
					eof bool
					err error
				}{buf.Bytes(), true, nil}
				return nil
			}
		}
	}, nil)
	require.NoError(t, err)

	require.NoError(t, <-writeDone)
	got := <-readCh
	require.NoError(t, got.err)
	assert.True(t, got.eof)
	assert.True(t, bytes.Equal(payload, got.buf), "received bytes must be byte-identical to what was sent")
}
