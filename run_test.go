package r

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesStdoutAndExitsZero(t *testing.T) {
	rt, err := Init(nil, nil, WithLogSpec("none:all:all"))
	require.NoError(t, err)
	wait := runForTest(t, rt)
	defer func() {
		rt.Stop()
		require.NoError(t, wait())
		require.NoError(t, rt.Close())
	}()

	resultCh := make(chan struct {
		res *RunResult
		err error
	}, 1)
	_, err = rt.SpawnFiber("runner", func(arg any) any {
		res, err := Run(rt, "echo hello", 0)
		resultCh <- struct {
			res *RunResult
			err error
		}{res, err}
		return nil
	}, nil)
	require.NoError(t, err)

	got := <-resultCh
	require.NoError(t, got.err)
	require.NotNil(t, got.res)
	assert.Equal(t, 0, got.res.ExitCode)
	assert.Contains(t, got.res.Output, "hello")
}

func TestRunCapturesNonZeroExitCode(t *testing.T) {
	rt, err := Init(nil, nil, WithLogSpec("none:all:all"))
	require.NoError(t, err)
	wait := runForTest(t, rt)
	defer func() {
		rt.Stop()
		require.NoError(t, wait())
		require.NoError(t, rt.Close())
	}()

	resultCh := make(chan struct {
		res *RunResult
		err error
	}, 1)
	_, err = rt.SpawnFiber("runner", func(arg any) any {
		res, err := Run(rt, "exit 7", 0)
		resultCh <- struct {
			res *RunResult
			err error
		}{res, err}
		return nil
	}, nil)
	require.NoError(t, err)

	got := <-resultCh
	require.NoError(t, got.err)
	require.NotNil(t, got.res)
	assert.Equal(t, 7, got.res.ExitCode)
}

func TestRunDeadlineExceededReturnsTimeout(t *testing.T) {
	rt, err := Init(nil, nil, WithLogSpec("none:all:all"))
	require.NoError(t, err)
	wait := runForTest(t, rt)
	defer func() {
		rt.Stop()
		require.NoError(t, wait())
		require.NoError(t, rt.Close())
	}()

	resultCh := make(chan error, 1)
	_, err = rt.SpawnFiber("runner", func(arg any) any {
		_, err := Run(rt, "sleep 5", GetTicks()+50)
		resultCh <- err
		return nil
	}, nil)
	require.NoError(t, err)

	err = <-resultCh
	assert.ErrorIs(t, err, ErrIsTimeout)
}
