package r

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// RunResult is the outcome of Run: the command's stdout (stderr is
// discarded) and exit status.
type RunResult struct {
	Output   string
	ExitCode int
}

// Run executes command via the platform shell (popen-style), streaming
// its stdout into a buffer and returning once it exits, per spec.md
// §4.7's "popen-style run a shell command that streams stdout to a
// buffer". Runs on a helper thread (Runtime.SpawnThread) so the calling
// fiber suspends instead of blocking the loop; must be called from
// within fiber code. deadline is an absolute monotonic tick (GetTicks);
// 0 means no deadline.
func Run(rt *Runtime, command string, deadline int64) (*RunResult, error) {
	var timeout time.Duration
	if deadline > 0 {
		if d := deadline - GetTicks(); d > 0 {
			timeout = time.Duration(d) * time.Millisecond
		}
	}

	result := rt.SpawnThread(func(arg any) any {
		return runCommand(command, timeout)
	}, nil)

	if err, ok := result.(error); ok {
		return nil, err
	}
	res, _ := result.(*RunResult)
	return res, nil
}

func runCommand(command string, timeout time.Duration) any {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ErrIsTimeout
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return &RunResult{Output: out.String(), ExitCode: exitErr.ExitCode()}
		}
		return NewError(ErrFail, "run %q: %v", command, err)
	}
	return &RunResult{Output: out.String(), ExitCode: 0}
}
