package process

import (
	"bytes"
	"context"
	"os/exec"
	"syscall"
	"time"

	"github.com/kbukum/flowc/errors"
)

// Run executes cmd and waits for it. A failed or non-zero exit is
// BACKEND_EXECUTION carrying exit_code and stderr; the Result is returned
// with it so callers can still read the output.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.InvalidInput("binary", "is required")
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // binaries come from backend config
	c.Env = cmd.environ()

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	// Signal the whole group so runtimes that fork (nvcc, python -m) stop too.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = cmd.gracePeriod()

	start := time.Now()
	runErr := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	switch {
	case runErr == nil:
		return res, nil
	case ctx.Err() != nil:
		return res, errors.BackendExecution(cmd.Binary, ctx.Err()).WithDetail("killed", true)
	default:
		return res, errors.BackendExecution(cmd.Binary, runErr).WithDetails(map[string]any{
			"exit_code": res.ExitCode,
			"stderr":    string(bytes.TrimSpace(res.Stderr)),
		})
	}
}
