// Package executor runs commands on the host shell.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/aegisd/aegis-go/internal/domain"
	"github.com/aegisd/aegis-go/internal/ports"
)

// Default resource ceilings. Both waits must terminate: the run is bounded by
// Timeout and the captured output by MaxOutput.
const (
	DefaultTimeout   = 120 * time.Second
	DefaultMaxOutput = 10 << 20 // 10MB
)

// LocalExecutor runs commands on the host shell.
type LocalExecutor struct {
	shell     string
	timeout   time.Duration
	maxOutput int64
}

// New builds an executor. Shell defaults to $SHELL then /bin/sh; zero
// timeout and maxOutput fall back to the package ceilings.
func New(shell string, timeout time.Duration, maxOutput int64) *LocalExecutor {
	if shell == "" || shell == "auto" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutput
	}
	return &LocalExecutor{shell: shell, timeout: timeout, maxOutput: maxOutput}
}

// Execute implements ports.CommandExecutor.
func (e *LocalExecutor) Execute(ctx context.Context, command, workdir string) (domain.ExecutionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	c := exec.CommandContext(ctx, e.shell, "-c", command)
	if workdir != "" {
		c.Dir = workdir
	}
	stdout := newCappedBuffer(e.maxOutput)
	stderr := newCappedBuffer(e.maxOutput)
	c.Stdout = stdout
	c.Stderr = stderr

	start := time.Now()
	err := c.Run()
	duration := time.Since(start).Milliseconds()

	result := domain.ExecutionResult{
		Ran:        true,
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		DurationMS: duration,
	}

	if stdout.overflowed || stderr.overflowed {
		result.Overflowed = true
		return result, fmt.Errorf("%w: output exceeded %d bytes", domain.ErrOutputOverflow, e.maxOutput)
	}
	if ctx.Err() == context.DeadlineExceeded {
		result.TimedOut = true
		return result, fmt.Errorf("%w: after %s", domain.ErrSubprocessTimeout, e.timeout)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, fmt.Errorf("%w: exit code %d", domain.ErrSubprocess, result.ExitCode)
	}
	if err != nil {
		result.Ran = false
		return result, fmt.Errorf("%w: %v", domain.ErrSubprocess, err)
	}
	return result, nil
}

// cappedBuffer accumulates writes up to a hard limit. Writes past the bound
// truncate, mark the buffer overflowed, and kill the copy by erroring.
type cappedBuffer struct {
	buf        []byte
	limit      int64
	overflowed bool
}

func newCappedBuffer(limit int64) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - int64(len(b.buf))
	if remaining <= 0 {
		b.overflowed = true
		return 0, domain.ErrOutputOverflow
	}
	if int64(len(p)) > remaining {
		b.buf = append(b.buf, p[:remaining]...)
		b.overflowed = true
		return int(remaining), domain.ErrOutputOverflow
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	return string(b.buf)
}

var _ ports.CommandExecutor = (*LocalExecutor)(nil)
