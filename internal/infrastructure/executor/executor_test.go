package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aegisd/aegis-go/internal/domain"
)

func TestExecuteCapturesStdout(t *testing.T) {
	e := New("/bin/sh", 0, 0)

	result, err := e.Execute(context.Background(), "echo hello", "")
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if !result.Ran || result.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if strings.TrimSpace(result.Stdout) != "hello" {
		t.Fatalf("expected stdout hello, got %q", result.Stdout)
	}
}

func TestExecuteReportsExitCode(t *testing.T) {
	e := New("/bin/sh", 0, 0)

	result, err := e.Execute(context.Background(), "exit 3", "")
	if !errors.Is(err, domain.ErrSubprocess) {
		t.Fatalf("expected subprocess error, got %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", result.ExitCode)
	}
}

func TestExecuteHonorsWorkdir(t *testing.T) {
	dir := t.TempDir()
	e := New("/bin/sh", 0, 0)

	result, err := e.Execute(context.Background(), "pwd", dir)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if strings.TrimSpace(result.Stdout) != dir {
		t.Fatalf("expected pwd %q, got %q", dir, result.Stdout)
	}
}

func TestExecuteTimesOut(t *testing.T) {
	e := New("/bin/sh", 100*time.Millisecond, 0)

	result, err := e.Execute(context.Background(), "sleep 5", "")
	if !errors.Is(err, domain.ErrSubprocessTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if !result.TimedOut {
		t.Fatalf("expected TimedOut set, got %+v", result)
	}
}

func TestExecuteCapsOutput(t *testing.T) {
	e := New("/bin/sh", 0, 64)

	result, err := e.Execute(context.Background(), "yes overflow | head -n 1000", "")
	if !errors.Is(err, domain.ErrOutputOverflow) {
		t.Fatalf("expected overflow error, got %v", err)
	}
	if !result.Overflowed {
		t.Fatalf("expected Overflowed set, got %+v", result)
	}
	if len(result.Stdout) > 64 {
		t.Fatalf("stdout exceeded cap: %d bytes", len(result.Stdout))
	}
}

func TestCappedBufferTruncates(t *testing.T) {
	b := newCappedBuffer(5)

	n, err := b.Write([]byte("abcdefgh"))
	if n != 5 || err == nil {
		t.Fatalf("expected truncated write with error, got n=%d err=%v", n, err)
	}
	if b.String() != "abcde" || !b.overflowed {
		t.Fatalf("unexpected buffer state: %q overflowed=%v", b.String(), b.overflowed)
	}
}

func TestNewDefaults(t *testing.T) {
	e := New("", 0, 0)
	if e.shell == "" {
		t.Fatal("expected a shell fallback")
	}
	if e.timeout != DefaultTimeout || e.maxOutput != DefaultMaxOutput {
		t.Fatalf("expected default ceilings, got timeout=%v maxOutput=%d", e.timeout, e.maxOutput)
	}
}
