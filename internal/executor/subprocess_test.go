package executor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSubprocessExportsEnv(t *testing.T) {
	var out bytes.Buffer
	e := &SubprocessExecutor{Stdout: &out, Stderr: &out}

	err := e.Run(context.Background(), Spec{
		Command: []string{"sh", "-c", "echo $SHUB_JOBKEY"},
		Env:     []string{"SHUB_JOBKEY=1/2/3"},
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if strings.TrimSpace(out.String()) != "1/2/3" {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestSubprocessExitCode(t *testing.T) {
	e := &SubprocessExecutor{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}

	err := e.Run(context.Background(), Spec{Command: []string{"sh", "-c", "exit 3"}})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("unexpected exit code: %d", exitErr.Code)
	}
}

func TestSubprocessNoCommand(t *testing.T) {
	e := NewSubprocessExecutor()
	if err := e.Run(context.Background(), Spec{}); err == nil {
		t.Error("expected error for empty command")
	}
}

func TestSubprocessCancelled(t *testing.T) {
	e := &SubprocessExecutor{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.Run(ctx, Spec{Command: []string{"sleep", "5"}})
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Errorf("cancellation should not be reported as an exit code: %v", err)
	}
}
