package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
)

type SubprocessExecutor struct {
	Stdout io.Writer
	Stderr io.Writer
}

func NewSubprocessExecutor() *SubprocessExecutor {
	return &SubprocessExecutor{Stdout: os.Stdout, Stderr: os.Stderr}
}

func (e *SubprocessExecutor) Run(ctx context.Context, spec Spec) error {
	if len(spec.Command) == 0 {
		return fmt.Errorf("no command specified")
	}
	logger := slog.With("command", spec.Command)

	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	logger.Info("starting subprocess")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			logger.Warn("subprocess failed", "exit_code", exitErr.ExitCode())
			return &ExitError{Code: exitErr.ExitCode()}
		}
		logger.Error("subprocess failed", "error", err)
		return fmt.Errorf("running %s: %w", spec.Command[0], err)
	}
	logger.Info("subprocess completed successfully")
	return nil
}
