package executor

import (
	"context"
	"strconv"
)

// Spec describes a command to launch for a job.
type Spec struct {
	// Image is the container image. Only the docker executor uses it.
	Image   string
	Command []string
	// Env holds KEY=value pairs added to the command's environment.
	Env []string
}

// Executor launches a job command and waits for it to exit.
type Executor interface {
	// Run starts spec and blocks until it exits or ctx is done.
	// A non-zero exit is reported as an *ExitError.
	Run(ctx context.Context, spec Spec) error
}

// ExitError reports a command that exited with a non-zero status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return "command exited with code " + strconv.Itoa(e.Code)
}
