package supervisor

import (
	"errors"
	"fmt"
)

var ErrConcurrentInvocation = errors.New("supervisor: an invocation is already running")

// SpawnError means the tool never started.
type SpawnError struct {
	Executable string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot start %s: %v", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// ToolFailure means the tool ran and exited non-zero.
type ToolFailure struct {
	ExitCode int
	Stderr   string
}

func (e *ToolFailure) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("exit status %d", e.ExitCode)
	}
	return e.Stderr
}

// StageError wraps a failure of the staging around the tool run.
type StageError struct {
	Step string
	Err  error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }

func (e *StageError) Unwrap() error { return e.Err }
