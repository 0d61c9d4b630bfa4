package supervisor

import (
	"bytes"
	"errors"
	"os/exec"

	"lfstool/internal/invocation"
)

// Result is what a finished tool run left behind.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Spawner runs an invocation to completion. A non-nil error means the process
// could not be started; a non-zero exit is reported through Result.
type Spawner interface {
	Spawn(inv invocation.Invocation) (Result, error)
}

// CommandFactoryFunc builds the exec.Cmd for a spawn.
type CommandFactoryFunc func(name string, args ...string) *exec.Cmd

// ProcessSpawner starts the tool as a child process and buffers its output.
type ProcessSpawner struct {
	SuppressConsoleWindow bool
	Dir                   string
	CommandFactory        CommandFactoryFunc
}

func (p ProcessSpawner) Spawn(inv invocation.Invocation) (Result, error) {
	factory := p.CommandFactory
	if factory == nil {
		factory = exec.Command
	}
	cmd := factory(inv.Executable, inv.Args()...)
	cmd.Dir = p.Dir
	if p.SuppressConsoleWindow {
		hideConsole(cmd)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{}, &SpawnError{Executable: inv.Executable, Err: err}
	}
	err := cmd.Wait()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// -1 when killed by a signal
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, &SpawnError{Executable: inv.Executable, Err: err}
	}
	return res, nil
}
