// Package executor runs the configured command through a shell.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrSpawn indicates the command could not be launched at all, as
// opposed to a command that ran and exited nonzero.
var ErrSpawn = errors.New("failed to spawn command")

// Runner executes a shell command line in a working directory and
// reports its exit code.
type Runner interface {
	Run(ctx context.Context, command, dir string) (int, error)
}

// Shell implements Runner by spawning `sh -c` with the caller's
// standard streams inherited; nothing is captured or buffered.
type Shell struct{}

// NewShell creates a new shell runner
func NewShell() *Shell {
	return &Shell{}
}

// Run spawns the command and waits for it. The returned exit code is the
// process's own; a process terminated by a signal reports 0 because it
// has no conventional exit code. A nonzero exit is not an error here —
// only a failure to spawn is.
func (s *Shell) Run(ctx context.Context, command, dir string) (int, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	err := cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if !exitErr.ProcessState.Exited() {
			// Killed by a signal: no conventional exit code.
			return 0, nil
		}
		return exitErr.ExitCode(), nil
	}

	return 0, fmt.Errorf("%w: %w", ErrSpawn, err)
}
