package runner

import (
	"context"
	"fmt"
)

// ExitStatus is the final state of a process. Err carries transport or
// runtime failures (broken pipe, oversized line, wait error), not the
// process's own stderr.
type ExitStatus struct {
	Code   int
	Killed bool
	Err    error
}

func (s ExitStatus) Success() bool {
	return s.Err == nil && !s.Killed && s.Code == 0
}

// LaunchError means the process never started, e.g. the executable was not
// found. No output is produced in that case.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Process is one running command. Its combined stdout/stderr is delivered
// line by line on Lines, in emission order; the channel is closed once the
// process closes its output. Each Process owns exactly one child.
type Process interface {
	Lines() <-chan string
	// Wait stops line delivery, waits for the child to exit and reaps it.
	// Lines not yet received are drained and dropped.
	Wait() ExitStatus
	// Close kills the child's process group and reaps it. Idempotent.
	Close() error
}

type Runner interface {
	Start(ctx context.Context, name string, args ...string) (Process, error)
}

// Drain forwards every line of p to fn and waits for it to exit.
func Drain(p Process, fn func(string)) ExitStatus {
	for line := range p.Lines() {
		if fn != nil {
			fn(line)
		}
	}
	return p.Wait()
}
