//go:build windows

package runner

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// processGroup is a job object holding the child. Processes the child
// creates join the job, so terminating it also ends the tool's helpers.
// Helpers started before the child is assigned escape the job.
type processGroup struct {
	job     windows.Handle
	process *os.Process
}

func prepareProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

// attachProcessGroup always returns a usable group; without a job object it
// falls back to killing only the child.
func attachProcessGroup(cmd *exec.Cmd) (*processGroup, error) {
	g := &processGroup{process: cmd.Process}

	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return g, fmt.Errorf("failed to create job object: %w", err)
	}

	h, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(cmd.Process.Pid))
	if err != nil {
		windows.CloseHandle(job)
		return g, fmt.Errorf("failed to open process: %w", err)
	}
	defer windows.CloseHandle(h)

	if err := windows.AssignProcessToJobObject(job, h); err != nil {
		windows.CloseHandle(job)
		return g, fmt.Errorf("failed to assign process to job object: %w", err)
	}

	g.job = job
	return g, nil
}

func (g *processGroup) kill() error {
	if g.job != 0 {
		return windows.TerminateJobObject(g.job, 1)
	}
	err := g.process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (g *processGroup) release() {
	if g.job != 0 {
		windows.CloseHandle(g.job)
		g.job = 0
	}
}
