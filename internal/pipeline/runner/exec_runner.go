package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"go.uber.org/zap"
)

const (
	initialLineBuffer = 64 * 1024
	maxLineSize       = 1024 * 1024
)

type ExecRunner struct {
	logger   *zap.Logger
	env      []string
	dir      string
	lookPath func(string) (string, error)
}

type Option func(*ExecRunner)

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) Option {
	return func(r *ExecRunner) {
		r.env = append(r.env, env...)
	}
}

func WithDir(dir string) Option {
	return func(r *ExecRunner) {
		r.dir = dir
	}
}

func NewExecRunner(logger *zap.Logger, opts ...Option) *ExecRunner {
	r := &ExecRunner{
		logger:   logger,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *ExecRunner) Start(ctx context.Context, name string, args ...string) (Process, error) {
	display := FormatCommand(name, args)

	if err := ctx.Err(); err != nil {
		return nil, &LaunchError{Command: display, Err: err}
	}

	path, err := r.lookPath(name)
	if err != nil {
		return nil, &LaunchError{Command: display, Err: err}
	}

	// Both streams share one pipe so the child's interleaving is preserved.
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, &LaunchError{Command: display, Err: fmt.Errorf("failed to create output pipe: %w", err)}
	}

	// #nosec G204 -- argument vector, no shell involved
	cmd := exec.Command(path, args...)
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.Dir = r.dir
	if len(r.env) > 0 {
		cmd.Env = append(os.Environ(), r.env...)
	}
	prepareProcessGroup(cmd)

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, &LaunchError{Command: display, Err: err}
	}
	// The child holds its own copy; closing ours lets the reader see EOF.
	pw.Close()

	group, err := attachProcessGroup(cmd)
	if err != nil {
		r.logger.Debug("process group unavailable, cancellation reaches only the child",
			zap.Int("pid", cmd.Process.Pid),
			zap.Error(err))
	}

	r.logger.Debug("process started",
		zap.String("command", display),
		zap.Int("pid", cmd.Process.Pid))

	p := &execProcess{
		cmd:    cmd,
		group:  group,
		output: pr,
		logger: r.logger,
		lines:  make(chan string),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go p.pump()
	go p.watch(ctx)

	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	group  *processGroup
	output io.ReadCloser
	logger *zap.Logger

	lines    chan string
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu     sync.Mutex
	reaped bool
	killed bool
	status ExitStatus
}

func (p *execProcess) Lines() <-chan string {
	return p.lines
}

func (p *execProcess) Wait() ExitStatus {
	p.stopForwarding()
	<-p.done
	return p.status
}

func (p *execProcess) Close() error {
	p.terminate()
	<-p.done
	return nil
}

func (p *execProcess) stopForwarding() {
	p.stopOnce.Do(func() { close(p.stop) })
}

func (p *execProcess) pump() {
	defer close(p.done)

	scanner := bufio.NewScanner(p.output)
	scanner.Buffer(make([]byte, initialLineBuffer), maxLineSize)

	forwarding := true
	for scanner.Scan() {
		if !forwarding {
			continue
		}
		select {
		case p.lines <- scanner.Text():
		case <-p.stop:
			forwarding = false
		}
	}
	readErr := scanner.Err()
	close(p.lines)

	if readErr != nil {
		// Keep the pipe empty so the child cannot block on a write.
		_, _ = io.Copy(io.Discard, p.output)
		readErr = fmt.Errorf("failed to read process output: %w", readErr)
	}
	p.output.Close()

	waitErr := p.cmd.Wait()

	p.mu.Lock()
	p.reaped = true
	p.status = exitStatus(waitErr, readErr, p.killed)
	p.group.release()
	p.mu.Unlock()

	p.logger.Debug("process exited",
		zap.Int("pid", p.cmd.Process.Pid),
		zap.Int("exit_code", p.status.Code),
		zap.Bool("killed", p.status.Killed))
}

func (p *execProcess) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		p.terminate()
	case <-p.done:
	}
}

func (p *execProcess) terminate() {
	p.stopForwarding()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reaped {
		return
	}
	p.killed = true
	if err := p.group.kill(); err != nil {
		p.logger.Debug("failed to kill process group",
			zap.Int("pid", p.cmd.Process.Pid),
			zap.Error(err))
	}
}

func exitStatus(waitErr, readErr error, killed bool) ExitStatus {
	status := ExitStatus{Killed: killed, Err: readErr}
	if waitErr == nil {
		return status
	}

	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		status.Code = exitErr.ExitCode()
		return status
	}

	status.Code = -1
	if status.Err == nil {
		status.Err = fmt.Errorf("failed to wait for process: %w", waitErr)
	}
	return status
}
