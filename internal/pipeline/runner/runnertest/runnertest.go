// Package runnertest provides a scripted runner.Runner for tests that must
// not spawn real processes.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/elskow/pypackager/internal/pipeline/runner"
)

// Script describes how a fake process behaves.
type Script struct {
	Lines    []string
	Status   runner.ExitStatus
	StartErr error
	// Block keeps the process alive after its lines until it is killed
	// or its context is cancelled.
	Block bool
}

type Call struct {
	Name string
	Args []string
}

func (c Call) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Runner answers Start with the Script registered for the executable name,
// falling back to Default.
type Runner struct {
	Default Script

	mu        sync.Mutex
	scripts   map[string]Script
	calls     []Call
	processes []*Process
}

func New(def Script) *Runner {
	return &Runner{Default: def, scripts: make(map[string]Script)}
}

func (r *Runner) On(name string, s Script) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts[name] = s
	return r
}

func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Processes returns the processes started so far, in start order.
func (r *Runner) Processes() []*Process {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Process(nil), r.processes...)
}

func (r *Runner) Called() bool {
	return len(r.Calls()) > 0
}

func (r *Runner) Start(ctx context.Context, name string, args ...string) (runner.Process, error) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Name: name, Args: append([]string(nil), args...)})
	s, ok := r.scripts[name]
	if !ok {
		s = r.Default
	}
	r.mu.Unlock()

	if s.StartErr != nil {
		return nil, s.StartErr
	}

	p := &Process{
		script: s,
		lines:  make(chan string),
		stop:   make(chan struct{}),
		kill:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	r.mu.Lock()
	r.processes = append(r.processes, p)
	r.mu.Unlock()

	go p.run(ctx)
	return p, nil
}

type Process struct {
	script Script

	lines    chan string
	stop     chan struct{}
	stopOnce sync.Once
	kill     chan struct{}
	killOnce sync.Once
	done     chan struct{}

	mu     sync.Mutex
	killed bool
}

func (p *Process) Lines() <-chan string {
	return p.lines
}

func (p *Process) Wait() runner.ExitStatus {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done

	status := p.script.Status
	p.mu.Lock()
	if p.killed {
		status.Killed = true
		status.Code = -1
	}
	p.mu.Unlock()
	return status
}

// Exited reports whether the process has finished and been reaped.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Process) Close() error {
	p.terminate()
	p.Wait()
	return nil
}

func (p *Process) terminate() {
	p.mu.Lock()
	p.killed = true
	p.mu.Unlock()
	p.killOnce.Do(func() { close(p.kill) })
}

func (p *Process) run(ctx context.Context) {
	defer close(p.done)

	forwarding := true
	for _, line := range p.script.Lines {
		if !forwarding {
			break
		}
		select {
		case p.lines <- line:
		case <-p.stop:
			forwarding = false
		case <-p.kill:
			forwarding = false
		case <-ctx.Done():
			p.terminate()
			forwarding = false
		}
	}
	close(p.lines)

	if p.script.Block {
		select {
		case <-p.kill:
		case <-ctx.Done():
			p.terminate()
		}
	}
}
