package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elskow/pypackager/internal/pipeline/types"
)

// Build is the handle of one orchestration run.
type Build struct {
	ID        string
	Options   types.BuildOptions
	StartTime time.Time

	mu     sync.RWMutex
	status types.BuildStatus
	result *types.BuildResult

	cancel  context.CancelCauseFunc
	stopped atomic.Bool
	done    chan struct{}
}

func (b *Build) Status() types.BuildStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

func (b *Build) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the build finishes and returns its result.
func (b *Build) Wait() *types.BuildResult {
	<-b.done
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.result
}

// Result returns the result once the build has finished.
func (b *Build) Result() (*types.BuildResult, bool) {
	select {
	case <-b.done:
		return b.Wait(), true
	default:
		return nil, false
	}
}

// Cancel stops output forwarding and terminates the packaging process. It
// is a no-op once the build has finished.
func (b *Build) Cancel() {
	b.stopped.Store(true)
	b.cancel(errCancelled)
}

func (b *Build) setStatus(status types.BuildStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status = status
}

func (b *Build) finish(result *types.BuildResult) {
	b.mu.Lock()
	b.result = result
	switch result.Outcome {
	case types.OutcomeSuccess:
		b.status = types.BuildStatusSucceeded
	case types.OutcomeCancelled:
		b.status = types.BuildStatusCancelled
	default:
		b.status = types.BuildStatusFailed
	}
	b.mu.Unlock()
	close(b.done)
}
