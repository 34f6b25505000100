package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/elskow/pypackager/internal/pipeline/builder"
	"github.com/elskow/pypackager/internal/pipeline/config"
	"github.com/elskow/pypackager/internal/pipeline/runner"
	"github.com/elskow/pypackager/internal/pipeline/toolcheck"
	"github.com/elskow/pypackager/internal/pipeline/types"
	"github.com/elskow/pypackager/internal/pipeline/validator"
)

var (
	ErrBuildInProgress = errors.New("a build is already in progress")
	ErrBuildNotFound   = errors.New("build not found")

	errCancelled = errors.New("build cancelled")
	errTimedOut  = errors.New("build timed out")
)

// LineFunc receives one line of the packaging tool's combined output.
type LineFunc func(line string)

// Pipeline runs at most one build at a time: validate, ensure the tool,
// build the argument vector, run the tool and classify the result.
type Pipeline struct {
	config         *config.PackagerConfig
	builderFactory builder.FactoryInterface
	validator      validator.Validator
	checker        toolcheck.Checker
	runner         runner.Runner
	dispatcher     Dispatcher
	logger         *zap.Logger
	metrics        *MetricsCollector

	mu      sync.Mutex
	current *Build
}

func NewPipeline(
	config *config.PackagerConfig,
	builderFactory builder.FactoryInterface,
	validator validator.Validator,
	checker toolcheck.Checker,
	runner runner.Runner,
	dispatcher Dispatcher,
	metrics *MetricsCollector,
	logger *zap.Logger,
) *Pipeline {
	if dispatcher == nil {
		dispatcher = InlineDispatcher{}
	}
	if metrics == nil {
		metrics = NewMetricsCollector(nil)
	}
	return &Pipeline{
		config:         config,
		builderFactory: builderFactory,
		validator:      validator,
		checker:        checker,
		runner:         runner,
		dispatcher:     dispatcher,
		logger:         logger,
		metrics:        metrics,
	}
}

func (p *Pipeline) Metrics() *MetricsCollector {
	return p.metrics
}

// RunBuild starts a build and blocks until it finishes. A request made while
// another build is in flight returns an OutcomeRejected result.
func (p *Pipeline) RunBuild(ctx context.Context, opts types.BuildOptions, onLine LineFunc) *types.BuildResult {
	build, err := p.StartBuild(ctx, opts, onLine)
	if err != nil {
		return &types.BuildResult{Outcome: types.OutcomeRejected, Err: err}
	}
	return build.Wait()
}

// StartBuild launches a build on its own worker goroutine and returns
// immediately. opts is copied; the caller may reuse it.
func (p *Pipeline) StartBuild(ctx context.Context, opts types.BuildOptions, onLine LineFunc) (*Build, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && !p.current.Status().Terminal() {
		return nil, ErrBuildInProgress
	}

	buildCtx, cancel := context.WithCancelCause(ctx)
	build := &Build{
		ID:        uuid.NewString(),
		Options:   opts.Clone(),
		StartTime: time.Now(),
		status:    types.BuildStatusIdle,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	p.current = build

	go p.executeBuild(buildCtx, build, onLine)

	return build, nil
}

func (p *Pipeline) CancelBuild(buildID string) error {
	build, err := p.GetBuild(buildID)
	if err != nil {
		return err
	}

	if status := build.Status(); status.Terminal() {
		return fmt.Errorf("cannot cancel build with status: %s", status)
	}

	build.Cancel()
	return nil
}

func (p *Pipeline) GetBuild(buildID string) (*Build, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil || p.current.ID != buildID {
		return nil, fmt.Errorf("%w: %s", ErrBuildNotFound, buildID)
	}
	return p.current, nil
}

// Reset forgets the last finished build. It fails while a build is running.
func (p *Pipeline) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil && !p.current.Status().Terminal() {
		return ErrBuildInProgress
	}
	p.current = nil
	return nil
}

func (p *Pipeline) executeBuild(ctx context.Context, build *Build, onLine LineFunc) {
	// Cancelling the caller's context stops forwarding just like Build.Cancel.
	// A timeout does not; its output is kept for diagnosis.
	stopForwarding := context.AfterFunc(ctx, func() { build.stopped.Store(true) })

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.config.Timeout, errTimedOut)
		defer cancel()
	}

	p.metrics.StartBuild(build.ID)
	p.logger.Info("starting build",
		zap.String("build_id", build.ID),
		zap.String("source", build.Options.SourceFile))

	result := &types.BuildResult{BuildID: build.ID}
	func() {
		defer func() {
			if r := recover(); r != nil {
				classify(result, types.OutcomeUnexpectedFailure, fmt.Errorf("panic during build: %v", r))
			}
		}()
		p.run(ctx, build, result, onLine)
	}()

	result.Duration = time.Since(build.StartTime)

	fields := []zap.Field{
		zap.String("build_id", build.ID),
		zap.String("outcome", string(result.Outcome)),
		zap.Duration("duration", result.Duration),
	}
	if m := p.metrics.EndBuild(build.ID, result.Outcome); m != nil {
		fields = append(fields, zap.Int("lines", m.LineCount))
	}
	if result.ExitCode != nil {
		fields = append(fields, zap.Int("exit_code", *result.ExitCode))
	}
	if result.Success() {
		p.logger.Info("build finished", fields...)
	} else {
		p.logger.Error("build failed", append(fields, zap.Error(result.Err))...)
	}

	// A finished build keeps its queued callbacks unless the caller's context
	// was cancelled, then the context is released.
	if !stopForwarding() {
		build.stopped.Store(true)
	}
	build.cancel(nil)
	build.finish(result)
}

func (p *Pipeline) run(ctx context.Context, build *Build, result *types.BuildResult, onLine LineFunc) {
	build.setStatus(types.BuildStatusValidating)
	opts, err := p.validator.ValidateOptions(build.Options)
	if err != nil {
		classify(result, types.OutcomeInvalidOptions, err)
		return
	}
	for _, finding := range p.validator.Advise(opts) {
		p.logger.Warn("build option advisory",
			zap.String("build_id", build.ID),
			zap.String("finding", finding))
	}

	if ctx.Err() != nil {
		interrupted(ctx, result)
		return
	}

	build.setStatus(types.BuildStatusEnsuringTool)
	installed, err := p.checker.EnsureAvailable(ctx)
	result.Installed = installed
	var unavailable *toolcheck.ToolUnavailableError
	if installed || (errors.As(err, &unavailable) && unavailable.Reason == toolcheck.ReasonInstallFailed) {
		p.metrics.ObserveInstall(installed)
	}
	if ctx.Err() != nil {
		interrupted(ctx, result)
		return
	}
	if err != nil {
		classify(result, types.OutcomeToolMissingAndInstallFailed, err)
		return
	}

	build.setStatus(types.BuildStatusBuilding)
	cmdBuilder, err := p.builderFactory.CreateBuilder(p.config.Tool)
	if err != nil {
		classify(result, types.OutcomeUnexpectedFailure, fmt.Errorf("failed to create command builder: %w", err))
		return
	}
	args := cmdBuilder.Build(opts)
	result.Command = append([]string{p.config.Tool}, args...)

	p.logger.Info("running packaging tool",
		zap.String("build_id", build.ID),
		zap.String("command", runner.FormatCommand(p.config.Tool, args)))

	proc, err := p.runner.Start(ctx, p.config.Tool, args...)
	if err != nil {
		var launchErr *runner.LaunchError
		switch {
		case ctx.Err() != nil:
			interrupted(ctx, result)
		case errors.As(err, &launchErr):
			classify(result, types.OutcomeProcessLaunchFailed, err)
		default:
			classify(result, types.OutcomeUnexpectedFailure, err)
		}
		return
	}
	// Reaps the child even when a callback panics; a no-op after Wait.
	defer proc.Close()

	for line := range proc.Lines() {
		if build.stopped.Load() {
			break
		}
		result.OutputLines = append(result.OutputLines, line)
		p.metrics.ObserveLine(build.ID)
		p.logger.Debug("tool output", zap.String("build_id", build.ID), zap.String("line", line))
		if onLine != nil {
			p.dispatcher.Dispatch(func() {
				if !build.stopped.Load() {
					onLine(line)
				}
			})
		}
	}

	if ctx.Err() != nil {
		_ = proc.Close()
	}
	status := proc.Wait()
	code := status.Code
	result.ExitCode = &code

	switch {
	case ctx.Err() != nil:
		interrupted(ctx, result)
	case status.Err != nil:
		classify(result, types.OutcomeUnexpectedFailure, status.Err)
	case status.Killed || code < 0:
		classify(result, types.OutcomeUnexpectedFailure, fmt.Errorf("packaging tool was terminated"))
	case code == 0:
		classify(result, types.OutcomeSuccess, nil)
	default:
		classify(result, types.OutcomeNonZeroExit, fmt.Errorf("%s exited with code %d", p.config.Tool, code))
	}
}

func classify(result *types.BuildResult, outcome types.Outcome, err error) {
	result.Outcome = outcome
	result.Err = err
}

// interrupted distinguishes an exceeded deadline from a cancellation.
func interrupted(ctx context.Context, result *types.BuildResult) {
	cause := context.Cause(ctx)
	if errors.Is(cause, errTimedOut) {
		classify(result, types.OutcomeUnexpectedFailure, cause)
		return
	}
	classify(result, types.OutcomeCancelled, errCancelled)
}
