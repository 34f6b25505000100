package toolcheck

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/elskow/pypackager/internal/pipeline/config"
	"github.com/elskow/pypackager/internal/pipeline/runner"
)

type Reason string

const (
	ReasonNotFound      Reason = "not_found"
	ReasonInstallFailed Reason = "install_failed"
)

type ToolUnavailableError struct {
	Tool   string
	Reason Reason
	Err    error
}

func (e *ToolUnavailableError) Error() string {
	switch e.Reason {
	case ReasonInstallFailed:
		return fmt.Sprintf("could not install %s, please install it manually: %v", e.Tool, e.Err)
	default:
		return fmt.Sprintf("could not find %s: %v", e.Tool, e.Err)
	}
}

func (e *ToolUnavailableError) Unwrap() error {
	return e.Err
}

// Checker gates a build on the packaging tool being callable.
type Checker interface {
	// EnsureAvailable probes the tool and installs it when missing. installed
	// reports whether an install ran and succeeded.
	EnsureAvailable(ctx context.Context) (installed bool, err error)
}

// ToolChecker probes with a version query and falls back to the configured
// installer. The sequence is not atomic; two concurrent callers may both
// install, which the package installer tolerates.
type ToolChecker struct {
	config *config.PackagerConfig
	runner runner.Runner
	logger *zap.Logger
}

func NewToolChecker(config *config.PackagerConfig, r runner.Runner, logger *zap.Logger) *ToolChecker {
	return &ToolChecker{
		config: config,
		runner: r,
		logger: logger,
	}
}

func (c *ToolChecker) EnsureAvailable(ctx context.Context) (bool, error) {
	probeErr := c.probe(ctx)
	if probeErr == nil {
		return false, nil
	}

	c.logger.Warn("packaging tool unavailable",
		zap.String("tool", c.config.Tool),
		zap.Error(probeErr))

	if !c.config.AutoInstall || len(c.config.InstallCommand) == 0 {
		return false, &ToolUnavailableError{Tool: c.config.Tool, Reason: ReasonNotFound, Err: probeErr}
	}

	if err := c.install(ctx); err != nil {
		return false, &ToolUnavailableError{Tool: c.config.Tool, Reason: ReasonInstallFailed, Err: err}
	}

	c.logger.Info("packaging tool installed", zap.String("tool", c.config.Tool))
	return true, nil
}

func (c *ToolChecker) probe(ctx context.Context) error {
	p, err := c.runner.Start(ctx, c.config.Tool, c.config.VersionArgs...)
	if err != nil {
		return err
	}

	var version string
	status := runner.Drain(p, func(line string) {
		if version == "" {
			version = strings.TrimSpace(line)
		}
	})
	if !status.Success() {
		return describe(status)
	}

	c.logger.Debug("packaging tool found",
		zap.String("tool", c.config.Tool),
		zap.String("version", version))
	return nil
}

// install trusts the installer's exit code; the tool is not re-probed.
func (c *ToolChecker) install(ctx context.Context) error {
	name, args := c.config.InstallCommand[0], c.config.InstallCommand[1:]
	c.logger.Info("installing packaging tool",
		zap.String("command", runner.FormatCommand(name, args)))

	p, err := c.runner.Start(ctx, name, args...)
	if err != nil {
		return err
	}

	status := runner.Drain(p, func(line string) {
		c.logger.Debug("installer output", zap.String("line", line))
	})
	if !status.Success() {
		return describe(status)
	}
	return nil
}

func describe(status runner.ExitStatus) error {
	switch {
	case status.Err != nil:
		return status.Err
	case status.Killed:
		return fmt.Errorf("process was terminated")
	default:
		return fmt.Errorf("exited with code %d", status.Code)
	}
}
