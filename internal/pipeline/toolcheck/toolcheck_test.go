package toolcheck

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elskow/pypackager/internal/pipeline/config"
	"github.com/elskow/pypackager/internal/pipeline/runner"
	"github.com/elskow/pypackager/internal/pipeline/runner/runnertest"
)

func testConfig() *config.PackagerConfig {
	return &config.PackagerConfig{
		Tool:           "pyinstaller",
		VersionArgs:    []string{"--version"},
		InstallCommand: []string{"python3", "-m", "pip", "install", "pyinstaller"},
		AutoInstall:    true,
	}
}

func notFound() runnertest.Script {
	return runnertest.Script{StartErr: &runner.LaunchError{Command: "pyinstaller --version", Err: exec.ErrNotFound}}
}

func TestToolChecker_EnsureAvailable(t *testing.T) {
	tests := []struct {
		name     string
		config   func(*config.PackagerConfig)
		setup    func(*runnertest.Runner)
		validate func(*testing.T, *runnertest.Runner, bool, error)
	}{
		{
			name: "tool already available",
			setup: func(r *runnertest.Runner) {
				r.On("pyinstaller", runnertest.Script{Lines: []string{"6.3.0"}})
			},
			validate: func(t *testing.T, r *runnertest.Runner, installed bool, err error) {
				assert.NoError(t, err)
				assert.False(t, installed)
				calls := r.Calls()
				require.Len(t, calls, 1)
				assert.Equal(t, "pyinstaller --version", calls[0].String())
			},
		},
		{
			name: "missing tool is installed",
			setup: func(r *runnertest.Runner) {
				r.On("pyinstaller", notFound())
				r.On("python3", runnertest.Script{Lines: []string{"Successfully installed pyinstaller-6.3.0"}})
			},
			validate: func(t *testing.T, r *runnertest.Runner, installed bool, err error) {
				assert.NoError(t, err)
				assert.True(t, installed)
				calls := r.Calls()
				require.Len(t, calls, 2)
				assert.Equal(t, "python3 -m pip install pyinstaller", calls[1].String())
			},
		},
		{
			name: "probe exits non-zero then install fails",
			setup: func(r *runnertest.Runner) {
				r.On("pyinstaller", runnertest.Script{Status: runner.ExitStatus{Code: 127}})
				r.On("python3", runnertest.Script{
					Lines:  []string{"ERROR: Could not find a version that satisfies the requirement"},
					Status: runner.ExitStatus{Code: 1},
				})
			},
			validate: func(t *testing.T, r *runnertest.Runner, installed bool, err error) {
				require.Error(t, err)
				assert.False(t, installed)

				var unavailable *ToolUnavailableError
				require.True(t, errors.As(err, &unavailable))
				assert.Equal(t, ReasonInstallFailed, unavailable.Reason)
				assert.Contains(t, err.Error(), "please install it manually")
				assert.Contains(t, err.Error(), "exited with code 1")
			},
		},
		{
			name: "installer cannot be launched",
			setup: func(r *runnertest.Runner) {
				r.On("pyinstaller", notFound())
				r.On("python3", runnertest.Script{StartErr: &runner.LaunchError{Command: "python3", Err: exec.ErrNotFound}})
			},
			validate: func(t *testing.T, r *runnertest.Runner, installed bool, err error) {
				var unavailable *ToolUnavailableError
				require.True(t, errors.As(err, &unavailable))
				assert.Equal(t, ReasonInstallFailed, unavailable.Reason)
				assert.ErrorIs(t, err, exec.ErrNotFound)
			},
		},
		{
			name: "auto install disabled",
			config: func(c *config.PackagerConfig) {
				c.AutoInstall = false
			},
			setup: func(r *runnertest.Runner) {
				r.On("pyinstaller", notFound())
			},
			validate: func(t *testing.T, r *runnertest.Runner, installed bool, err error) {
				var unavailable *ToolUnavailableError
				require.True(t, errors.As(err, &unavailable))
				assert.Equal(t, ReasonNotFound, unavailable.Reason)
				assert.Contains(t, err.Error(), "could not find pyinstaller")
				assert.Len(t, r.Calls(), 1)
			},
		},
		{
			name: "no install command configured",
			config: func(c *config.PackagerConfig) {
				c.InstallCommand = nil
			},
			setup: func(r *runnertest.Runner) {
				r.On("pyinstaller", notFound())
			},
			validate: func(t *testing.T, r *runnertest.Runner, installed bool, err error) {
				var unavailable *ToolUnavailableError
				require.True(t, errors.As(err, &unavailable))
				assert.Equal(t, ReasonNotFound, unavailable.Reason)
			},
		},
		{
			name: "killed probe is reported",
			config: func(c *config.PackagerConfig) {
				c.AutoInstall = false
			},
			setup: func(r *runnertest.Runner) {
				r.On("pyinstaller", runnertest.Script{Status: runner.ExitStatus{Code: -1, Killed: true}})
			},
			validate: func(t *testing.T, r *runnertest.Runner, installed bool, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "process was terminated")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.config != nil {
				tt.config(cfg)
			}
			r := runnertest.New(runnertest.Script{})
			tt.setup(r)

			checker := NewToolChecker(cfg, r, zap.NewNop())
			installed, err := checker.EnsureAvailable(context.Background())

			tt.validate(t, r, installed, err)
		})
	}
}
