package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zapcore"

	"github.com/elskow/pypackager/internal/config"
	"github.com/elskow/pypackager/internal/pipeline"
	pipelineconfig "github.com/elskow/pypackager/internal/pipeline/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		logCfg   config.LogConfig
		validate func(*testing.T, error, func(zapcore.Level) bool)
	}{
		{
			name: "development defaults to debug",
			env:  config.EnvDevelopment,
			validate: func(t *testing.T, err error, enabled func(zapcore.Level) bool) {
				require.NoError(t, err)
				assert.True(t, enabled(zapcore.DebugLevel))
			},
		},
		{
			name: "production defaults to info",
			env:  config.EnvProduction,
			validate: func(t *testing.T, err error, enabled func(zapcore.Level) bool) {
				require.NoError(t, err)
				assert.False(t, enabled(zapcore.DebugLevel))
				assert.True(t, enabled(zapcore.InfoLevel))
			},
		},
		{
			name:   "explicit level wins",
			env:    config.EnvDevelopment,
			logCfg: config.LogConfig{Level: "error", Encoding: "json"},
			validate: func(t *testing.T, err error, enabled func(zapcore.Level) bool) {
				require.NoError(t, err)
				assert.False(t, enabled(zapcore.WarnLevel))
				assert.True(t, enabled(zapcore.ErrorLevel))
			},
		},
		{
			name: "testing is silent",
			env:  config.EnvTesting,
			validate: func(t *testing.T, err error, enabled func(zapcore.Level) bool) {
				require.NoError(t, err)
				assert.False(t, enabled(zapcore.ErrorLevel))
			},
		},
		{
			name:   "invalid level",
			env:    config.EnvDevelopment,
			logCfg: config.LogConfig{Level: "loud"},
			validate: func(t *testing.T, err error, _ func(zapcore.Level) bool) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid log level")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewLogger(tt.env, tt.logCfg)
			enabled := func(zapcore.Level) bool { return false }
			if logger != nil {
				enabled = logger.Core().Enabled
			}
			tt.validate(t, err, enabled)
		})
	}
}

func TestModule_Validates(t *testing.T) {
	err := fx.ValidateApp(Module(Options{}), fx.NopLogger)
	assert.NoError(t, err)
}

func TestModule_AppliesCommandLineOverrides(t *testing.T) {
	t.Setenv("APP_ENV", config.EnvTesting)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[packager]\nauto_install = false\n"), 0o600))
	metricsPath := filepath.Join(dir, "metrics.prom")

	var (
		cfg *pipelineconfig.PackagerConfig
		p   *pipeline.Pipeline
	)
	app := fxtest.New(t,
		Module(Options{
			ConfigPath:  cfgPath,
			Verbose:     true,
			Timeout:     time.Minute,
			MetricsFile: metricsPath,
		}),
		fx.NopLogger,
		fx.Populate(&cfg, &p),
	)
	app.RequireStart()

	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.False(t, cfg.AutoInstall)
	require.NotNil(t, p)

	app.RequireStop()

	data, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "pypackager_build_duration_seconds_count 0")
}
