package app

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/elskow/pypackager/internal/config"
)

// NewLogger builds the process logger for env. level and encoding override
// the environment defaults when set.
func NewLogger(env string, logCfg config.LogConfig) (*zap.Logger, error) {
	var zc zap.Config
	switch env {
	case config.EnvTesting:
		return zap.NewNop(), nil
	case config.EnvProduction:
		zc = zap.NewProductionConfig()
	default:
		zc = zap.NewDevelopmentConfig()
	}

	if logCfg.Level != "" {
		level, err := zapcore.ParseLevel(logCfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", logCfg.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	if logCfg.Encoding != "" {
		zc.Encoding = logCfg.Encoding
	}
	// Tool output goes to stdout; keep diagnostics off it.
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}
