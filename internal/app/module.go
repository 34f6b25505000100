package app

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/pypackager/internal/config"
	"github.com/elskow/pypackager/internal/pipeline"
	pipelineconfig "github.com/elskow/pypackager/internal/pipeline/config"
)

// Options are the startup settings that come from the command line.
type Options struct {
	ConfigPath  string
	Verbose     bool
	Timeout     time.Duration
	MetricsFile string
}

// Module combines all application modules
func Module(opts Options) fx.Option {
	return fx.Options(
		fx.Supply(opts),

		// Configuration
		fx.Provide(newConfig),
		fx.Provide(func(cfg *config.AppConfig) *pipelineconfig.PackagerConfig {
			return &cfg.Packager
		}),

		// Logger
		fx.Provide(newLogger),

		// Build pipeline
		pipeline.Module(),

		fx.Invoke(registerHooks),
	)
}

func newConfig(opts Options) (*config.AppConfig, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	if opts.Timeout > 0 {
		cfg.Packager.Timeout = opts.Timeout
	}
	if opts.MetricsFile != "" {
		cfg.Packager.MetricsFile = opts.MetricsFile
	}
	return cfg, nil
}

func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	return NewLogger(cfg.Env, cfg.Log)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	cfg *pipelineconfig.PackagerConfig,
	metrics *pipeline.MetricsCollector,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Debug("packager ready",
				zap.String("tool", cfg.Tool),
				zap.Bool("auto_install", cfg.AutoInstall),
				zap.String("data_separator", cfg.Separator()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if cfg.MetricsFile != "" {
				if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
					log.Error("failed to write metrics file",
						zap.String("path", cfg.MetricsFile),
						zap.Error(err))
				}
			}
			_ = log.Sync()
			return nil
		},
	})
}
