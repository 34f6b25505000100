package pipeline

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/pypackager/internal/pipeline/builder"
	"github.com/elskow/pypackager/internal/pipeline/config"
	"github.com/elskow/pypackager/internal/pipeline/runner"
	"github.com/elskow/pypackager/internal/pipeline/toolcheck"
	"github.com/elskow/pypackager/internal/pipeline/validator"
)

// Params lets the composition root supply an optional Dispatcher; without
// one, callbacks run inline on the build worker.
type Params struct {
	fx.In

	Config         *config.PackagerConfig
	BuilderFactory *builder.Factory
	Validator      validator.Validator
	Checker        toolcheck.Checker
	Runner         runner.Runner
	Metrics        *MetricsCollector
	Dispatcher     Dispatcher `optional:"true"`
	Logger         *zap.Logger
}

func Module() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(config *config.PackagerConfig, logger *zap.Logger) (*builder.Factory, error) {
					return builder.NewBuilderFactory(config, logger), nil
				},
			),
			fx.Annotate(
				func(config *config.PackagerConfig) validator.Validator {
					return validator.NewScriptValidator(config)
				},
			),
			fx.Annotate(
				func(logger *zap.Logger) runner.Runner {
					// Python tools block-buffer stdout on a pipe unless told otherwise.
					return runner.NewExecRunner(logger, runner.WithEnv("PYTHONUNBUFFERED=1"))
				},
			),
			fx.Annotate(
				func(config *config.PackagerConfig, r runner.Runner, logger *zap.Logger) toolcheck.Checker {
					return toolcheck.NewToolChecker(config, r, logger)
				},
			),
			fx.Annotate(
				func() *MetricsCollector {
					return NewMetricsCollector(nil)
				},
			),
			newPipeline,
		),
	)
}

func newPipeline(p Params) *Pipeline {
	return NewPipeline(p.Config, p.BuilderFactory, p.Validator, p.Checker, p.Runner, p.Dispatcher, p.Metrics, p.Logger)
}
