package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/elskow/pypackager/internal/app"
	"github.com/elskow/pypackager/internal/pipeline"
	"github.com/elskow/pypackager/internal/pipeline/toolcheck"
)

type CLI struct {
	Config      string        `short:"c" help:"Configuration file path (TOML)" type:"path"`
	Verbose     bool          `short:"v" help:"Enable verbose logging"`
	Timeout     time.Duration `help:"Abort the build after this long (0 disables)"`
	MetricsFile string        `name:"metrics-file" help:"Write Prometheus metrics to this file on exit" type:"path"`

	Build BuildCmd `cmd:"" help:"Package a script into a standalone executable"`
	Check CheckCmd `cmd:"" help:"Check that the packaging tool is available, installing it if needed"`
}

// runContext carries the wired components into command Run methods.
type runContext struct {
	ctx      context.Context
	pipeline *pipeline.Pipeline
	checker  toolcheck.Checker
	terminal *terminal
}

// exitCode lets a command choose the process exit status.
type exitCode int

func (c exitCode) Error() string {
	return fmt.Sprintf("exit status %d", int(c))
}

func main() {
	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", "development")
	}

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("pypackager"),
		kong.Description("Package a Python script into a standalone executable."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	term := newTerminal(os.Stdout, os.Stderr)

	rt := &runContext{ctx: ctx, terminal: term}
	fxApp := fx.New(
		app.Module(app.Options{
			ConfigPath:  cli.Config,
			Verbose:     cli.Verbose,
			Timeout:     cli.Timeout,
			MetricsFile: cli.MetricsFile,
		}),
		fx.Provide(func() pipeline.Dispatcher { return term.dispatcher }),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: log}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Populate(&rt.pipeline, &rt.checker),
	)
	if err := fxApp.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start: %v\n", err)
		os.Exit(1)
	}

	runErr := kctx.Run(rt)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer stopCancel()
	_ = fxApp.Stop(stopCtx)

	if runErr != nil {
		var code exitCode
		if errors.As(runErr, &code) {
			os.Exit(int(code))
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
