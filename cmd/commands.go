package main

import (
	"github.com/elskow/pypackager/internal/pipeline/types"
)

type BuildCmd struct {
	Source    string   `arg:"" optional:"" help:"Python script to package" type:"path"`
	Icon      string   `short:"i" help:"Icon file for the executable" type:"path"`
	DistPath  string   `short:"o" name:"distpath" help:"Output directory for build artifacts" type:"path"`
	AddData   []string `short:"a" name:"add-data" sep:";" help:"Additional file to bundle (repeatable, or a ';'-separated list)"`
	OneFile   bool     `short:"F" name:"onefile" help:"Bundle into a single executable file"`
	NoConsole bool     `short:"w" name:"noconsole" help:"Do not open a console window for the executable"`
}

func (b *BuildCmd) options() types.BuildOptions {
	return types.BuildOptions{
		SourceFile:  b.Source,
		IconFile:    b.Icon,
		OutputDir:   b.DistPath,
		ExtraFiles:  b.AddData,
		SingleFile:  b.OneFile,
		HideConsole: b.NoConsole,
	}
}

func (b *BuildCmd) Run(rt *runContext) error {
	rt.terminal.Start("packaging " + b.Source)
	result := rt.pipeline.RunBuild(rt.ctx, b.options(), rt.terminal.Line)
	rt.terminal.Finish(result)

	switch result.Outcome {
	case types.OutcomeSuccess:
		return nil
	case types.OutcomeCancelled:
		return exitCode(130)
	case types.OutcomeInvalidOptions:
		return exitCode(2)
	default:
		return exitCode(1)
	}
}

type CheckCmd struct{}

func (c *CheckCmd) Run(rt *runContext) error {
	installed, err := rt.checker.EnsureAvailable(rt.ctx)
	if err != nil {
		rt.terminal.Failure(err.Error())
		return exitCode(1)
	}
	if installed {
		rt.terminal.Success("packaging tool has been successfully installed")
	} else {
		rt.terminal.Success("packaging tool is available")
	}
	return nil
}
