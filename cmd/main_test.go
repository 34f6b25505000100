package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elskow/pypackager/internal/pipeline"
	"github.com/elskow/pypackager/internal/pipeline/builder"
	"github.com/elskow/pypackager/internal/pipeline/config"
	"github.com/elskow/pypackager/internal/pipeline/runner"
	"github.com/elskow/pypackager/internal/pipeline/runner/runnertest"
	"github.com/elskow/pypackager/internal/pipeline/validator"
)

type stubChecker struct {
	installed bool
	err       error
}

func (s stubChecker) EnsureAvailable(context.Context) (bool, error) {
	return s.installed, s.err
}

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("pypackager"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, kctx
}

func TestBuildCmd_Options(t *testing.T) {
	cli, _ := parse(t, "build", "app.py", "-F", "-w", "-i", "icon.ico", "-o", "dist",
		"--add-data", "a.txt;b.txt", "-a", "c.txt")

	opts := cli.Build.options()
	assert.True(t, opts.SingleFile)
	assert.True(t, opts.HideConsole)
	assert.Contains(t, opts.SourceFile, "app.py")
	assert.Contains(t, opts.IconFile, "icon.ico")
	assert.Contains(t, opts.OutputDir, "dist")
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, opts.ExtraFiles)
}

func newTestRunContext(t *testing.T, script runnertest.Script, checker stubChecker) (*runContext, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	logger := zap.NewNop()

	var out, errOut bytes.Buffer
	term := newTerminal(&out, &errOut)

	p := pipeline.NewPipeline(&cfg,
		builder.NewBuilderFactory(&cfg, logger),
		validator.NewScriptValidator(&cfg),
		checker,
		runnertest.New(script),
		term.dispatcher,
		nil,
		logger,
	)
	return &runContext{ctx: context.Background(), pipeline: p, checker: checker, terminal: term}, &out, &errOut
}

func TestBuildCmd_Run(t *testing.T) {
	tests := []struct {
		name     string
		cmd      BuildCmd
		script   runnertest.Script
		wantCode int
		validate func(*testing.T, string, string)
	}{
		{
			name:   "success prints output and message",
			cmd:    BuildCmd{Source: "app.py"},
			script: runnertest.Script{Lines: []string{"INFO: building", "INFO: done"}},
			validate: func(t *testing.T, out, errOut string) {
				assert.Equal(t, "INFO: building\nINFO: done\n", out)
				assert.Contains(t, errOut, "successfully packaged executable")
			},
		},
		{
			name:     "missing source",
			cmd:      BuildCmd{},
			wantCode: 2,
			validate: func(t *testing.T, out, errOut string) {
				assert.Empty(t, out)
				assert.Contains(t, errOut, "please select a script")
			},
		},
		{
			name:     "tool failure",
			cmd:      BuildCmd{Source: "app.py"},
			script:   runnertest.Script{Lines: []string{"ERROR: boom"}, Status: runner.ExitStatus{Code: 1}},
			wantCode: 1,
			validate: func(t *testing.T, out, errOut string) {
				assert.Equal(t, "ERROR: boom\n", out)
				assert.Contains(t, errOut, "exit code 1")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, out, errOut := newTestRunContext(t, tt.script, stubChecker{})

			err := tt.cmd.Run(rt)
			if tt.wantCode == 0 {
				assert.NoError(t, err)
			} else {
				var code exitCode
				require.True(t, errors.As(err, &code))
				assert.Equal(t, tt.wantCode, int(code))
			}
			tt.validate(t, out.String(), errOut.String())
		})
	}
}

func TestCheckCmd_Run(t *testing.T) {
	rt, _, errOut := newTestRunContext(t, runnertest.Script{}, stubChecker{installed: true})
	require.NoError(t, (&CheckCmd{}).Run(rt))
	assert.Contains(t, errOut.String(), "successfully installed")

	rt, _, errOut = newTestRunContext(t, runnertest.Script{}, stubChecker{err: errors.New("could not find pyinstaller")})
	err := (&CheckCmd{}).Run(rt)
	var code exitCode
	require.True(t, errors.As(err, &code))
	assert.Equal(t, 1, int(code))
	assert.Contains(t, errOut.String(), "could not find pyinstaller")
}
