package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gookit/color"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/elskow/pypackager/internal/pipeline"
	"github.com/elskow/pypackager/internal/pipeline/types"
)

// terminal is the display surface: output lines and the spinner are only
// touched from the dispatcher goroutine.
type terminal struct {
	out        io.Writer
	errOut     io.Writer
	dispatcher *pipeline.SerialDispatcher
	bar        *progressbar.ProgressBar
	tty        bool
}

func newTerminal(out, errOut io.Writer) *terminal {
	tty := false
	if f, ok := errOut.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &terminal{
		out:        out,
		errOut:     errOut,
		dispatcher: pipeline.NewSerialDispatcher(256),
		tty:        tty,
	}
}

func (t *terminal) Start(description string) {
	if !t.tty {
		return
	}
	t.dispatcher.Dispatch(func() {
		t.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(t.errOut),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetDescription(description),
			progressbar.OptionClearOnFinish(),
		)
		_ = t.bar.RenderBlank()
	})
}

// Line runs on the dispatcher goroutine.
func (t *terminal) Line(line string) {
	if t.bar != nil {
		_ = t.bar.Clear()
	}
	fmt.Fprintln(t.out, line)
	if t.bar != nil {
		_ = t.bar.Add(1)
	}
}

// Finish shows the final status and waits for queued output to be written.
func (t *terminal) Finish(result *types.BuildResult) {
	t.dispatcher.Dispatch(func() {
		t.stopSpinner()
		if result.Installed {
			t.printSuccess("packaging tool has been successfully installed")
		}
		if result.Success() {
			t.printSuccess(result.Message())
			return
		}
		t.printFailure(result.Message())
	})
	t.dispatcher.Close()
}

func (t *terminal) Success(msg string) {
	t.dispatcher.Dispatch(func() { t.printSuccess(msg) })
	t.dispatcher.Close()
}

func (t *terminal) Failure(msg string) {
	t.dispatcher.Dispatch(func() { t.printFailure(msg) })
	t.dispatcher.Close()
}

func (t *terminal) stopSpinner() {
	if t.bar != nil {
		_ = t.bar.Finish()
		t.bar = nil
	}
}

func (t *terminal) printSuccess(msg string) {
	fmt.Fprintln(t.errOut, color.Success.Sprint("✔ "+msg))
}

func (t *terminal) printFailure(msg string) {
	fmt.Fprintln(t.errOut, color.Error.Sprint("✘ "+msg))
}
