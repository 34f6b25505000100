package builder

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/elskow/pypackager/internal/pipeline/config"
	"github.com/elskow/pypackager/internal/pipeline/types"
)

const (
	FlagOneFile   = "--onefile"
	FlagNoConsole = "--noconsole"
	FlagIcon      = "--icon"
	FlagAddData   = "--add-data"
	FlagDistPath  = "--distpath"
)

type PyInstallerBuilder struct {
	separator string
}

func NewPyInstallerBuilder(separator string) *PyInstallerBuilder {
	if separator == "" {
		separator = config.HostSeparator(runtime.GOOS)
	}
	return &PyInstallerBuilder{separator: separator}
}

func (b *PyInstallerBuilder) Tool() string {
	return config.DefaultTool
}

// Build emits flags in a fixed order: onefile, noconsole, icon, add-data,
// distpath, then the source file as the last positional argument. Values are
// attached with "=" so each flag is a single argv token.
func (b *PyInstallerBuilder) Build(opts types.BuildOptions) []string {
	args := make([]string, 0, 6)

	if opts.SingleFile {
		args = append(args, FlagOneFile)
	}
	if opts.HideConsole {
		args = append(args, FlagNoConsole)
	}
	if opts.IconFile != "" {
		args = append(args, FlagIcon+"="+opts.IconFile)
	}
	if extra := nonEmpty(opts.ExtraFiles); len(extra) > 0 {
		args = append(args, FlagAddData+"="+strings.Join(extra, b.separator))
	}
	if opts.OutputDir != "" {
		args = append(args, FlagDistPath+"="+opts.OutputDir)
	}

	return append(args, positional(opts.SourceFile))
}

// positional keeps a path that starts with "-" from being parsed as a flag.
func positional(path string) string {
	if strings.HasPrefix(path, "-") {
		return "." + string(filepath.Separator) + path
	}
	return path
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
