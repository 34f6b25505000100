package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/elskow/pypackager/internal/pipeline/config"
	"github.com/elskow/pypackager/internal/pipeline/types"
)

type InvalidOptionsError struct {
	Field  string
	Reason string
}

func (e *InvalidOptionsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ScriptValidator checks requests for script packaging tools. Existence and
// extension checks are advisory: a missing source file surfaces later as a
// packaging failure, not as a rejected request.
type ScriptValidator struct {
	extensions []string
	stat       func(string) (os.FileInfo, error)
}

func NewScriptValidator(cfg *config.PackagerConfig) *ScriptValidator {
	exts := cfg.ScriptExtensions
	if len(exts) == 0 {
		exts = config.Default().ScriptExtensions
	}
	return &ScriptValidator{
		extensions: exts,
		stat:       os.Stat,
	}
}

func (v *ScriptValidator) ValidateOptions(opts types.BuildOptions) (types.BuildOptions, error) {
	out := opts.Clone()
	out.SourceFile = strings.TrimSpace(out.SourceFile)
	out.IconFile = strings.TrimSpace(out.IconFile)
	out.OutputDir = strings.TrimSpace(out.OutputDir)

	if out.SourceFile == "" {
		return types.BuildOptions{}, &InvalidOptionsError{Field: "source_file", Reason: "please select a script to package"}
	}

	// Drop blank entries so they never render as empty arguments.
	var extra []string
	for _, f := range out.ExtraFiles {
		if f = strings.TrimSpace(f); f != "" {
			extra = append(extra, f)
		}
	}
	out.ExtraFiles = extra

	return out, nil
}

func (v *ScriptValidator) Advise(opts types.BuildOptions) []string {
	var findings []string

	if opts.SourceFile != "" {
		if !v.hasScriptExtension(opts.SourceFile) {
			findings = append(findings, fmt.Sprintf("source file %q does not have a recognized script extension (%s)",
				opts.SourceFile, strings.Join(v.extensions, ", ")))
		}
		if info, err := v.stat(opts.SourceFile); err != nil {
			findings = append(findings, fmt.Sprintf("source file %q is not accessible: %v", opts.SourceFile, err))
		} else if info.IsDir() {
			findings = append(findings, fmt.Sprintf("source file %q is a directory", opts.SourceFile))
		}
	}

	if opts.IconFile != "" {
		if _, err := v.stat(opts.IconFile); err != nil {
			findings = append(findings, fmt.Sprintf("icon file %q is not accessible: %v", opts.IconFile, err))
		}
	}

	for _, f := range opts.ExtraFiles {
		if _, err := v.stat(f); err != nil {
			findings = append(findings, fmt.Sprintf("extra file %q is not accessible: %v", f, err))
		}
	}

	return findings
}

func (v *ScriptValidator) hasScriptExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range v.extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
