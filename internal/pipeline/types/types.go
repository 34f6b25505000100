package types

import (
	"fmt"
	"time"
)

type BuildStatus string

const (
	BuildStatusIdle         BuildStatus = "idle"
	BuildStatusValidating   BuildStatus = "validating"
	BuildStatusEnsuringTool BuildStatus = "ensuring_tool"
	BuildStatusBuilding     BuildStatus = "building"
	BuildStatusSucceeded    BuildStatus = "succeeded"
	BuildStatusFailed       BuildStatus = "failed"
	BuildStatusCancelled    BuildStatus = "cancelled"
)

// Terminal reports whether no further transitions can happen from s.
func (s BuildStatus) Terminal() bool {
	switch s {
	case BuildStatusSucceeded, BuildStatusFailed, BuildStatusCancelled:
		return true
	}
	return false
}

type Outcome string

const (
	OutcomeSuccess                     Outcome = "success"
	OutcomeToolMissingAndInstallFailed Outcome = "tool_missing_and_install_failed"
	OutcomeInvalidOptions              Outcome = "invalid_options"
	OutcomeProcessLaunchFailed         Outcome = "process_launch_failed"
	OutcomeNonZeroExit                 Outcome = "non_zero_exit"
	OutcomeUnexpectedFailure           Outcome = "unexpected_failure"
	OutcomeCancelled                   Outcome = "cancelled"
	OutcomeRejected                    Outcome = "rejected"
)

// BuildOptions is one packaging request. It is treated as read-only once
// handed to the pipeline.
type BuildOptions struct {
	SourceFile  string   `json:"source_file" mapstructure:"source_file"`
	IconFile    string   `json:"icon_file,omitempty" mapstructure:"icon_file"`
	OutputDir   string   `json:"output_dir,omitempty" mapstructure:"output_dir"`
	ExtraFiles  []string `json:"extra_files,omitempty" mapstructure:"extra_files"`
	SingleFile  bool     `json:"single_file" mapstructure:"single_file"`
	HideConsole bool     `json:"hide_console" mapstructure:"hide_console"`
}

// Clone returns a deep copy so the pipeline never aliases caller-owned slices.
func (o BuildOptions) Clone() BuildOptions {
	c := o
	if o.ExtraFiles != nil {
		c.ExtraFiles = append([]string(nil), o.ExtraFiles...)
	}
	return c
}

type BuildResult struct {
	BuildID     string        `json:"build_id"`
	Outcome     Outcome       `json:"outcome"`
	ExitCode    *int          `json:"exit_code,omitempty"`
	OutputLines []string      `json:"output_lines"`
	Command     []string      `json:"command,omitempty"`
	Installed   bool          `json:"installed"`
	Duration    time.Duration `json:"duration"`
	Err         error         `json:"-"`
}

func (r *BuildResult) Success() bool {
	return r.Outcome == OutcomeSuccess
}

// Lines returns a copy of the captured output.
func (r *BuildResult) Lines() []string {
	return append([]string(nil), r.OutputLines...)
}

// Message is the human-readable explanation shown to the user for the outcome.
func (r *BuildResult) Message() string {
	switch r.Outcome {
	case OutcomeSuccess:
		return "successfully packaged executable"
	case OutcomeInvalidOptions:
		return fmt.Sprintf("invalid build options: %v", r.Err)
	case OutcomeToolMissingAndInstallFailed:
		return fmt.Sprintf("packaging tool unavailable: %v", r.Err)
	case OutcomeProcessLaunchFailed:
		return fmt.Sprintf("could not launch packaging tool: %v", r.Err)
	case OutcomeNonZeroExit:
		code := -1
		if r.ExitCode != nil {
			code = *r.ExitCode
		}
		return fmt.Sprintf("packaging failed with exit code %d", code)
	case OutcomeCancelled:
		return "build cancelled"
	case OutcomeRejected:
		return "another build is already in progress"
	default:
		return fmt.Sprintf("unexpected error: %v", r.Err)
	}
}
