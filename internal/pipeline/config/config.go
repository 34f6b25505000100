package config

import (
	"runtime"
	"time"
)

const DefaultTool = "pyinstaller"

type PackagerConfig struct {
	Tool             string        `mapstructure:"tool"`
	VersionArgs      []string      `mapstructure:"version_args"`
	InstallCommand   []string      `mapstructure:"install_command"`
	AutoInstall      bool          `mapstructure:"auto_install"`
	DataSeparator    string        `mapstructure:"data_separator"` // empty selects the host convention
	ScriptExtensions []string      `mapstructure:"script_extensions"`
	Timeout          time.Duration `mapstructure:"timeout"` // zero disables the build deadline
	MetricsFile      string        `mapstructure:"metrics_file"`
}

// Separator returns the path-list separator used to join extra data files.
func (c *PackagerConfig) Separator() string {
	if c.DataSeparator != "" {
		return c.DataSeparator
	}
	return HostSeparator(runtime.GOOS)
}

// HostSeparator is the separator the packaging tool expects on goos.
func HostSeparator(goos string) string {
	if goos == "windows" {
		return ";"
	}
	return ":"
}

// DefaultInstallCommand installs the tool with the host's python package installer.
func DefaultInstallCommand(goos, tool string) []string {
	python := "python3"
	if goos == "windows" {
		python = "python"
	}
	return []string{python, "-m", "pip", "install", tool}
}

func Default() PackagerConfig {
	return PackagerConfig{
		Tool:             DefaultTool,
		VersionArgs:      []string{"--version"},
		InstallCommand:   DefaultInstallCommand(runtime.GOOS, DefaultTool),
		AutoInstall:      true,
		ScriptExtensions: []string{".py", ".pyw"},
	}
}
