package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	pipelineconfig "github.com/elskow/pypackager/internal/pipeline/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"

	envPrefix = "PYPACKAGER"
)

// Load reads config.toml from path (or the default search paths when path is
// empty), applies PYPACKAGER_* environment overrides and returns the result.
// A missing config file is not an error.
func Load(path string) (*AppConfig, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = EnvDevelopment
	}

	v := viper.New()
	setDefaults(v, env)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath("./config/packager")
		v.AddConfigPath("$HOME/.pypackager")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	// APP_ENV selects the profile; a file cannot override it.
	cfg.Env = env

	// Environment-specific overrides, e.g. [log.production].
	if envSettings := v.GetStringMap(fmt.Sprintf("log.%s", env)); len(envSettings) > 0 {
		if err := v.UnmarshalKey(fmt.Sprintf("log.%s", env), &cfg.Log); err != nil {
			return nil, fmt.Errorf("error unmarshaling env config: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, env string) {
	d := pipelineconfig.Default()

	v.SetDefault("log.encoding", "console")
	if env == EnvProduction {
		v.SetDefault("log.level", "info")
	} else {
		v.SetDefault("log.level", "debug")
	}

	v.SetDefault("packager.tool", d.Tool)
	v.SetDefault("packager.version_args", d.VersionArgs)
	v.SetDefault("packager.install_command", d.InstallCommand)
	v.SetDefault("packager.auto_install", d.AutoInstall)
	v.SetDefault("packager.data_separator", d.DataSeparator)
	v.SetDefault("packager.script_extensions", d.ScriptExtensions)
	v.SetDefault("packager.timeout", d.Timeout)
	v.SetDefault("packager.metrics_file", d.MetricsFile)
}

func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.Packager.Tool) == "" {
		return fmt.Errorf("packager.tool must not be empty")
	}
	if c.Packager.AutoInstall && len(c.Packager.InstallCommand) == 0 {
		return fmt.Errorf("packager.install_command is required when auto_install is enabled")
	}
	if c.Packager.Timeout < 0 {
		return fmt.Errorf("packager.timeout must not be negative")
	}
	switch c.Log.Encoding {
	case "", "console", "json":
	default:
		return fmt.Errorf("unsupported log encoding: %s", c.Log.Encoding)
	}
	return nil
}
