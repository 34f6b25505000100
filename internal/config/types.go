package config

import (
	pipelineconfig "github.com/elskow/pypackager/internal/pipeline/config"
)

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"` // "console" or "json"
}

type AppConfig struct {
	Env      string                        `mapstructure:"env"`
	Log      LogConfig                     `mapstructure:"log"`
	Packager pipelineconfig.PackagerConfig `mapstructure:"packager"`
}
