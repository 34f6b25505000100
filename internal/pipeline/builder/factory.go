package builder

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/elskow/pypackager/internal/pipeline/config"
)

type Factory struct {
	config *config.PackagerConfig
	logger *zap.Logger
}

type FactoryInterface interface {
	CreateBuilder(tool string) (Builder, error)
}

func NewBuilderFactory(config *config.PackagerConfig, logger *zap.Logger) *Factory {
	return &Factory{
		config: config,
		logger: logger,
	}
}

// CreateBuilder selects the command builder by the tool's executable name,
// so a configured path such as /opt/venv/bin/pyinstaller also matches.
func (f *Factory) CreateBuilder(tool string) (Builder, error) {
	switch toolName(tool) {
	case "", config.DefaultTool:
		f.logger.Debug("using pyinstaller command builder",
			zap.String("data_separator", f.config.Separator()))
		return NewPyInstallerBuilder(f.config.Separator()), nil
	default:
		return nil, fmt.Errorf("unsupported packaging tool: %s", tool)
	}
}

func toolName(tool string) string {
	name := filepath.Base(tool)
	if name == "." {
		return ""
	}
	return strings.TrimSuffix(strings.ToLower(name), ".exe")
}
