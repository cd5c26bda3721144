package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rebeliceyang/lazycirc/internal/config"
)

// DefaultFile is the log file name used when logging.file is not set
const DefaultFile = "lazycirc.log"

// New builds the application logger. The TUI owns the terminal, so output
// goes to a file: cfg.File, or lazycirc.log in the user config directory.
// verbose forces debug level.
func New(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging.level %q: %w", cfg.Level, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	path, err := resolvePath(cfg.File)
	if err != nil {
		return nil, err
	}
	zcfg.OutputPaths = []string{path}
	zcfg.ErrorOutputPaths = []string{path}

	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func resolvePath(file string) (string, error) {
	if file == "" {
		dir, err := config.GetConfigPath()
		if err != nil {
			return "", fmt.Errorf("failed to locate log directory: %w", err)
		}
		file = filepath.Join(dir, DefaultFile)
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}
	return file, nil
}
