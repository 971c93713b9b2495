package logger

import (
	"github.com/skycast-app/skycast/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger from config. Format "console" gives the
// development encoder; anything else is production JSON.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.OutputPath != "" {
		zapCfg.OutputPaths = []string{cfg.OutputPath}
	}

	return zapCfg.Build()
}

func NewDevelopment() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func NewProduction() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}
