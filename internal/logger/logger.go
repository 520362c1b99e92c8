package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"spectrum-academy/internal/models/config"
)

// New JSON в продакшене, цветная консоль локально
func New(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		zc := zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "ts"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return zc.Build()
	}

	zc := zap.NewDevelopmentConfig()
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zc.Build()
}
