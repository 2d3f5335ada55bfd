package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aliskhannn/jlpt-n1-study/internal/config"
)

const serviceName = "n1study"

// New builds the process logger: JSON in production, colored console output otherwise.
func New(cfg *config.Config) (*zap.Logger, error) {
	opts := []zap.Option{zap.Fields(zap.String("service", serviceName))}

	if cfg.Env == "production" {
		return zap.NewProduction(opts...)
	}

	zc := zap.NewDevelopmentConfig()
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zc.Build(opts...)
}
