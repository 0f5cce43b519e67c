// Package logging wraps zap so the rest of the service logs structured
// fields instead of the teacher's plain log.Printf calls.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style zap logger, or a development one when
// JOURNEY_ENV=dev for readable local output.
func New() *zap.Logger {
	var cfg zap.Config
	if os.Getenv("JOURNEY_ENV") == "dev" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	logger, err := cfg.Build()
	if err != nil {
		// Fall back to a no-op logger rather than crash the service over
		// a logging misconfiguration.
		return zap.NewNop()
	}
	return logger
}
