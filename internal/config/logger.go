package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates the service logger: JSON formatted, writing to stdout.
// The level comes from LOG_LEVEL when set (debug, info, warn, error),
// otherwise info.
func NewLogger() *logrus.Logger {
	log := logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level := logrus.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := logrus.ParseLevel(raw); err == nil {
			level = parsed
		}
	}
	log.SetLevel(level)

	return log
}
