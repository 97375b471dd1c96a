package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

func init() {
	logger = logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if level, err := logrus.ParseLevel(raw); err == nil {
			logger.SetLevel(level)
		}
	}
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// GetLogger returns the shared console logger. Run logs use their own
// file-backed instance, see pkg/epp.
func GetLogger() *logrus.Logger {
	return logger
}
