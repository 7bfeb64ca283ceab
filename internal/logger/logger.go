// Package logger builds the structured logger shared by every component of the server.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logrus logger at level. Development gets coloured text output,
// everything else gets JSON so log shippers can parse it.
// An unknown level falls back to info and says so.
func New(level string, isDevelopment bool) *logrus.Logger {
	return newWithOutput(level, isDevelopment, os.Stdout)
}

func newWithOutput(level string, isDevelopment bool, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	if isDevelopment {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	if level == "" {
		level = "info"
		if isDevelopment {
			level = "debug"
		}
	}
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("invalid LOG_LEVEL, using info")
		return log
	}
	log.SetLevel(parsed)

	return log
}
