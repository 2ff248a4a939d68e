// Package logger owns the process-wide logrus instance. Services log through
// component entries so every line says which part of the bot wrote it.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"feedback_survey_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

const serviceName = "feedback-bot"

// Log is the global logger instance
var Log = logrus.New()

// Configure sets level, output and format on l. Production and staging get
// JSON lines; anything else gets human-readable text. An unknown level
// leaves l at info and is reported as an error.
func Configure(l *logrus.Logger, level, environment string, out io.Writer) error {
	l.SetOutput(out)

	switch strings.ToLower(environment) {
	case "production", "staging":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		l.SetLevel(logrus.InfoLevel)
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	l.SetLevel(parsed)
	return nil
}

// Init configures the global logger from the environment config.
func Init(cfg *config.AppConfig) {
	if err := Configure(Log, cfg.LogLevel, cfg.Environment, os.Stdout); err != nil {
		Log.WithError(err).Warn("Falling back to info log level")
	}
	Log.WithFields(logrus.Fields{
		"service":     serviceName,
		"level":       Log.GetLevel().String(),
		"environment": cfg.Environment,
	}).Debug("Logger configured")
}

// Component returns an entry tagged with the service and component name.
func Component(name string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{"service": serviceName, "component": name})
}
