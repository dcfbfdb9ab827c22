package wrenbase

import (
	"github.com/sirupsen/logrus"
)

// newDefaultLogger builds the logger used when Config.Logger is nil.
// Telemetry is best-effort, so the default stays quiet: structured JSON
// output at Warn level, matching the platform's log shape.
func newDefaultLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "@timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	return logger
}
