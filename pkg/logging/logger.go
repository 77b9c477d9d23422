package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

//New builds the process logger. format is "json" or "text"; an invalid level falls back to info with a warning.
func New(level, format string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	if out == nil {
		out = os.Stdout
	}
	log.SetOutput(out)

	if strings.ToLower(format) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", level).Warn("Invalid log level, using INFO")
	}

	return log
}

//Discard returns an entry that drops everything, for tests and optional collaborators
func Discard() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

//WithRequest tags entries with a request id and the endpoint being served
func WithRequest(log *logrus.Entry, requestID, operation string) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"request_id": requestID,
		"operation":  operation,
	})
}

//WithPlayer tags entries with the player being analyzed
func WithPlayer(log *logrus.Entry, playerID string) *logrus.Entry {
	if playerID == "" {
		return log
	}
	return log.WithField("player_id", playerID)
}
