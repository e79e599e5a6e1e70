package config

import (
	log "github.com/sirupsen/logrus"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT values.
// An unknown level falls back to info; format "json" selects the JSON
// formatter and anything else keeps the text one.
func NewLogger(level, format string) *log.Logger {
	logger := log.New()
	if format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	}
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.WithError(err).Warn("Unknown LOG_LEVEL, using info")
	}
	return logger
}
