package config

import (
	"fmt"
	"strings"
	"time"
)

// ReminderConfig configures the reminder watcher.
type ReminderConfig struct {
	APIURL       string
	PollInterval time.Duration
	LogLevel     string
	LogFormat    string
}

// LoadReminder reads the watcher settings from the environment.
func LoadReminder() (*ReminderConfig, error) {
	interval, err := time.ParseDuration(getEnv("POLL_INTERVAL", "30s"))
	if err != nil || interval <= 0 {
		return nil, fmt.Errorf("invalid POLL_INTERVAL: %q", getEnv("POLL_INTERVAL", ""))
	}

	return &ReminderConfig{
		APIURL:       strings.TrimRight(getEnv("TODO_API_URL", "http://localhost:8080/v1"), "/"),
		PollInterval: interval,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
	}, nil
}
