package config

import (
	"fmt"
	"strings"
)

// ValidateConfig enforces the dispatcher's construction preconditions
// (spec: non-empty device list, queue_size >= 1) plus basic logging
// sanity, failing fast with a descriptive error.
func ValidateConfig(cfg *Config) error {
	if len(cfg.Dispatch.DeviceIDs) == 0 {
		return fmt.Errorf("dispatch.device_ids cannot be empty")
	}
	seen := make(map[int]bool, len(cfg.Dispatch.DeviceIDs))
	for _, id := range cfg.Dispatch.DeviceIDs {
		if seen[id] {
			return fmt.Errorf("dispatch.device_ids contains duplicate device id %d", id)
		}
		seen[id] = true
	}
	if cfg.Dispatch.QueueSize < 1 {
		return fmt.Errorf("dispatch.queue_size must be >= 1, got %d", cfg.Dispatch.QueueSize)
	}
	if cfg.Dispatch.TaskTimeoutSeconds < 0 {
		return fmt.Errorf("dispatch.task_timeout_seconds cannot be negative, got %f", cfg.Dispatch.TaskTimeoutSeconds)
	}

	validLogLevels := []string{"debug", "info", "warn", "warning", "error", "fatal", "panic"}
	levelFound := false
	for _, valid := range validLogLevels {
		if strings.EqualFold(cfg.Logging.Level, valid) {
			levelFound = true
			break
		}
	}
	if !levelFound {
		return fmt.Errorf("logging.level must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}
	if cfg.Logging.FileEnabled && strings.TrimSpace(cfg.Logging.FilePath) == "" {
		return fmt.Errorf("logging.file_path cannot be empty when file logging is enabled")
	}

	return nil
}
