package config

import "github.com/camerarecorder/mediamtx-camera-service-go/internal/logging"

// Config is the top-level dispatcher configuration file shape.
type Config struct {
	Dispatch DispatchConfig        `mapstructure:"dispatch"`
	Logging  logging.LoggingConfig `mapstructure:"logging"`
}

// DispatchConfig carries the Controller construction and Run parameters
// that a caller would otherwise have to hard-code. DeviceIDs, QueueSize
// and BaseSeed are fixed for the lifetime of a Controller built from this
// config; SetupConfig may be refreshed by a hot reload.
type DispatchConfig struct {
	DeviceIDs            []int          `mapstructure:"device_ids"`
	QueueSize            int            `mapstructure:"queue_size"`
	BaseSeed             int64          `mapstructure:"base_seed"`
	TaskTimeoutSeconds   float64        `mapstructure:"task_timeout_seconds"`
	SuppressWorkerOutput bool           `mapstructure:"suppress_worker_output"`
	SetupConfig          map[string]any `mapstructure:"setup_config"`
}

func getDefaultConfig() *Config {
	return &Config{
		Dispatch: DispatchConfig{
			DeviceIDs:            []int{0},
			QueueSize:            1024,
			BaseSeed:             42,
			TaskTimeoutSeconds:   0,
			SuppressWorkerOutput: false,
			SetupConfig:          map[string]any{},
		},
		Logging: logging.LoggingConfig{
			Level:          "info",
			Format:         "text",
			ConsoleEnabled: true,
			MaxFileSize:    10 * 1024 * 1024,
			BackupCount:    5,
		},
	}
}
