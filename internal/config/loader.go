package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/logging"
	"github.com/spf13/viper"
)

// ConfigManager loads configuration from YAML with environment variable
// overrides and validation, and optionally watches the file for changes
// that are safe to apply without restarting a dispatcher run.
type ConfigManager struct {
	lock          sync.RWMutex
	config        *Config
	configPath    string
	watcher       *ConfigWatcher
	logger        *logging.Logger
	reloadCbs     []func(*Config)
	defaultConfig *Config
}

// CreateConfigManager creates a new configuration manager instance.
func CreateConfigManager() *ConfigManager {
	return &ConfigManager{
		defaultConfig: getDefaultConfig(),
		logger:        logging.GetLogger("config"),
	}
}

// LoadConfig reads, validates and stores the configuration at configPath.
func (cm *ConfigManager) LoadConfig(configPath string) error {
	cm.lock.Lock()
	defer cm.lock.Unlock()

	if err := validateConfigFile(configPath); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	cm.setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("DISPATCH")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read configuration file %q: %w", configPath, err)
	}

	cfg := *cm.defaultConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cm.config = &cfg
	cm.configPath = configPath

	cm.logger.WithFields(logging.Fields{
		"config_path": configPath,
		"device_ids":  cfg.Dispatch.DeviceIDs,
		"queue_size":  cfg.Dispatch.QueueSize,
	}).Info("Loaded dispatcher configuration")

	return nil
}

func (cm *ConfigManager) setDefaults(v *viper.Viper) {
	v.SetDefault("dispatch.device_ids", cm.defaultConfig.Dispatch.DeviceIDs)
	v.SetDefault("dispatch.queue_size", cm.defaultConfig.Dispatch.QueueSize)
	v.SetDefault("dispatch.base_seed", cm.defaultConfig.Dispatch.BaseSeed)
	v.SetDefault("dispatch.task_timeout_seconds", cm.defaultConfig.Dispatch.TaskTimeoutSeconds)
	v.SetDefault("dispatch.suppress_worker_output", cm.defaultConfig.Dispatch.SuppressWorkerOutput)
	v.SetDefault("logging.level", cm.defaultConfig.Logging.Level)
	v.SetDefault("logging.format", cm.defaultConfig.Logging.Format)
	v.SetDefault("logging.console_enabled", cm.defaultConfig.Logging.ConsoleEnabled)
}

// GetConfig returns the currently loaded configuration, or nil if none has
// been loaded yet.
func (cm *ConfigManager) GetConfig() *Config {
	cm.lock.RLock()
	defer cm.lock.RUnlock()
	return cm.config
}

// OnReload registers a callback invoked after a hot reload has replaced
// the configuration. DeviceIDs, QueueSize and BaseSeed in the Config it
// receives always keep their previously loaded values: those fields are
// immutable for the lifetime of a Controller already built from this
// config.
func (cm *ConfigManager) OnReload(cb func(*Config)) {
	cm.lock.Lock()
	defer cm.lock.Unlock()
	cm.reloadCbs = append(cm.reloadCbs, cb)
}

// StartWatching enables hot reload of the configuration file. Changes to
// the immutable fields (DeviceIDs, QueueSize, BaseSeed) are logged as
// rejected and discarded; every other setting, including Logging,
// Dispatch.SetupConfig, Dispatch.TaskTimeoutSeconds and
// Dispatch.SuppressWorkerOutput, is applied.
func (cm *ConfigManager) StartWatching() error {
	cm.lock.Lock()
	path := cm.configPath
	cm.lock.Unlock()
	if path == "" {
		return fmt.Errorf("cannot watch: no configuration has been loaded")
	}

	watcher, err := NewConfigWatcher(path, cm.applyReload)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}

	cm.lock.Lock()
	cm.watcher = watcher
	cm.lock.Unlock()
	return nil
}

// StopWatching disables hot reload, if active.
func (cm *ConfigManager) StopWatching() error {
	cm.lock.Lock()
	watcher := cm.watcher
	cm.watcher = nil
	cm.lock.Unlock()
	if watcher == nil {
		return nil
	}
	return watcher.Stop()
}

func (cm *ConfigManager) applyReload(next *Config) error {
	if err := ValidateConfig(next); err != nil {
		return fmt.Errorf("reload rejected: %w", err)
	}

	cm.lock.Lock()
	current := cm.config
	if current != nil {
		if !reflect.DeepEqual(current.Dispatch.DeviceIDs, next.Dispatch.DeviceIDs) ||
			current.Dispatch.QueueSize != next.Dispatch.QueueSize ||
			current.Dispatch.BaseSeed != next.Dispatch.BaseSeed {
			cm.logger.Warn("Ignoring reload of immutable dispatch settings (device_ids/queue_size/base_seed); no dynamic worker pool resizing")
			next.Dispatch.DeviceIDs = current.Dispatch.DeviceIDs
			next.Dispatch.QueueSize = current.Dispatch.QueueSize
			next.Dispatch.BaseSeed = current.Dispatch.BaseSeed
		}
	}
	cm.config = next
	callbacks := append([]func(*Config){}, cm.reloadCbs...)
	cm.lock.Unlock()

	for _, cb := range callbacks {
		cb(next)
	}
	return nil
}

func validateConfigFile(configPath string) error {
	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("configuration file does not exist: %q", configPath)
	}
	if err != nil {
		return fmt.Errorf("cannot stat configuration file %q: %w", configPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("configuration path %q is a directory", configPath)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("cannot read configuration file %q: %w", configPath, err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return fmt.Errorf("configuration file %q is empty", configPath)
	}
	return nil
}
