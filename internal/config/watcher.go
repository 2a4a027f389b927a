package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ConfigWatcher watches a configuration file for changes and re-reads it
// through the reload callback, debouncing rapid successive writes.
type ConfigWatcher struct {
	watcher        *fsnotify.Watcher
	configPath     string
	reloadCallback func(*Config) error
	logger         *logging.Logger

	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewConfigWatcher creates a watcher for configPath.
func NewConfigWatcher(configPath string, reloadCallback func(*Config) error) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &ConfigWatcher{
		watcher:        watcher,
		configPath:     configPath,
		reloadCallback: reloadCallback,
		logger:         logging.GetLogger("config.watcher"),
		ctx:            ctx,
		cancel:         cancel,
	}, nil
}

// Start begins watching the configuration file's directory.
func (cw *ConfigWatcher) Start() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if cw.isRunning {
		return fmt.Errorf("config watcher is already running")
	}
	if _, err := os.Stat(cw.configPath); os.IsNotExist(err) {
		return fmt.Errorf("configuration file does not exist: %s", cw.configPath)
	}

	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", configDir, err)
	}

	cw.isRunning = true
	cw.logger.Info("Configuration hot reload started")
	go cw.watchLoop()
	return nil
}

// Stop stops watching the configuration file.
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	if !cw.isRunning {
		return nil
	}
	cw.cancel()
	cw.isRunning = false
	if err := cw.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	cw.logger.Info("Configuration hot reload stopped")
	return nil
}

func (cw *ConfigWatcher) watchLoop() {
	var lastReload time.Time
	const debounce = 250 * time.Millisecond

	for {
		select {
		case <-cw.ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(cw.configPath) {
				continue
			}
			if time.Since(lastReload) < debounce {
				continue
			}
			lastReload = time.Now()
			cw.reload()
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.WithError(err).Warn("Configuration watcher error")
		}
	}
}

func (cw *ConfigWatcher) reload() {
	if err := validateConfigFile(cw.configPath); err != nil {
		cw.logger.WithError(err).Warn("Skipping reload of invalid configuration file")
		return
	}

	v := viper.New()
	v.SetConfigFile(cw.configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("DISPATCH")

	if err := v.ReadInConfig(); err != nil {
		cw.logger.WithError(err).Warn("Failed to re-read configuration file")
		return
	}

	next := *getDefaultConfig()
	if err := v.Unmarshal(&next); err != nil {
		cw.logger.WithError(err).Warn("Failed to unmarshal reloaded configuration")
		return
	}

	if err := cw.reloadCallback(&next); err != nil {
		cw.logger.WithError(err).Warn("Configuration reload rejected")
	}
}
