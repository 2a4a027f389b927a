// Command hot-reload-example demonstrates ConfigManager.StartWatching:
// it loads a configuration file, watches it for edits, and logs every
// applied (or rejected) reload until interrupted.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/config"
	"github.com/camerarecorder/mediamtx-camera-service-go/internal/logging"
)

func main() {
	configPath := "config/dispatcher.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cm := config.CreateConfigManager()
	if err := cm.LoadConfig(configPath); err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := logging.SetupLogging(&cm.GetConfig().Logging); err != nil {
		log.Fatalf("failed to configure logging: %v", err)
	}
	logger := logging.GetLogger("hot-reload-example")

	cm.OnReload(func(next *config.Config) {
		logger.WithFields(logging.Fields{
			"level":                  next.Logging.Level,
			"task_timeout_seconds":   next.Dispatch.TaskTimeoutSeconds,
			"suppress_worker_output": next.Dispatch.SuppressWorkerOutput,
		}).Info("configuration reloaded")
		if err := logging.SetupLogging(&next.Logging); err != nil {
			logger.WithError(err).Warn("failed to apply reloaded logging configuration")
		}
	})

	if err := cm.StartWatching(); err != nil {
		log.Fatalf("failed to start config watcher: %v", err)
	}
	defer cm.StopWatching()

	fmt.Printf("Watching %s for changes. Edit the file or press Ctrl+C to exit.\n", configPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
}
