// Command config-example loads a dispatcher configuration file and
// prints a summary, mirroring the shape of config validation errors a
// caller would see before ever constructing a Controller.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/config"
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
	cfg := cm.GetConfig()

	fmt.Println("=== Dispatcher Configuration ===")
	fmt.Printf("Device IDs: %v\n", cfg.Dispatch.DeviceIDs)
	fmt.Printf("Queue Size: %d\n", cfg.Dispatch.QueueSize)
	fmt.Printf("Base Seed: %d\n", cfg.Dispatch.BaseSeed)
	fmt.Printf("Task Timeout: %.2fs (0 means unbounded)\n", cfg.Dispatch.TaskTimeoutSeconds)
	fmt.Printf("Suppress Worker Output: %t\n", cfg.Dispatch.SuppressWorkerOutput)
	fmt.Printf("Setup Config: %v\n", cfg.Dispatch.SetupConfig)

	fmt.Println("\n--- Logging ---")
	fmt.Printf("Level: %s\n", cfg.Logging.Level)
	fmt.Printf("Format: %s\n", cfg.Logging.Format)
	fmt.Printf("Console Enabled: %t\n", cfg.Logging.ConsoleEnabled)
	if cfg.Logging.FileEnabled {
		fmt.Printf("File Path: %s\n", cfg.Logging.FilePath)
		fmt.Printf("Max File Size: %d bytes\n", cfg.Logging.MaxFileSize)
		fmt.Printf("Backup Count: %d\n", cfg.Logging.BackupCount)
	}

	fmt.Println("\nConfiguration loaded successfully.")
}
