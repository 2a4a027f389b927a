// Command dispatcher wires a Config, a registered Worker and the stats
// overlay into a running Controller. It doubles as the worker subprocess
// entry point: RunWorkerSubprocessIfRequested intercepts re-exec'd child
// processes before any flag parsing happens.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/config"
	"github.com/camerarecorder/mediamtx-camera-service-go/internal/dispatch"
	"github.com/camerarecorder/mediamtx-camera-service-go/internal/dispatch/stats"
	"github.com/camerarecorder/mediamtx-camera-service-go/internal/logging"
)

const resourceSamplePeriod = 2 * time.Second

func runResourceSampling(ctx context.Context, sampler *stats.ResourceSampler) {
	ticker := time.NewTicker(resourceSamplePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sampler.SampleOnce(ctx)
		}
	}
}

func init() {
	dispatch.Register("uppercase", func() dispatch.Worker { return &uppercaseWorker{} })
	dispatch.RegisterPayloadType("")
	dispatch.RegisterResultType("")
}

// uppercaseWorker is the trivial reference Worker shipped with this
// binary: it upper-cases each string payload it receives. Real
// deployments register their own Workers from a separate package and
// import this one only for RunWorkerSubprocessIfRequested and Controller.
type uppercaseWorker struct{}

func (*uppercaseWorker) Setup(deviceID int, seed int64, cfg dispatch.Config) error { return nil }

func (*uppercaseWorker) Process(payload any) (any, error) {
	s, ok := payload.(string)
	if !ok {
		return nil, fmt.Errorf("uppercase worker: expected string payload, got %T", payload)
	}
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out), nil
}

func (*uppercaseWorker) Cleanup() error { return nil }

func main() {
	if dispatch.RunWorkerSubprocessIfRequested() {
		return
	}

	configPath := flag.String("config", "config/dispatcher.yaml", "path to the dispatcher configuration file")
	workerName := flag.String("worker", "uppercase", "name of the registered worker to run")
	watch := flag.Bool("watch", false, "hot-reload the configuration file while running")
	flag.Parse()

	cm := config.CreateConfigManager()
	if err := cm.LoadConfig(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "dispatcher: %v\n", err)
		os.Exit(1)
	}
	cfg := cm.GetConfig()

	if err := logging.SetupLogging(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "dispatcher: failed to configure logging: %v\n", err)
		os.Exit(1)
	}
	logger := logging.GetLogger("dispatcher")

	if *watch {
		cm.OnReload(func(next *config.Config) {
			if err := logging.SetupLogging(&next.Logging); err != nil {
				logger.WithError(err).Warn("failed to apply reloaded logging configuration")
			}
		})
		if err := cm.StartWatching(); err != nil {
			logger.WithError(err).Warn("hot reload disabled: failed to start config watcher")
		} else {
			defer cm.StopWatching()
		}
	}

	controller, err := dispatch.NewController(dispatch.Params{
		WorkerName:           *workerName,
		DeviceIDs:            cfg.Dispatch.DeviceIDs,
		QueueSize:            cfg.Dispatch.QueueSize,
		SuppressWorkerOutput: cfg.Dispatch.SuppressWorkerOutput,
	})
	if err != nil {
		logger.WithError(err).Fatal("invalid dispatcher configuration")
	}

	recorder := stats.NewRecorder()
	sampler := stats.NewResourceSampler(recorder)
	recorder.Start(cfg.Dispatch.DeviceIDs)

	callbacks := recorder.Wrap(dispatch.Callbacks{
		OnSuccess: func(taskID uint64, result any, workerID int) {
			logger.WithFields(logging.Fields{"task_id": fmt.Sprint(taskID), "worker_id": fmt.Sprint(workerID)}).
				Infof("task succeeded: %v", result)
		},
		OnError: func(taskID uint64, errorText string, workerID int) {
			logger.WithFields(logging.Fields{"task_id": fmt.Sprint(taskID), "worker_id": fmt.Sprint(workerID)}).
				Warnf("task failed: %s", errorText)
		},
		OnTimeout: func(taskID uint64, timeoutSeconds float64, workerID int) {
			logger.WithFields(logging.Fields{"task_id": fmt.Sprint(taskID), "worker_id": fmt.Sprint(workerID)}).
				Warnf("task timed out after %.2fs", timeoutSeconds)
		},
		OnSetupFail: func(workerID int, errorText string) {
			logger.WithFields(logging.Fields{"worker_id": fmt.Sprint(workerID)}).Errorf("worker setup failed: %s", errorText)
		},
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	renderCtx, stopRender := context.WithCancel(ctx)
	defer stopRender()
	go stats.RunRenderer(renderCtx, recorder, 1, stats.TextRenderer{W: os.Stderr})
	go runResourceSampling(renderCtx, sampler)

	stream := readLineStream()

	err = controller.Run(ctx, stream, callbacks, dispatch.RunOptions{
		BaseSeed:           cfg.Dispatch.BaseSeed,
		TaskTimeoutSeconds: cfg.Dispatch.TaskTimeoutSeconds,
		Config:             cfg.Dispatch.SetupConfig,
		OnWorkerSpawned:    sampler.Track,
	})
	if err != nil {
		logger.WithError(err).Fatal("dispatcher run failed")
	}
}
