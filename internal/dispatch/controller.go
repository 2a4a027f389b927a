package dispatch

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultQueueSize = 1024
	defaultBaseSeed  = 42
	stopPutTimeout   = 500 * time.Millisecond
)

// Params are the Controller construction parameters.
type Params struct {
	// WorkerName is the name a Worker Factory was Register-ed under; the
	// worker subprocess re-exec looks it back up in its own registry.
	WorkerName string
	// DeviceIDs must be non-empty. WorkerID == DeviceID for every entry.
	DeviceIDs []int
	// QueueSize bounds the task channel. Zero means the default of 1024.
	QueueSize int
	// SuppressWorkerOutput redirects each worker subprocess's stdout and
	// stderr to the null device.
	SuppressWorkerOutput bool
}

// RunOptions are the per-Run parameters.
type RunOptions struct {
	// BaseSeed seeds every worker's Seed = BaseSeed + DeviceID. Zero
	// means the default of 42.
	BaseSeed int64
	// TaskTimeoutSeconds, if > 0, bounds each Process call; 0 means no
	// timeout.
	TaskTimeoutSeconds float64
	// Config is forwarded verbatim to every worker's Setup.
	Config Config
	// DisableSignalHandling skips installing SIGINT/SIGTERM handlers,
	// for callers that are not invoking Run from what they consider
	// their process's main control flow.
	DisableSignalHandling bool
	// OnWorkerSpawned, if set, is called once per worker with its
	// subprocess PID as soon as it has been spawned, letting an
	// observer (e.g. the stats overlay's ResourceSampler) track it for
	// OS-level resource sampling.
	OnWorkerSpawned func(workerID, pid int)
}

// Controller is the public entry point: it spawns one worker
// subprocess per device, wires the task/result channels and shutdown
// signal between them, and orchestrates the ordered shutdown sequence.
type Controller struct {
	params Params
	logger *logging.Logger
}

// NewController validates Params and returns a Controller. Validation
// failures are ConfigurationErrors raised synchronously.
func NewController(p Params) (*Controller, error) {
	if _, ok := lookup(p.WorkerName); !ok {
		return nil, factoryNameError(p.WorkerName)
	}
	if len(p.DeviceIDs) == 0 {
		return nil, &ConfigurationError{Reason: "device_ids must be non-empty"}
	}
	seen := make(map[int]bool, len(p.DeviceIDs))
	for _, id := range p.DeviceIDs {
		if seen[id] {
			return nil, &ConfigurationError{Reason: "device_ids contains a duplicate"}
		}
		seen[id] = true
	}
	if p.QueueSize == 0 {
		p.QueueSize = defaultQueueSize
	}
	if p.QueueSize < 1 {
		return nil, &ConfigurationError{Reason: "queue_size must be >= 1"}
	}
	return &Controller{params: p, logger: logging.GetLogger("dispatch.controller")}, nil
}

// Run executes one end-to-end dispatch: it blocks until the stream is
// exhausted, the shutdown signal is raised (by a caught signal or a
// fatal all-workers-setup-failed condition), or ctx is cancelled, then
// always runs the shutdown sequence before returning.
func (c *Controller) Run(ctx context.Context, stream InputStream, callbacks Callbacks, opts RunOptions) error {
	if callbacks.OnSuccess == nil {
		return &ConfigurationError{Reason: "Callbacks.OnSuccess is required"}
	}
	if opts.BaseSeed == 0 {
		opts.BaseSeed = defaultBaseSeed
	}

	correlationID := uuid.New().String()
	logger := c.logger.WithCorrelationID(correlationID).WithFields(logging.Fields{"run_id": correlationID})

	exePath, err := os.Executable()
	if err != nil {
		return err
	}

	taskCh := make(chan taskOrStop, c.params.QueueSize)
	resultCh := newUnboundedChan()
	shutdown := newShutdownSignal()

	var restoreSignals func()
	if !opts.DisableSignalHandling {
		restoreSignals = installShutdownSignalHandlers(shutdown)
		defer restoreSignals()
	}
	go func() {
		select {
		case <-ctx.Done():
			shutdown.Set()
		case <-shutdown.Done():
		}
	}()

	var g errgroup.Group
	for _, dev := range c.params.DeviceIDs {
		dev := dev
		g.Go(func() error {
			var onSpawned func(pid int)
			if opts.OnWorkerSpawned != nil {
				onSpawned = func(pid int) { opts.OnWorkerSpawned(dev, pid) }
			}
			runWorkerProxy(exePath, c.params.WorkerName, dev, opts.BaseSeed, opts.Config,
				opts.TaskTimeoutSeconds, c.params.SuppressWorkerOutput, taskCh, resultCh, shutdown, logger, onSpawned)
			return nil
		})
	}

	f := &feeder{}
	g.Go(func() error {
		f.run(ctx, stream, taskCh, shutdown, logger)
		return nil
	})

	m := &monitor{callbacks: callbacks}
	runErr := m.run(resultCh, f, shutdown, len(c.params.DeviceIDs), logger)

	c.shutdownSequence(taskCh, resultCh, shutdown, callbacks, &g, logger)

	return runErr
}

// shutdownSequence orders the teardown steps. It always runs, including
// when Run is returning because of a fatal setup failure or an error
// from the caller's ctx.
func (c *Controller) shutdownSequence(
	taskCh chan taskOrStop,
	resultCh *unboundedChan,
	shutdown *shutdownSignal,
	callbacks Callbacks,
	g *errgroup.Group,
	logger *logging.Logger,
) {
	shutdown.Set()

	if callbacks.OnExit != nil {
		callbacks.OnExit()
	}

	for range c.params.DeviceIDs {
		select {
		case taskCh <- taskOrStop{isStop: true}:
		case <-time.After(stopPutTimeout):
			logger.Warn("task channel still full while enqueueing stop sentinel")
		}
	}

	_ = g.Wait() // each proxy runs its own join/terminate/kill escalation.

	drainAndClose(taskCh)
	resultCh.Close()
	// Signal handlers (if installed) are restored by Run's deferred call
	// to the function installShutdownSignalHandlers returned.
}

func drainAndClose(taskCh chan taskOrStop) {
	for {
		select {
		case <-taskCh:
		default:
			close(taskCh)
			return
		}
	}
}

// installShutdownSignalHandlers installs handlers for SIGINT/SIGTERM that
// raise the shutdown signal, and returns a function that restores the
// process's previous signal disposition. Go has no per-thread signal
// mask the way the source system's "main thread" check does; the
// equivalent here is process-wide signal.Notify/signal.Stop, which is
// safe to call from any goroutine calling Run unless the caller opts out
// via RunOptions.DisableSignalHandling.
func installShutdownSignalHandlers(shutdown *shutdownSignal) func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			shutdown.Set()
		case <-done:
		}
	}()
	return func() {
		close(done)
		signal.Stop(sigCh)
	}
}
