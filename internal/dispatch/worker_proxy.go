package dispatch

import (
	"time"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/logging"
)

const dequeuePoll = 500 * time.Millisecond

// workerProxy is the controller-process half of one worker: it owns the
// subprocess handle, dequeues from the shared bounded task channel (the
// multi-consumer side of the task channel), forwards each task over
// the pipe, and relays everything the subprocess reports onto the shared
// result channel.
type workerProxy struct {
	workerID int
	logger   *logging.Logger

	spawned *spawnedWorker
}

// runWorkerProxy drives one worker end to end: spawn, init, either
// forward SetupFailed or run the dequeue loop, then (on stop/shutdown)
// the terminate/kill escalation. It returns once the subprocess has
// exited or been killed.
func runWorkerProxy(
	exePath, workerName string,
	deviceID int,
	baseSeed int64,
	cfg Config,
	taskTimeoutSeconds float64,
	suppressOutput bool,
	taskCh <-chan taskOrStop,
	resultCh *unboundedChan,
	shutdown *shutdownSignal,
	logger *logging.Logger,
	onSpawned func(pid int),
) {
	workerID := deviceID
	log := logger.WithFields(logging.Fields{"worker_id": workerID, "device_id": deviceID})

	spawned, err := spawnWorker(exePath, workerName, suppressOutput)
	if err != nil {
		resultCh.Send(SetupFailed{WorkerID: workerID, ErrorText: "failed to spawn worker subprocess: " + err.Error()})
		return
	}
	defer spawned.cmd.Wait() //nolint:errcheck // best effort reap; stopEscalation already waits when invoked.
	if onSpawned != nil {
		onSpawned(spawned.cmd.Process.Pid)
	}

	seed := baseSeed + int64(deviceID)
	if err := spawned.link.sendInit(deviceID, seed, cfg, taskTimeoutSeconds); err != nil {
		resultCh.Send(SetupFailed{WorkerID: workerID, ErrorText: "failed to send init to worker subprocess: " + err.Error()})
		spawned.closeControl()
		return
	}

	ack, err := spawned.link.recvResult()
	if err != nil {
		resultCh.Send(SetupFailed{WorkerID: workerID, ErrorText: "worker subprocess exited before acknowledging setup: " + err.Error()})
		spawned.closeControl()
		return
	}
	if ack.Kind == kindSetupFailed {
		resultCh.Send(SetupFailed{WorkerID: workerID, ErrorText: ack.ErrorText})
		spawned.closeControl()
		return
	}
	log.Debug("worker ready")

	dequeueLoop(taskCh, spawned, resultCh, shutdown, log)

	spawned.closeControl()
	// Drain whatever the subprocess still has in flight after STOP/EOF —
	// at most a trailing CleanupFailed — until its result pipe closes.
	drainTrailingResults(spawned, resultCh, log)
	if err := spawned.stopEscalation(); err != nil {
		log.WithError(err).Warn("worker subprocess did not exit cleanly")
	}
}

// dequeueLoop pulls one task at a time off the shared bounded task
// channel and forwards it to the subprocess, then blocks relaying that
// task's messages until its terminal result (TaskSuccess/Error/Timeout)
// has been relayed before dequeuing the next. This keeps at most one
// task in flight per worker beyond the task channel, matching the
// source system's single-process dequeue-then-process loop: without it,
// a proxy could keep pulling and forwarding tasks into the subprocess's
// pipe buffer while it is still busy in a single long Process call,
// blowing past the queue_size + worker_count backpressure bound.
func dequeueLoop(taskCh <-chan taskOrStop, spawned *spawnedWorker, resultCh *unboundedChan, shutdown *shutdownSignal, log *logging.Logger) {
	ticker := time.NewTicker(dequeuePoll)
	defer ticker.Stop()
	for {
		if shutdown.IsSet() {
			return
		}
		select {
		case <-shutdown.Done():
			return
		case item, ok := <-taskCh:
			if !ok {
				return
			}
			if item.isStop {
				_ = spawned.link.sendStop()
				return
			}
			if err := spawned.link.sendTask(item.task); err != nil {
				log.WithError(err).Warn("failed to forward task to worker subprocess")
				return
			}
			if !relayUntilTerminal(spawned, resultCh, log) {
				return
			}
		case <-ticker.C:
			// Poll bound: re-check shutdown even when the channel is idle.
		}
	}
}

// relayUntilTerminal blocks on the subprocess's result pipe, relaying
// every message it reads (TaskStarted, then exactly one terminal
// TaskSuccess/TaskError/TaskTimeout) onto resultCh. It returns once the
// terminal message has been relayed, or false if the pipe closed or a
// decode error occurred first. It does not race this wait against
// shutdown: an in-flight Process call is not cancelled, per spec, so
// there is nothing useful to do but wait for it to finish or time out on
// the subprocess's own alarm.
func relayUntilTerminal(spawned *spawnedWorker, resultCh *unboundedChan, log *logging.Logger) bool {
	for {
		env, err := spawned.link.recvResult()
		if err != nil {
			log.WithError(err).Warn("worker subprocess result pipe closed unexpectedly")
			return false
		}
		if r := env.toResult(); r != nil {
			resultCh.Send(r)
		}
		switch env.Kind {
		case kindTaskSuccess, kindTaskError, kindTaskTimeout:
			return true
		}
	}
}

// drainTrailingResults relays any messages the subprocess still sends
// after STOP (at most a CleanupFailed) until its result pipe closes.
func drainTrailingResults(spawned *spawnedWorker, resultCh *unboundedChan, log *logging.Logger) {
	for {
		env, err := spawned.link.recvResult()
		if err != nil {
			return
		}
		if r := env.toResult(); r != nil {
			resultCh.Send(r)
		}
		if env.Kind == kindCleanupFailed {
			log.WithFields(logging.Fields{"error": env.ErrorText}).Warn("worker cleanup failed")
		}
	}
}
