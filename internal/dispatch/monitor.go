package dispatch

import (
	"time"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/logging"
)

const monitorPoll = 100 * time.Millisecond

// monitor consumes the result channel on the controller's calling
// goroutine and dispatches the matching callback for each
// message. It terminates normally once every dispatched task has a
// terminal message (feederDone && received >= N), or early if the
// shutdown signal fires, or fatally if every worker fails setup.
type monitor struct {
	callbacks    Callbacks
	activeWorker int // workers that have not (yet) failed setup
	received     uint64
}

// run drains results until completion, shutdown, or fatal failure. It
// returns a non-nil *AllWorkersSetupFailedError only in the fatal case;
// all other terminal outcomes for individual tasks are delivered via
// callbacks, never returned.
func (m *monitor) run(results *unboundedChan, f *feeder, shutdown *shutdownSignal, workerCount int, logger *logging.Logger) error {
	m.activeWorker = workerCount
	setupFailures := make(map[int]string)

	ticker := time.NewTicker(monitorPoll)
	defer ticker.Stop()

	for {
		if shutdown.IsSet() {
			return nil
		}
		if f.Done() && m.received >= f.Count() {
			return nil
		}

		select {
		case <-shutdown.Done():
			return nil
		case r, ok := <-results.Out():
			if !ok {
				return nil
			}
			if fatal := m.dispatch(r, setupFailures, logger); fatal {
				return &AllWorkersSetupFailedError{Failures: setupFailures}
			}
		case <-ticker.C:
			// Poll bound: re-check completion/shutdown even when idle.
		}
	}
}

// dispatch applies one result message to the callbacks and running
// counts. It returns true exactly when every worker has now failed
// setup — the monitor's one fatal in-loop condition.
func (m *monitor) dispatch(r Result, setupFailures map[int]string, logger *logging.Logger) bool {
	switch v := r.(type) {
	case TaskStarted:
		if m.callbacks.OnTaskStart != nil {
			m.callbacks.OnTaskStart(v.TaskID, v.WorkerID)
		}
	case TaskSuccess:
		m.callbacks.OnSuccess(v.TaskID, v.Data, v.WorkerID)
		m.received++
	case TaskError:
		if m.callbacks.OnError != nil {
			m.callbacks.OnError(v.TaskID, v.ErrorText, v.WorkerID)
		}
		m.received++
	case TaskTimeout:
		if m.callbacks.OnTimeout != nil {
			m.callbacks.OnTimeout(v.TaskID, v.TimeoutSeconds, v.WorkerID)
		}
		m.received++
	case SetupFailed:
		if m.callbacks.OnSetupFail != nil {
			m.callbacks.OnSetupFail(v.WorkerID, v.ErrorText)
		}
		setupFailures[v.WorkerID] = v.ErrorText
		m.activeWorker--
		if m.activeWorker <= 0 {
			return true
		}
	case CleanupFailed:
		logger.WithFields(logging.Fields{"worker_id": v.WorkerID, "error": v.ErrorText}).Warn("worker cleanup failed")
	}
	return false
}
