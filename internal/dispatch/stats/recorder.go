package stats

import (
	"sync"
	"time"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/dispatch"
)

// Recorder maintains the statistics record under a single mutex and
// intercepts a dispatch.Callbacks to keep it current. It is
// controller-process-local; Snapshot returns a deep
// copy so a renderer never touches the live record.
type Recorder struct {
	mu        sync.Mutex
	total     int
	completed int
	failed    int
	timeouts  int
	setupFail int
	startTime time.Time
	endTime   time.Time
	perWorker map[int]WorkerSnapshot
}

// NewRecorder creates a Recorder. Call Start once the dispatcher's run
// begins and Finish once it returns.
func NewRecorder() *Recorder {
	return &Recorder{perWorker: make(map[int]WorkerSnapshot)}
}

// Start records the run's start time and marks every worker as
// initializing.
func (r *Recorder) Start(workerIDs []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startTime = time.Now()
	for _, id := range workerIDs {
		r.perWorker[id] = WorkerSnapshot{Status: WorkerInitializing}
	}
}

// Finish records the run's end time and finalizes every worker's status
// to finished unless it was already marked error.
func (r *Recorder) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endTime = time.Now()
	for id, w := range r.perWorker {
		if w.Status != WorkerError {
			w.Status = WorkerFinished
			r.perWorker[id] = w
		}
	}
}

// Snapshot returns a deep copy of the current statistics record.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[int]WorkerSnapshot, len(r.perWorker))
	for k, v := range r.perWorker {
		cp[k] = v
	}
	return Snapshot{
		Total: r.total, Completed: r.completed, Failed: r.failed,
		Timeouts: r.timeouts, SetupFailures: r.setupFail,
		StartTime: r.startTime, EndTime: r.endTime, PerWorker: cp,
	}
}

// Wrap intercepts every callback in cb, updating the record under the
// recorder's mutex before forwarding to the caller's original callback
func (r *Recorder) Wrap(cb dispatch.Callbacks) dispatch.Callbacks {
	wrapped := cb

	wrapped.OnTaskStart = func(taskID uint64, workerID int) {
		r.recordTaskStart(taskID, workerID)
		if cb.OnTaskStart != nil {
			cb.OnTaskStart(taskID, workerID)
		}
	}
	wrapped.OnSuccess = func(taskID uint64, result any, workerID int) {
		r.recordTerminal(workerID, func(w *WorkerSnapshot) { w.Completed++ }, func() { r.completed++ })
		cb.OnSuccess(taskID, result, workerID)
	}
	wrapped.OnError = func(taskID uint64, errorText string, workerID int) {
		r.recordTerminal(workerID, func(w *WorkerSnapshot) { w.Failed++ }, func() { r.failed++ })
		if cb.OnError != nil {
			cb.OnError(taskID, errorText, workerID)
		}
	}
	wrapped.OnTimeout = func(taskID uint64, timeoutSeconds float64, workerID int) {
		r.recordTerminal(workerID, func(w *WorkerSnapshot) { w.Timeouts++ }, func() { r.timeouts++ })
		if cb.OnTimeout != nil {
			cb.OnTimeout(taskID, timeoutSeconds, workerID)
		}
	}
	wrapped.OnSetupFail = func(workerID int, errorText string) {
		r.mu.Lock()
		r.setupFail++
		w := r.perWorker[workerID]
		w.Status = WorkerError
		r.perWorker[workerID] = w
		r.mu.Unlock()
		if cb.OnSetupFail != nil {
			cb.OnSetupFail(workerID, errorText)
		}
	}
	wrapped.OnExit = func() {
		r.Finish()
		if cb.OnExit != nil {
			cb.OnExit()
		}
	}

	return wrapped
}

func (r *Recorder) recordTaskStart(taskID uint64, workerID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total++
	w := r.perWorker[workerID]
	w.Status = WorkerProcessing
	w.CurrentTaskID = &taskID
	w.TaskStartTime = time.Now()
	r.perWorker[workerID] = w
}

func (r *Recorder) recordTerminal(workerID int, onWorker func(*WorkerSnapshot), onTotal func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	onTotal()
	w := r.perWorker[workerID]
	onWorker(&w)
	if !w.TaskStartTime.IsZero() {
		w.LastDuration = time.Since(w.TaskStartTime)
	}
	w.Status = WorkerIdle
	w.CurrentTaskID = nil
	r.perWorker[workerID] = w
}

// recordResourceUsage updates a worker's PID/CPU/RSS fields without
// touching its status machine; called by the periodic resource sampler.
func (r *Recorder) recordResourceUsage(workerID, pid int, cpuPercent float64, rssBytes uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w := r.perWorker[workerID]
	w.PID = pid
	w.CPUPercent = cpuPercent
	w.RSSBytes = rssBytes
	r.perWorker[workerID] = w
}
