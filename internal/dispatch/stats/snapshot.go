// Package stats implements a statistics overlay: a
// wrapper around dispatch.Callbacks that maintains a concurrently
// readable statistics record and optionally drives a periodic renderer.
package stats

import "time"

// WorkerStatus is the per-worker status machine:
// initializing -> processing <-> idle -> finished (normal), or ->
// error on a setup failure. finished and error are terminal;
// processing and idle alternate for the life of the worker.
type WorkerStatus string

const (
	WorkerInitializing WorkerStatus = "initializing"
	WorkerProcessing   WorkerStatus = "processing"
	WorkerIdle         WorkerStatus = "idle"
	WorkerFinished     WorkerStatus = "finished"
	WorkerError        WorkerStatus = "error"
)

// WorkerSnapshot is one worker's row in a Snapshot.
type WorkerSnapshot struct {
	Status        WorkerStatus
	CurrentTaskID *uint64
	TaskStartTime time.Time
	LastDuration  time.Duration
	Completed     int
	Failed        int
	Timeouts      int

	// PID/CPUPercent/RSSBytes extend the distilled spec's fields with
	// OS-level resource sampling (see resource.go), grounded on the
	// teacher's system metrics manager
	// (internal/mediamtx/system_metrics_manager.go).
	PID        int
	CPUPercent float64
	RSSBytes   uint64
}

// Snapshot is a deep copy of the statistics record taken under the
// recorder's lock, safe to read or render without further
// synchronization.
type Snapshot struct {
	Total         int
	Completed     int
	Failed        int
	Timeouts      int
	SetupFailures int
	StartTime     time.Time
	EndTime       time.Time
	PerWorker     map[int]WorkerSnapshot
}

// Elapsed is EndTime-StartTime once the run has finished, or now-StartTime
// while it is still in progress (EndTime left at its zero value).
func (s Snapshot) Elapsed(now time.Time) time.Duration {
	end := s.EndTime
	if end.IsZero() {
		end = now
	}
	if s.StartTime.IsZero() {
		return 0
	}
	return end.Sub(s.StartTime)
}

// Throughput returns completed-plus-failed-plus-timed-out tasks per
// second of elapsed wall clock.
func (s Snapshot) Throughput(now time.Time) float64 {
	elapsed := s.Elapsed(now).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.Completed+s.Failed+s.Timeouts) / elapsed
}
