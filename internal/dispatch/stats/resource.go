package stats

import (
	"context"
	"sync"

	"github.com/shirou/gopsutil/v3/process"
)

// ResourceSampler periodically samples OS-level resource usage for a set
// of worker PIDs and feeds it back into a Recorder, sampling per-process
// CPU/RSS by PID via gopsutil's process package.
type ResourceSampler struct {
	recorder *Recorder

	mu   sync.Mutex
	pids map[int]int // worker id -> pid
}

// NewResourceSampler creates a sampler that updates recorder.
func NewResourceSampler(recorder *Recorder) *ResourceSampler {
	return &ResourceSampler{recorder: recorder, pids: make(map[int]int)}
}

// Track registers the subprocess PID backing workerID, called once the
// worker proxy has spawned its subprocess. Safe to call concurrently from
// multiple worker proxy goroutines.
func (s *ResourceSampler) Track(workerID, pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pids[workerID] = pid
}

// SampleOnce reads CPU percent and resident set size for every tracked
// PID and records them. A process that cannot be opened (it may already
// have exited) is skipped, leaving that worker's last known sample in
// place; if only its CPU or memory reading fails, that field is recorded
// as 0.
func (s *ResourceSampler) SampleOnce(ctx context.Context) {
	s.mu.Lock()
	pids := make(map[int]int, len(s.pids))
	for k, v := range s.pids {
		pids[k] = v
	}
	s.mu.Unlock()

	for workerID, pid := range pids {
		proc, err := process.NewProcessWithContext(ctx, int32(pid))
		if err != nil {
			continue
		}
		cpuPercent, err := proc.CPUPercentWithContext(ctx)
		if err != nil {
			cpuPercent = 0
		}
		var rss uint64
		if mem, err := proc.MemoryInfoWithContext(ctx); err == nil && mem != nil {
			rss = mem.RSS
		}
		s.recorder.recordResourceUsage(workerID, pid, cpuPercent, rss)
	}
}
