package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/dispatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectedResults gathers every callback invocation under a mutex so
// assertions can run once Run has returned.
type collectedResults struct {
	mu         sync.Mutex
	successes  map[uint64]any
	successWID map[uint64]int
	errors     map[uint64]string
	timeouts   map[uint64]float64
	starts     []uint64
	setupFails []string
	exits      int
}

func newCollectedResults() *collectedResults {
	return &collectedResults{
		successes:  make(map[uint64]any),
		successWID: make(map[uint64]int),
		errors:     make(map[uint64]string),
		timeouts:   make(map[uint64]float64),
	}
}

func (c *collectedResults) callbacks() dispatch.Callbacks {
	return dispatch.Callbacks{
		OnTaskStart: func(taskID uint64, workerID int) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.starts = append(c.starts, taskID)
		},
		OnSuccess: func(taskID uint64, result any, workerID int) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.successes[taskID] = result
			c.successWID[taskID] = workerID
		},
		OnError: func(taskID uint64, errorText string, workerID int) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.errors[taskID] = errorText
		},
		OnTimeout: func(taskID uint64, timeoutSeconds float64, workerID int) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.timeouts[taskID] = timeoutSeconds
		},
		OnSetupFail: func(workerID int, errorText string) {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.setupFails = append(c.setupFails, errorText)
		},
		OnExit: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			c.exits++
		},
	}
}

func intRange(n int) []any {
	items := make([]any, n)
	for i := 0; i < n; i++ {
		items[i] = i
	}
	return items
}

// S1 — basic doubling on a single device.
func TestScenario_BasicDoubling(t *testing.T) {
	ctrl, err := dispatch.NewController(dispatch.Params{
		WorkerName: "doubler",
		DeviceIDs:  []int{0},
		QueueSize:  16,
	})
	require.NoError(t, err)

	results := newCollectedResults()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = ctrl.Run(ctx, dispatch.NewSliceStream(intRange(10)), results.callbacks(), dispatch.RunOptions{
		DisableSignalHandling: true,
	})
	require.NoError(t, err)

	results.mu.Lock()
	defer results.mu.Unlock()
	assert.Len(t, results.successes, 10)
	for id, data := range results.successes {
		assert.Equal(t, int(id)*2, data)
		assert.Equal(t, 0, results.successWID[id])
	}
	assert.Empty(t, results.errors)
	assert.Empty(t, results.timeouts)
	assert.Equal(t, 1, results.exits)
}

// S2 — multi-device spread: every device handles at least one task, and
// per-device counts stay within 30% of the even share.
func TestScenario_MultiDeviceSpread(t *testing.T) {
	devices := []int{0, 1, 2, 3}
	ctrl, err := dispatch.NewController(dispatch.Params{
		WorkerName: "spread",
		DeviceIDs:  devices,
		QueueSize:  64,
	})
	require.NoError(t, err)

	results := newCollectedResults()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const n = 1000
	err = ctrl.Run(ctx, dispatch.NewSliceStream(intRange(n)), results.callbacks(), dispatch.RunOptions{
		DisableSignalHandling: true,
	})
	require.NoError(t, err)

	results.mu.Lock()
	defer results.mu.Unlock()
	require.Len(t, results.successes, n)

	perDevice := make(map[int]int)
	for id := range results.successes {
		perDevice[results.successWID[id]]++
	}
	for _, dev := range devices {
		count := perDevice[dev]
		assert.Greater(t, count, 0, "device %d handled no tasks", dev)
		share := float64(n) / float64(len(devices))
		assert.InDelta(t, share, float64(count), share*0.3,
			"device %d handled %d tasks, expected within 30%% of %.0f", dev, count, share)
	}
}

// S3 — error recovery: every tenth task errors, the rest succeed.
func TestScenario_ErrorRecovery(t *testing.T) {
	ctrl, err := dispatch.NewController(dispatch.Params{
		WorkerName: "faulty",
		DeviceIDs:  []int{0, 1},
		QueueSize:  32,
	})
	require.NoError(t, err)

	results := newCollectedResults()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	err = ctrl.Run(ctx, dispatch.NewSliceStream(intRange(100)), results.callbacks(), dispatch.RunOptions{
		DisableSignalHandling: true,
	})
	require.NoError(t, err)

	results.mu.Lock()
	defer results.mu.Unlock()
	assert.Len(t, results.successes, 90)
	assert.Len(t, results.errors, 10)

	wantErrorIDs := make(map[uint64]bool)
	for i := 0; i < 100; i += 10 {
		wantErrorIDs[uint64(i)] = true
	}
	gotErrorIDs := make(map[uint64]bool)
	for id := range results.errors {
		gotErrorIDs[id] = true
	}
	assert.Equal(t, wantErrorIDs, gotErrorIDs)
}

// S4 — a setup failure on the only configured worker is fatal: on_setup_fail
// fires once, Run returns AllWorkersSetupFailedError, and nothing succeeds.
func TestScenario_SetupFailureIsFatalWhenTotal(t *testing.T) {
	ctrl, err := dispatch.NewController(dispatch.Params{
		WorkerName: "setupfail",
		DeviceIDs:  []int{0},
		QueueSize:  16,
	})
	require.NoError(t, err)

	results := newCollectedResults()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = ctrl.Run(ctx, dispatch.NewSliceStream(intRange(10)), results.callbacks(), dispatch.RunOptions{
		DisableSignalHandling: true,
	})
	require.Error(t, err)
	var fatal *dispatch.AllWorkersSetupFailedError
	require.True(t, errors.As(err, &fatal))

	results.mu.Lock()
	defer results.mu.Unlock()
	assert.Len(t, results.setupFails, 1)
	assert.Empty(t, results.successes)
}

// S5 — every task times out because the worker sleeps longer than the
// configured task_timeout.
func TestScenario_Timeout(t *testing.T) {
	ctrl, err := dispatch.NewController(dispatch.Params{
		WorkerName: "sleeper",
		DeviceIDs:  []int{0},
		QueueSize:  16,
	})
	require.NoError(t, err)

	results := newCollectedResults()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	inputs := make([]any, 5)
	for i := range inputs {
		inputs[i] = 1.0
	}
	err = ctrl.Run(ctx, dispatch.NewSliceStream(inputs), results.callbacks(), dispatch.RunOptions{
		TaskTimeoutSeconds:    0.5,
		DisableSignalHandling: true,
	})
	require.NoError(t, err)
	elapsed := time.Since(start)

	results.mu.Lock()
	defer results.mu.Unlock()
	assert.Len(t, results.timeouts, 5)
	assert.Empty(t, results.successes)
	assert.LessOrEqual(t, elapsed, 10*time.Second)
}

// S6 — mixed sleep durations against a 1.0s timeout: the short sleeps
// succeed, the long ones time out.
func TestScenario_MixedTimeouts(t *testing.T) {
	ctrl, err := dispatch.NewController(dispatch.Params{
		WorkerName: "sleeper",
		DeviceIDs:  []int{0},
		QueueSize:  16,
	})
	require.NoError(t, err)

	results := newCollectedResults()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	durations := []float64{0.1, 0.1, 2.0, 0.1, 3.0, 0.1, 0.1}
	inputs := make([]any, len(durations))
	for i, d := range durations {
		inputs[i] = d
	}
	err = ctrl.Run(ctx, dispatch.NewSliceStream(inputs), results.callbacks(), dispatch.RunOptions{
		TaskTimeoutSeconds:    1.0,
		DisableSignalHandling: true,
	})
	require.NoError(t, err)

	results.mu.Lock()
	defer results.mu.Unlock()
	wantSuccess := map[uint64]bool{0: true, 1: true, 3: true, 5: true, 6: true}
	wantTimeout := map[uint64]bool{2: true, 4: true}

	gotSuccess := make(map[uint64]bool)
	for id := range results.successes {
		gotSuccess[id] = true
	}
	gotTimeout := make(map[uint64]bool)
	for id := range results.timeouts {
		gotTimeout[id] = true
	}
	assert.Equal(t, wantSuccess, gotSuccess)
	assert.Equal(t, wantTimeout, gotTimeout)
}
