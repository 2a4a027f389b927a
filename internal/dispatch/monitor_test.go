package dispatch

import (
	"testing"
	"time"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_DispatchesEachVariantToItsCallback(t *testing.T) {
	var successes, errorsSeen, timeouts, starts []uint64
	var setupFails []int

	m := &monitor{callbacks: Callbacks{
		OnSuccess:   func(taskID uint64, _ any, _ int) { successes = append(successes, taskID) },
		OnError:     func(taskID uint64, _ string, _ int) { errorsSeen = append(errorsSeen, taskID) },
		OnTimeout:   func(taskID uint64, _ float64, _ int) { timeouts = append(timeouts, taskID) },
		OnTaskStart: func(taskID uint64, _ int) { starts = append(starts, taskID) },
		OnSetupFail: func(workerID int, _ string) { setupFails = append(setupFails, workerID) },
	}}

	results := newUnboundedChan()
	defer results.Close()
	results.Send(TaskStarted{TaskID: 0, WorkerID: 0})
	results.Send(TaskSuccess{TaskID: 0, WorkerID: 0})
	results.Send(TaskStarted{TaskID: 1, WorkerID: 0})
	results.Send(TaskError{TaskID: 1, WorkerID: 0})
	results.Send(TaskStarted{TaskID: 2, WorkerID: 0})
	results.Send(TaskTimeout{TaskID: 2, WorkerID: 0})

	f := &feeder{}
	f.n.Store(3)
	f.done.Store(true)

	err := m.run(results, f, newShutdownSignal(), 1, logging.GetLogger("test"))
	require.NoError(t, err)

	assert.Equal(t, []uint64{0, 1, 2}, starts)
	assert.Equal(t, []uint64{0}, successes)
	assert.Equal(t, []uint64{1}, errorsSeen)
	assert.Equal(t, []uint64{2}, timeouts)
	assert.Empty(t, setupFails)
}

func TestMonitor_AllWorkersSetupFailedIsFatal(t *testing.T) {
	var setupFails int
	m := &monitor{callbacks: Callbacks{
		OnSuccess:   func(uint64, any, int) {},
		OnSetupFail: func(int, string) { setupFails++ },
	}}

	results := newUnboundedChan()
	defer results.Close()
	results.Send(SetupFailed{WorkerID: 0, ErrorText: "boom"})

	f := &feeder{}
	f.done.Store(false)

	err := m.run(results, f, newShutdownSignal(), 1, logging.GetLogger("test"))
	require.Error(t, err)
	var fatal *AllWorkersSetupFailedError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 1, setupFails)
	assert.Equal(t, "boom", fatal.Failures[0])
}

func TestMonitor_ExitsWhenShutdownSignalIsSet(t *testing.T) {
	m := &monitor{callbacks: Callbacks{OnSuccess: func(uint64, any, int) {}}}
	results := newUnboundedChan()
	defer results.Close()

	f := &feeder{}
	f.done.Store(false) // never completes on its own

	shutdown := newShutdownSignal()
	go func() {
		time.Sleep(20 * time.Millisecond)
		shutdown.Set()
	}()

	start := time.Now()
	err := m.run(results, f, shutdown, 1, logging.GetLogger("test"))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), monitorPoll*2+200*time.Millisecond)
}
