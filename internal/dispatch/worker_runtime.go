package dispatch

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"time"
)

const (
	workerSubprocessEnv = "DISPATCH_WORKER_SUBPROCESS"
	workerNameEnv       = "DISPATCH_WORKER_NAME"
	controlFD           = 3
	resultFD            = 4
)

// RunWorkerSubprocessIfRequested must be called at the very top of
// main(), before any flag parsing or other setup, in any program that
// registers workers with dispatch.Register. When the process was spawned
// by a Controller as a worker subprocess it runs the worker's lifecycle
// state machine to completion and returns true, telling the caller's
// main() to return immediately without falling through to the program's
// ordinary entry point. This is the re-exec pattern Go's own tooling
// (and e.g. container runtimes) use to get a second entry point into the
// same binary without a second binary to ship.
func RunWorkerSubprocessIfRequested() bool {
	if os.Getenv(workerSubprocessEnv) == "" {
		return false
	}
	runWorkerSubprocess()
	return true
}

func runWorkerSubprocess() {
	name := os.Getenv(workerNameEnv)
	factory, ok := lookup(name)
	if !ok {
		// Nothing to report to: the parent hasn't even sent an init
		// message yet that would identify a worker id. Fail loudly on
		// stderr and exit; the parent observes the pipe closing without
		// a SetupFailed and treats it the same way.
		fmt.Fprintf(os.Stderr, "dispatch: worker subprocess: %v\n", factoryNameError(name))
		os.Exit(1)
	}

	controlR := os.NewFile(controlFD, "dispatch-control")
	resultW := os.NewFile(resultFD, "dispatch-result")
	link := newChildLink(controlR, resultW)

	ctl, err := link.recvControl()
	if err != nil || ctl.Kind != controlInit {
		os.Exit(1)
	}

	w := factory()
	workerID := ctl.DeviceID

	setupErr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in Setup: %v\n%s", r, debug.Stack())
			}
		}()
		return w.Setup(ctl.DeviceID, ctl.Seed, ctl.Config)
	}()
	if setupErr != nil {
		_ = link.sendResult(resultEnvelope{Kind: kindSetupFailed, WorkerID: workerID, ErrorText: captureErrorText(setupErr)})
		return
	}
	_ = link.sendResult(resultEnvelope{Kind: kindReady, WorkerID: workerID})

	taskTimeout := ctl.TaskTimeoutSeconds
	var armDuration time.Duration
	if taskTimeout > 0 {
		secs := math.Ceil(taskTimeout+0.5)
		if secs < 1 {
			secs = 1
		}
		armDuration = time.Duration(secs * float64(time.Second))
	}

	for {
		ctl, err := link.recvControl()
		if err != nil {
			break // parent closed the pipe: treat as shutdown.
		}
		if ctl.Kind == controlStop {
			break
		}
		if ctl.Kind != controlTask {
			continue
		}

		_ = link.sendResult(resultEnvelope{Kind: kindTaskStarted, TaskID: ctl.TaskID, WorkerID: workerID})

		processOne(link, w, workerID, ctl.TaskID, ctl.Payload, taskTimeout, armDuration)
	}

	cleanupErr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in Cleanup: %v\n%s", r, debug.Stack())
			}
		}()
		return w.Cleanup()
	}()
	if cleanupErr != nil {
		_ = link.sendResult(resultEnvelope{Kind: kindCleanupFailed, WorkerID: workerID, ErrorText: captureErrorText(cleanupErr)})
	}
}

type processOutcome struct {
	data any
	err  error
}

// processOne runs one task's Process call, racing it against the armed
// timeout when one is configured. A timeout abandons the call rather than
// cancelling it — in-flight Process calls are not cancelled, they
// complete or time out naturally, and the goroutine below keeps
// running and its eventual result is simply discarded once the timer has
// already reported TaskTimeout.
func processOne(link *ipcLink, w Worker, workerID int, taskID uint64, payload any, taskTimeoutSeconds float64, armDuration time.Duration) {
	done := make(chan processOutcome, 1)

	if armDuration <= 0 {
		runProcess(w, payload, done)
		outcome := <-done
		emitOutcome(link, workerID, taskID, outcome)
		return
	}

	// Arm the timer before launching the call: a Process duration that
	// exactly ties armDuration must time out, not race a goroutine that
	// only starts after this point.
	timer := time.NewTimer(armDuration)
	defer timer.Stop()
	runProcess(w, payload, done)
	select {
	case outcome := <-done:
		emitOutcome(link, workerID, taskID, outcome)
	case <-timer.C:
		_ = link.sendResult(resultEnvelope{
			Kind: kindTaskTimeout, TaskID: taskID, WorkerID: workerID,
			TimeoutSeconds: taskTimeoutSeconds,
		})
	}
}

func runProcess(w Worker, payload any, done chan<- processOutcome) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- processOutcome{err: fmt.Errorf("panic in Process: %v\n%s", r, debug.Stack())}
			}
		}()
		data, err := w.Process(payload)
		done <- processOutcome{data: data, err: err}
	}()
}

func emitOutcome(link *ipcLink, workerID int, taskID uint64, outcome processOutcome) {
	if outcome.err != nil {
		_ = link.sendResult(resultEnvelope{Kind: kindTaskError, TaskID: taskID, WorkerID: workerID, ErrorText: captureErrorText(outcome.err)})
		return
	}
	_ = link.sendResult(resultEnvelope{Kind: kindTaskSuccess, TaskID: taskID, WorkerID: workerID, Data: outcome.data})
}
