package integration

import (
	"fmt"
	"time"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/dispatch"
)

func init() {
	dispatch.RegisterPayloadType(int(0))
	dispatch.RegisterResultType(int(0))
	dispatch.RegisterPayloadType(float64(0))
	dispatch.RegisterResultType(float64(0))

	dispatch.Register("doubler", func() dispatch.Worker { return &doublerWorker{} })
	dispatch.Register("spread", func() dispatch.Worker { return &spreadWorker{} })
	dispatch.Register("faulty", func() dispatch.Worker { return &faultyWorker{} })
	dispatch.Register("setupfail", func() dispatch.Worker { return &setupFailWorker{} })
	dispatch.Register("sleeper", func() dispatch.Worker { return &sleeperWorker{} })
}

// doublerWorker returns its int payload multiplied by two.
type doublerWorker struct{}

func (*doublerWorker) Setup(int, int64, dispatch.Config) error { return nil }
func (*doublerWorker) Process(payload any) (any, error)        { return payload.(int) * 2, nil }
func (*doublerWorker) Cleanup() error                          { return nil }

// spreadWorker performs trivial unit work, for multi-device distribution tests.
type spreadWorker struct{}

func (*spreadWorker) Setup(int, int64, dispatch.Config) error { return nil }
func (*spreadWorker) Process(payload any) (any, error)        { return payload, nil }
func (*spreadWorker) Cleanup() error                          { return nil }

// faultyWorker errors whenever its int payload is a multiple of 10.
type faultyWorker struct{}

func (*faultyWorker) Setup(int, int64, dispatch.Config) error { return nil }
func (*faultyWorker) Process(payload any) (any, error) {
	n := payload.(int)
	if n%10 == 0 {
		return nil, fmt.Errorf("faulty worker: rejecting multiple of ten: %d", n)
	}
	return n, nil
}
func (*faultyWorker) Cleanup() error { return nil }

// setupFailWorker always fails Setup, for the all-workers-setup-failed scenario.
type setupFailWorker struct{}

func (*setupFailWorker) Setup(int, int64, dispatch.Config) error {
	return fmt.Errorf("setupfail worker: intentional setup failure")
}
func (*setupFailWorker) Process(payload any) (any, error) { return payload, nil }
func (*setupFailWorker) Cleanup() error                   { return nil }

// sleeperWorker treats its payload as a sleep duration in seconds and
// returns it unchanged once the sleep completes.
type sleeperWorker struct{}

func (*sleeperWorker) Setup(int, int64, dispatch.Config) error { return nil }
func (*sleeperWorker) Process(payload any) (any, error) {
	seconds := payload.(float64)
	time.Sleep(time.Duration(seconds * float64(time.Second)))
	return seconds, nil
}
func (*sleeperWorker) Cleanup() error { return nil }
