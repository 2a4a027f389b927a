package dispatch

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/logging"
)

const feederPutPoll = 500 * time.Millisecond

// feeder runs on its own goroutine (the control-thread analogue from
// pulling payloads from the caller's InputStream, assigning
// task ids starting at 0, and enqueuing them on the bounded task channel.
// Because the channel's capacity bounds outstanding payloads, a feeder
// faster than the workers blocks at the put — the backpressure mechanism
// describes.
type feeder struct {
	n    atomic.Uint64 // final task count, valid once done is set
	done atomic.Bool
}

// Count returns the number of tasks actually enqueued so far; once Done
// reports true this is the final count of tasks the stream produced.
func (f *feeder) Count() uint64 { return f.n.Load() }

// Done reports whether the feeder has exited (stream exhausted, stream
// error, or shutdown observed).
func (f *feeder) Done() bool { return f.done.Load() }

// run is the feeder's goroutine body. Neither the feeder nor the monitor
// closes taskCh; that is the controller's responsibility during shutdown
// on the exit contract.
func (f *feeder) run(ctx context.Context, stream InputStream, taskCh chan<- taskOrStop, shutdown *shutdownSignal, logger *logging.Logger) {
	defer f.done.Store(true)

	var nextID uint64
	ticker := time.NewTicker(feederPutPoll)
	defer ticker.Stop()

	for {
		if shutdown.IsSet() {
			return
		}
		payload, ok, err := stream.Next(ctx)
		if err != nil {
			logger.WithError(err).Warn("input stream raised; feeder exiting")
			return
		}
		if !ok {
			return
		}

		item := taskOrStop{task: Task{ID: nextID, Payload: payload}}
	put:
		for {
			select {
			case taskCh <- item:
				nextID++
				f.n.Store(nextID)
				break put
			case <-shutdown.Done():
				return
			case <-ticker.C:
				// Poll bound: re-check shutdown while the channel is full.
			}
		}
	}
}
