package dispatch

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// captureLink builds an ipcLink whose sendResult writes decode back into
// a channel, letting processOne's output be observed without a real
// subprocess boundary.
func captureLink(t *testing.T) (*ipcLink, chan resultEnvelope) {
	t.Helper()
	pr, pw := io.Pipe()
	link := newChildLink(new(nopReader), pw)
	out := make(chan resultEnvelope, 8)
	dec := newChildLink(pr, io.Discard)
	go func() {
		for {
			env, err := dec.recvResult()
			if err != nil {
				close(out)
				return
			}
			out <- env
		}
	}()
	return link, out
}

type nopReader struct{}

func (nopReader) Read(p []byte) (int, error) { select {} }

func TestProcessOne_SuccessWithinTimeout(t *testing.T) {
	link, out := captureLink(t)
	done := make(chan struct{})
	go func() {
		processOne(link, fnWorker{process: func(any) (any, error) { return "ok", nil }}, 7, 1, "payload", 0.5, time.Second)
		close(done)
	}()

	select {
	case env := <-out:
		require.Equal(t, kindTaskSuccess, env.Kind)
		require.Equal(t, "ok", env.Data)
	case <-time.After(2 * time.Second):
		t.Fatal("no result observed")
	}
	<-done
}

func TestProcessOne_TimeoutAbandonsSlowCall(t *testing.T) {
	link, out := captureLink(t)
	slow := make(chan struct{})
	done := make(chan struct{})
	go func() {
		processOne(link, fnWorker{process: func(any) (any, error) {
			<-slow
			return "too late", nil
		}}, 7, 1, "payload", 0.1, 50*time.Millisecond)
		close(done)
	}()

	select {
	case env := <-out:
		require.Equal(t, kindTaskTimeout, env.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no timeout result observed")
	}
	<-done
	close(slow) // let the abandoned goroutine finish so the test process can exit cleanly
}

// fnWorker is a Worker whose Process delegates to a function, for unit
// tests that only exercise the worker-subprocess lifecycle machinery.
type fnWorker struct {
	process func(any) (any, error)
}

func (fnWorker) Setup(int, int64, Config) error { return nil }
func (w fnWorker) Process(p any) (any, error)   { return w.process(p) }
func (fnWorker) Cleanup() error                 { return nil }
