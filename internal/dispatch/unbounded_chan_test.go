package dispatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnboundedChan_FIFOOrder(t *testing.T) {
	u := newUnboundedChan()
	defer u.Close()

	for i := 0; i < 50; i++ {
		u.Send(TaskSuccess{TaskID: uint64(i), WorkerID: 0})
	}

	for i := 0; i < 50; i++ {
		select {
		case r := <-u.Out():
			ts, ok := r.(TaskSuccess)
			require.True(t, ok)
			assert.Equal(t, uint64(i), ts.TaskID)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for item %d", i)
		}
	}
}

func TestUnboundedChan_SendNeverBlocksOnSlowConsumer(t *testing.T) {
	u := newUnboundedChan()
	defer u.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			u.Send(TaskSuccess{TaskID: uint64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked despite no consumer draining Out()")
	}
}

func TestUnboundedChan_CloseStopsPump(t *testing.T) {
	u := newUnboundedChan()
	u.Close()
	// Closing twice must not hang or panic.
	u.Close()
}
