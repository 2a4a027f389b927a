package dispatch

import "sync"

// shutdownSignal is a level-triggered broadcast flag observed by the
// feeder, every worker proxy, and the monitor. Once set it is never
// cleared for the life of a run.
//
// It is implemented as a closeable channel guarded by sync.Once rather
// than a condition variable: every participant already selects on other
// channels (task/result channel, poll tickers), and Done() composes
// directly into those selects without an extra goroutine per waiter.
type shutdownSignal struct {
	once sync.Once
	ch   chan struct{}
}

func newShutdownSignal() *shutdownSignal {
	return &shutdownSignal{ch: make(chan struct{})}
}

// Set raises the signal. Idempotent.
func (s *shutdownSignal) Set() {
	s.once.Do(func() { close(s.ch) })
}

// IsSet reports whether the signal has been raised, without blocking.
func (s *shutdownSignal) IsSet() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the signal is set, for use
// directly in select statements.
func (s *shutdownSignal) Done() <-chan struct{} {
	return s.ch
}
