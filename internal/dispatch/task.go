package dispatch

// Task pairs a monotonically assigned id with an opaque, worker-defined
// payload. The dispatcher never inspects Payload; it only carries it from
// the feeder to a worker subprocess over the wire, so concrete payload
// types must be registered with gob (see RegisterPayloadType) before Run
// is called.
type Task struct {
	ID      uint64
	Payload any
}

// stopSentinel names the distinguished stop value. On the task channel it
// travels as a taskOrStop with isStop set, which tells a worker proxy to
// stop forwarding tasks and send a STOP message to its subprocess. It is
// never forwarded to a worker's Process method.
type stopSentinel struct{}

// taskOrStop is what actually flows through the bounded task channel: a
// real Task, or the stop sentinel enqueued once per worker during
// shutdown.
type taskOrStop struct {
	task   Task
	isStop bool
}
