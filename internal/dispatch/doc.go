// Package dispatch fans a stream of input items out to a fixed pool of
// process-isolated workers, one per accelerator device, and funnels
// per-task outcomes back to the caller through callbacks.
//
// The package separates the concurrency primitive from its surrounding
// lifecycle management: result.go and task.go hold the wire data model,
// worker.go the user-facing contract, feeder.go/monitor.go the two
// control-plane goroutines, worker_runtime.go/ipc.go/worker_proxy.go the
// process-isolated worker boundary, and controller.go the public entry
// point that wires everything together and owns shutdown.
//
// Architecture Compliance:
//   - Process isolation: worker bodies run in a spawned child process with
//     no inherited mutable state, communicating over a pipe.
//   - A single level-triggered shutdown signal is the sole cancellation
//     primitive; every blocking wait in the package uses a short poll
//     timeout so the signal is observed within bounded time.
//   - No result ordering guarantee, no automatic retry, no dynamic worker
//     pool resizing, no cross-host distribution.
package dispatch
