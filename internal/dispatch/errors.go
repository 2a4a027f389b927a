package dispatch

import "fmt"

// ConfigurationError reports a precondition violation, returned
// synchronously by NewController (wrong worker registration, empty or
// duplicate device list, negative queue size) or at the start of
// Controller.Run (missing Callbacks.OnSuccess).
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("dispatch: configuration error: %s", e.Reason)
}

// AllWorkersSetupFailedError is the only fatal in-loop condition: every
// spawned worker failed Setup, so the monitor aborts the run. The caller
// receives this error from Controller.Run.
type AllWorkersSetupFailedError struct {
	Failures map[int]string // worker id -> captured error text
}

func (e *AllWorkersSetupFailedError) Error() string {
	return fmt.Sprintf("dispatch: all %d worker(s) failed setup", len(e.Failures))
}

// captureErrorText flattens a Process/Setup/Cleanup failure into the
// string a worker subprocess reports back across the pipe, not a typed Go
// error (the worker runs in a different process and, in the reference
// implementation, may not share error types with the controller). The
// string is the error's message: for a recovered panic that message
// already includes the goroutine stack trace; a returned error carries no
// stack trace.
func captureErrorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
