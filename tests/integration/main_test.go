// Package integration runs the dispatcher end to end against real OS
// subprocesses: the test binary itself is the worker executable,
// re-exec'd the same way a production binary built around
// dispatch.RunWorkerSubprocessIfRequested would be.
package integration

import (
	"os"
	"testing"

	"github.com/camerarecorder/mediamtx-camera-service-go/internal/dispatch"
)

func TestMain(m *testing.M) {
	if dispatch.RunWorkerSubprocessIfRequested() {
		return
	}
	os.Exit(m.Run())
}
