package dispatch

import (
	"encoding/gob"
	"fmt"
	"sync"
)

// Config is the keyword configuration forwarded to Setup: a typed
// string-keyed mapping rather than the variadic kwargs of the source
// system.
type Config map[string]any

// Worker is the three-method capability contract a caller implements.
// The dispatcher accepts any value satisfying it; it replaces an
// inheritance hierarchy with a polymorphic interface.
//
// A Worker instance lives entirely inside its own subprocess: the
// controller never calls these methods directly, only through the
// worker_runtime/ipc machinery, so a Worker is free to hold unexported,
// unserializable state (open device handles, loaded models) between
// calls.
type Worker interface {
	// Setup performs one-time initialization: model load, device
	// selection, seeding. May return an error.
	Setup(deviceID int, seed int64, config Config) error
	// Process handles one payload and returns its result. May return an
	// error.
	Process(payload any) (any, error)
	// Cleanup runs once after the dequeue loop exits, win or lose. May
	// return an error; a failure here is reported but does not affect
	// the task stream.
	Cleanup() error
}

// Factory constructs a fresh Worker instance. It runs inside the worker
// subprocess, never in the controller process, so it must not close over
// controller-side state.
type Factory func() Worker

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register associates name with a worker Factory. The controller process
// records the name (not the Factory) on a Controller; the worker
// subprocess, which is a re-exec of the same binary, looks the name back
// up in its own copy of the registry to build a fresh Worker. Register is
// typically called from an init function in the same package that calls
// Controller.Run.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

func lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// RegisterPayloadType and RegisterResultType tell encoding/gob about a
// concrete payload or result type flowing across the worker pipe. gob
// requires concrete types behind an any to be registered before they can
// be encoded or decoded; call these once at program start for every type
// a Worker's Process may receive or return.
func RegisterPayloadType(v any) { gob.Register(v) }
func RegisterResultType(v any)  { gob.Register(v) }

func factoryNameError(name string) error {
	return &ConfigurationError{Reason: fmt.Sprintf("no worker registered under name %q", name)}
}
