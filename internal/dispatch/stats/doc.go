// Package stats implements a statistics overlay: a
// Recorder that intercepts a dispatch.Callbacks to maintain a
// concurrently-readable snapshot of run progress, an optional
// ResourceSampler that extends each worker's row with OS-level CPU/RSS
// sampled by PID, and a Renderer abstraction a caller can drive at a
// fixed rate.
//
// Typical wiring:
//
//	recorder := stats.NewRecorder()
//	sampler := stats.NewResourceSampler(recorder)
//	opts := dispatch.RunOptions{
//	    OnWorkerSpawned: func(workerID, pid int) { sampler.Track(workerID, pid) },
//	}
//	recorder.Start(controllerDeviceIDs)
//	go stats.RunRenderer(ctx, recorder, 1, stats.TextRenderer{W: os.Stdout})
//	err := controller.Run(ctx, stream, recorder.Wrap(callbacks), opts)
package stats
