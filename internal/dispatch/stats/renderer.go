package stats

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"
)

// Renderer drains periodic Snapshots at a fixed rate to redraw an
// overall progress display. A real terminal UI is an external
// collaborator; TextRenderer below is the trivial in-repo reference
// implementation.
type Renderer interface {
	Render(s Snapshot)
}

// TextRenderer writes a one-line summary of each snapshot to an
// io.Writer, suitable for a log file or a plain terminal without a TUI
// library.
type TextRenderer struct {
	W io.Writer
}

func (t TextRenderer) Render(s Snapshot) {
	now := time.Now()
	fmt.Fprintf(t.W, "[%s] total=%d completed=%d failed=%d timeouts=%d setup_failures=%d throughput=%.2f/s\n",
		now.Format(time.RFC3339), s.Total, s.Completed, s.Failed, s.Timeouts, s.SetupFailures, s.Throughput(now))
}

// RunRenderer drains r's recorder at up to ratePerSecond snapshots per
// second until ctx is done, forwarding each to renderer. A
// golang.org/x/time/rate.Limiter paces the draining rather than a bare
// time.Ticker so callers can express fractional or sub-second rates
// uniformly and so the first render happens immediately (Wait on a fresh
// limiter with burst 1 never blocks).
func RunRenderer(ctx context.Context, recorder *Recorder, ratePerSecond float64, renderer Renderer) {
	limiter := rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		renderer.Render(recorder.Snapshot())
		if ctx.Err() != nil {
			return
		}
	}
}
