// Package progress defines the engine's observability surface (spec.md §6):
// a sink receiving (phase, fraction_complete, eta_seconds) events at least
// once per committed Allocator iteration and at coarse checkpoints during
// Fabric construction.
package progress

import "go.uber.org/zap"

// Sink receives progress events. Implementations must not block the caller
// for long — the Allocator reports once per commit, inline in its loop.
type Sink interface {
	Report(phase string, fractionComplete float64, etaSeconds float64)
}

// NullSink discards all events. Used in tests and library call sites that
// don't want progress reporting.
type NullSink struct{}

// Report implements Sink.
func (NullSink) Report(string, float64, float64) {}

// ZapSink logs progress events through a zap.SugaredLogger, the way the
// teacher's cmd/preprocess/main.go logs staged progress via log.Printf,
// adapted to the pack's structured-logging idiom.
type ZapSink struct {
	Log *zap.SugaredLogger
}

// Report implements Sink.
func (z ZapSink) Report(phase string, fractionComplete float64, etaSeconds float64) {
	if z.Log == nil {
		return
	}
	z.Log.Infow("progress", "phase", phase, "fraction_complete", fractionComplete, "eta_seconds", etaSeconds)
}
