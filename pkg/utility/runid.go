package utility

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// RunID identifies one Simulator.Run call. Every Trade and the Results it
// produces carry the same RunID, so a report or log line can be traced
// back to the run that produced it even after many runs — an optimizer
// sweep, say — have interleaved their output across goroutines.
//
// There is deliberately no package-global "current run" here. A live
// trading system has exactly one execution in flight at a time, which is
// why a singleton makes sense there; a backtest sweep runs many strategies
// concurrently through Optimizer.RunParallel, and each of those runs needs
// its own id that never leaks into another run's logs or trades. Simulator
// mints a RunID once at the top of Run and closes over it for the rest of
// that call, so two workers running at once each hold a distinct value
// with nothing shared to lock or race on.
type RunID uuid.UUID

// NewRunID mints a fresh, time-ordered (UUIDv7) RunID. Call it once per
// run; never cache or share the result across runs.
func NewRunID() RunID {
	return RunID(uuid.Must(uuid.NewV7()))
}

func (id RunID) String() string {
	return uuid.UUID(id).String()
}

func (id RunID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// TraceID is a run's identity folded down to a single uint64 — cheap
// enough to attach to every structured log line a run emits (the
// "trace_id" field) without paying UUID-string formatting cost per tick.
type TraceID = uint64

// Trace derives id's TraceID from id's own bytes, so the per-tick logging
// correlation field and the per-trade/per-result RunID always agree about
// which run they belong to. There is no second id scheme to keep in sync
// and nothing to mint separately: a UUIDv7 already starts with a
// millisecond timestamp, and folding its high 8 bytes down to a uint64
// preserves that ordering in the derived TraceID too.
func (id RunID) Trace() TraceID {
	return binary.BigEndian.Uint64(id[:8])
}
