package bus

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

// Router is a synchronous side channel for observing a running simulation.
// Post dispatches to the matching handler in-line, on the caller's
// goroutine — there is no internal queue or worker loop. This keeps the
// simulation's per-tick ordering strictly single-threaded; the bus exists
// for auditing and telemetry, never for invoking a strategy's hooks.
//
// A single Router may be handed to several Simulators and observed by an
// Optimizer.RunParallel sweep, where each worker goroutine posts through it
// concurrently. The handler fields themselves are set up once before the
// sweep starts and only ever read afterward, so dispatch needs no locking,
// but the statistics counters below are mutated by every Post call and
// read by PrintStatistics, so they're guarded by statsMu the same way
// BarCache guards its derived-bars map against concurrent workers.
type Router struct {
	logger *zap.Logger

	BalanceHandler            BalanceEventHandler
	EquityHandler             EquityEventHandler
	PositionOpenedHandler     PositionOpenedEventHandler
	PositionClosedHandler     PositionClosedEventHandler
	PositionPnLUpdatedHandler PositionPnLUpdatedEventHandler
	BarHandler                BarEventHandler

	statsMu       sync.Mutex
	postCount     uint64
	dispatchFails uint64
	startedAt     time.Time
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		logger:    logger,
		startedAt: time.Time{},
	}
}

func (r *Router) PostBalance(balance fixed.Point) {
	r.mark()
	if r.BalanceHandler != nil {
		r.BalanceHandler(balance)
	}
}

func (r *Router) PostEquity(equity fixed.Point) {
	r.mark()
	if r.EquityHandler != nil {
		r.EquityHandler(equity)
	}
}

func (r *Router) PostPositionOpened(p model.Position) {
	r.mark()
	if r.PositionOpenedHandler != nil {
		r.PositionOpenedHandler(p)
	}
}

func (r *Router) PostPositionClosed(t model.Trade) {
	r.mark()
	if r.PositionClosedHandler != nil {
		r.PositionClosedHandler(t)
	}
}

func (r *Router) PostPositionPnLUpdated(p model.Position) {
	r.mark()
	if r.PositionPnLUpdatedHandler != nil {
		r.PositionPnLUpdatedHandler(p)
	}
}

func (r *Router) PostBar(b model.Bar) {
	r.mark()
	if r.BarHandler != nil {
		r.BarHandler(b)
	}
}

func (r *Router) mark() {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()

	if r.startedAt.IsZero() {
		r.startedAt = time.Now()
	}
	r.postCount++
}

// PrintStatistics logs a summary of this router's lifetime activity. Safe
// to call at any point, including before any event has been posted, and
// while other goroutines are still posting to the same Router.
func (r *Router) PrintStatistics() {
	r.statsMu.Lock()
	postCount, dispatchFails, startedAt := r.postCount, r.dispatchFails, r.startedAt
	r.statsMu.Unlock()

	runTime := time.Duration(0)
	if !startedAt.IsZero() {
		runTime = time.Since(startedAt)
	}
	r.logger.Info("router statistics",
		zap.Uint64("post_count", postCount),
		zap.Uint64("dispatch_fails", dispatchFails),
		zap.Duration("run_time", runTime))
}
