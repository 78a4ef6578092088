package backtest

import (
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/pkg/bus"
	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/strategy"
	"github.com/kestrel-quant/backtest/pkg/utility"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

func timeOf(tick model.Tick) time.Time {
	return time.Unix(0, tick.TimeStamp)
}

// Simulator drives ticks from a TickStore to a strategy at a chosen
// stride, maintaining an AccountLedger and PositionBook for the duration
// of a single run. Its BarCache is built once, at construction, and
// shared read-only across every Run call — an optimizer sweep spins up
// many strategies against the same Simulator, and each must hit the same
// cached bar series rather than re-deriving it from scratch.
type Simulator struct {
	logger *zap.Logger
	ticks  *TickStore
	period model.SimulationPeriod
	props  model.AccountProperties
	router *bus.Router

	bars         *BarCache
	barCacheOpts []BarCacheOption
	audit        *Audit
	liveBarTF    *model.Timeframe
}

type SimulatorOption func(*Simulator)

func WithRouter(router *bus.Router) SimulatorOption {
	return func(s *Simulator) {
		s.router = router
	}
}

func WithBarCacheOptions(opts ...BarCacheOption) SimulatorOption {
	return func(s *Simulator) {
		s.barCacheOpts = opts
	}
}

// WithAudit attaches an Audit that records an account snapshot on every
// delivered tick and every closed trade, so a report can be generated
// from it once Run returns.
func WithAudit(audit *Audit) SimulatorOption {
	return func(s *Simulator) {
		s.audit = audit
	}
}

// WithLiveBarEvents makes Run fold delivered ticks into bars of timeframe
// as they arrive and post each one to the Router the moment it closes,
// independent of BarCache's on-demand batch derivation.
func WithLiveBarEvents(timeframe model.Timeframe) SimulatorOption {
	return func(s *Simulator) {
		s.liveBarTF = &timeframe
	}
}

func NewSimulator(logger *zap.Logger, ticks *TickStore, period model.SimulationPeriod, props model.AccountProperties, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		logger: logger,
		ticks:  ticks,
		period: period,
		props:  props,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.bars = NewBarCache(logger, ticks, s.barCacheOpts...)
	return s
}

// Run executes one full simulation for the given strategy, an isolated
// AccountLedger, PositionBook and SimBroker bound for the duration of the
// call.
func (s *Simulator) Run(strat strategy.Strategy) model.Results {
	runID := utility.NewRunID()
	runLogger := s.logger.With(zap.Uint64("trace_id", runID.Trace()))

	ledger := NewAccountLedger(runLogger, s.props)
	book := NewPositionBook(runLogger, ledger)
	broker := newSimBroker(ledger, book, s.bars, s.router)

	runLogger.Info("run starting", zap.String("execution_id", runID.String()))

	if strat.Start(broker) == strategy.Stop {
		return s.resultsFrom(runID, ledger, book)
	}

	var trades []model.Trade
	deliver := strideFunc(s.period)

	var lastBalance, lastEquity fixed.Point
	tracked := false

	terminated := false

	stamp := func(t model.Trade) model.Trade {
		t.ExecutionID = runID
		return t
	}

	var liveBars *liveAggregator
	if s.liveBarTF != nil {
		liveBars = newLiveAggregator(*s.liveBarTF)
	}

	for i := 0; i < s.ticks.Len(); i++ {
		tick := s.ticks.At(i)
		if !deliver(tick.TimeStamp) {
			continue
		}
		broker.setTick(tick)

		for _, t := range book.CheckPriceEvents(tick, timeOf(tick)) {
			t = stamp(t)
			trades = append(trades, t)
			s.postTradeClosed(t)
			s.auditTrade(t)
		}

		if liveBars != nil {
			if bar, closed := liveBars.onTick(tick, func(t model.Tick) fixed.Point { return priceOf(PriceBid, t) }); closed && s.router != nil {
				s.router.PostBar(bar)
			}
		}

		state := ledger.OnTick(tick)
		s.postBalanceEquity(ledger, &lastBalance, &lastEquity, &tracked)
		s.postPnLUpdates(book)
		s.auditSnapshot(ledger, timeOf(tick))

		switch state {
		case model.NonpositiveAccountBalance:
			for _, t := range book.CloseAll(tick, timeOf(tick)) {
				t = stamp(t)
				trades = append(trades, t)
				s.postTradeClosed(t)
				s.auditTrade(t)
			}
			terminated = true
		case model.MarginCall:
			if t, ok := book.ForceCloseOne(tick, timeOf(tick)); ok {
				t = stamp(t)
				trades = append(trades, t)
				s.postTradeClosed(t)
				s.auditTrade(t)
			}
		case model.MarginCallWarning:
			strat.OnMarginCallWarning()
		}

		if terminated {
			break
		}

		if strat.OnTick(tick) == strategy.Stop {
			break
		}
	}

	strat.End()

	return model.Results{
		ExecutionID:   runID,
		Balance:       ledger.Balance(),
		TotalEquity:   ledger.TotalEquity(),
		OpenPositions: book.OpenPositions(),
		Trades:        trades,
	}
}

func (s *Simulator) resultsFrom(runID utility.RunID, ledger *AccountLedger, book *PositionBook) model.Results {
	return model.Results{
		ExecutionID:   runID,
		Balance:       ledger.Balance(),
		TotalEquity:   ledger.TotalEquity(),
		OpenPositions: book.OpenPositions(),
		Trades:        nil,
	}
}

func (s *Simulator) auditSnapshot(ledger *AccountLedger, at time.Time) {
	if s.audit != nil {
		s.audit.AddAccountSnapshot(ledger.Balance(), ledger.TotalEquity(), at)
	}
}

func (s *Simulator) auditTrade(t model.Trade) {
	if s.audit != nil {
		s.audit.AddClosedTrade(t)
	}
}

func (s *Simulator) postTradeClosed(t model.Trade) {
	if s.router != nil {
		s.router.PostPositionClosed(t)
	}
}

func (s *Simulator) postPnLUpdates(book *PositionBook) {
	if s.router == nil {
		return
	}
	for _, p := range book.OpenPositions() {
		s.router.PostPositionPnLUpdated(p)
	}
}

func (s *Simulator) postBalanceEquity(ledger *AccountLedger, lastBalance, lastEquity *fixed.Point, tracked *bool) {
	if s.router == nil {
		return
	}
	balance := ledger.Balance()
	equity := ledger.TotalEquity()
	if !*tracked || !balance.Eq(*lastBalance) {
		s.router.PostBalance(balance)
	}
	if !*tracked || !equity.Eq(*lastEquity) {
		s.router.PostEquity(equity)
	}
	*lastBalance, *lastEquity, *tracked = balance, equity, true
}

// strideFunc implements the stride policy: with Tick every timestamp is
// delivered; otherwise a next-deliver timestamp starts at the first seen
// timestamp and advances by the period's duration each time a tick is
// delivered, skipping everything strictly before it.
func strideFunc(period model.SimulationPeriod) func(ts int64) bool {
	if period == model.Tick {
		return func(int64) bool { return true }
	}

	duration := period.Duration().Nanoseconds()
	var next int64
	initialized := false

	return func(ts int64) bool {
		if !initialized {
			next = ts
			initialized = true
		}
		if ts < next {
			return false
		}
		next += duration
		return true
	}
}
