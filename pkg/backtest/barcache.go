package backtest

import (
	"sync"

	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

// PriceMode selects which side of a tick feeds bar construction. Bid is
// the default and matches the canonical bar price source; Ask and Mid are
// offered as configuration, per the open question on bar price source.
type PriceMode int

const (
	PriceBid PriceMode = iota
	PriceAsk
	PriceMid
)

func priceOf(mode PriceMode, t model.Tick) fixed.Point {
	switch mode {
	case PriceAsk:
		return t.Ask
	case PriceMid:
		return t.Mid()
	default:
		return t.Bid
	}
}

// BarCache lazily derives and caches the bar series for each Timeframe it
// is asked about, sharing read-only access to the backing TickStore.
type BarCache struct {
	logger    *zap.Logger
	ticks     *TickStore
	priceMode PriceMode

	mu     sync.RWMutex
	series map[model.Timeframe][]model.Bar
}

type BarCacheOption func(*BarCache)

func WithPriceMode(mode PriceMode) BarCacheOption {
	return func(c *BarCache) {
		c.priceMode = mode
	}
}

func NewBarCache(logger *zap.Logger, ticks *TickStore, opts ...BarCacheOption) *BarCache {
	c := &BarCache{
		logger:    logger,
		ticks:     ticks,
		priceMode: PriceBid,
		series:    make(map[model.Timeframe][]model.Bar),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetLastBarsBefore returns count bars for timeframe whose open_timestamp
// is no later than before, ending at the latest such bar, in chronological
// order. It reports false when the window is out of range or fewer than
// count qualifying bars exist.
func (c *BarCache) GetLastBarsBefore(timeframe model.Timeframe, before int64, count int) ([]model.Bar, bool) {
	first, ok := c.ticks.FirstTimestamp()
	if !ok {
		return nil, false
	}
	last, _ := c.ticks.LastTimestamp()
	if before <= first || before > last {
		return nil, false
	}

	bars := c.barsFor(timeframe)

	idx := -1
	for i, b := range bars {
		if b.OpenTimestamp > before {
			break
		}
		idx = i
	}
	if idx < 0 {
		return nil, false
	}

	start := idx - count + 1
	if start < 0 {
		return nil, false
	}
	return bars[start : idx+1], true
}

func (c *BarCache) barsFor(timeframe model.Timeframe) []model.Bar {
	c.mu.RLock()
	bars, ok := c.series[timeframe]
	c.mu.RUnlock()
	if ok {
		return bars
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if bars, ok = c.series[timeframe]; ok {
		return bars
	}

	bars = calculateBars(timeframe, c.ticks.All(), c.priceMode)
	c.series[timeframe] = bars

	c.logger.Debug("built bar series",
		zap.Int("timeframe", int(timeframe)),
		zap.Int("bars", len(bars)))

	return bars
}

// calculateBars is the deterministic bar derivation algorithm: a single
// forward pass that folds ticks into the current bar until the timeframe's
// duration has elapsed since the bar's open, then emits and starts a new
// one.
func calculateBars(timeframe model.Timeframe, ticks []model.Tick, mode PriceMode) []model.Bar {
	if len(ticks) == 0 {
		return nil
	}

	duration := timeframe.Duration().Nanoseconds()

	open := priceOf(mode, ticks[0])
	cur := model.Bar{
		OpenTimestamp: ticks[0].TimeStamp,
		Open:          open,
		High:          open,
		Low:           open,
		Close:         open,
		TickVolume:    1,
	}

	var bars []model.Bar
	for _, t := range ticks[1:] {
		if t.TimeStamp-cur.OpenTimestamp >= duration {
			bars = append(bars, cur)
			p := priceOf(mode, t)
			cur = model.Bar{
				OpenTimestamp: t.TimeStamp,
				Open:          p,
				High:          p,
				Low:           p,
				Close:         p,
				TickVolume:    1,
			}
			continue
		}

		p := priceOf(mode, t)
		if p.Gt(cur.High) {
			cur.High = p
		}
		if p.Lt(cur.Low) {
			cur.Low = p
		}
		cur.Close = p
		cur.TickVolume++
	}
	bars = append(bars, cur)

	return bars
}
