package backtest

import (
	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

// liveAggregator folds delivered ticks into bars of a single timeframe as
// a simulation runs, independent of BarCache's lazy batch derivation. It
// exists purely so a Router can be notified the moment a bar closes,
// rather than only on demand through GetLastBars.
type liveAggregator struct {
	timeframe model.Timeframe
	duration  int64

	current model.Bar
	open    bool
}

func newLiveAggregator(timeframe model.Timeframe) *liveAggregator {
	return &liveAggregator{timeframe: timeframe, duration: timeframe.Duration().Nanoseconds()}
}

// onTick folds tick into the in-progress bar, returning the bar that just
// closed if tick belongs to the next bucket.
func (a *liveAggregator) onTick(tick model.Tick, price func(model.Tick) fixed.Point) (model.Bar, bool) {
	p := price(tick)

	if !a.open {
		a.current = model.Bar{OpenTimestamp: tick.TimeStamp, Open: p, High: p, Low: p, Close: p, TickVolume: 1}
		a.open = true
		return model.Bar{}, false
	}

	if tick.TimeStamp-a.current.OpenTimestamp >= a.duration {
		closed := a.current
		a.current = model.Bar{OpenTimestamp: tick.TimeStamp, Open: p, High: p, Low: p, Close: p, TickVolume: 1}
		return closed, true
	}

	if p.Gt(a.current.High) {
		a.current.High = p
	}
	if p.Lt(a.current.Low) {
		a.current.Low = p
	}
	a.current.Close = p
	a.current.TickVolume++
	return model.Bar{}, false
}
