package model

import (
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

// Timeframe is a closed enum of bar durations. Implementations may extend
// the set; the duration lookup panics on an unknown value rather than
// silently defaulting.
type Timeframe int

const (
	Min1 Timeframe = iota
	Min5
	Min15
)

var timeframeDurations = map[Timeframe]time.Duration{
	Min1:  time.Minute,
	Min5:  5 * time.Minute,
	Min15: 15 * time.Minute,
}

func (tf Timeframe) Duration() time.Duration {
	d, ok := timeframeDurations[tf]
	if !ok {
		panic("unknown timeframe")
	}
	return d
}

// Bar is an OHLCV aggregate over the half-open interval
// [OpenTimestamp, OpenTimestamp+timeframe duration).
type Bar struct {
	OpenTimestamp int64
	Open          fixed.Point
	High          fixed.Point
	Low           fixed.Point
	Close         fixed.Point
	TickVolume    int64
}

func (b Bar) Fields() []zap.Field {
	return []zap.Field{
		zap.Int64("open_timestamp", b.OpenTimestamp),
		zap.String("open", b.Open.String()),
		zap.String("high", b.High.String()),
		zap.String("low", b.Low.String()),
		zap.String("close", b.Close.String()),
		zap.Int64("tick_volume", b.TickVolume),
	}
}
