package model

import (
	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

// Flags reports which fields of a Tick carry fresh data versus a carried-
// forward value from the previous tick.
type Flags int

const (
	Ask Flags = iota
	Bid
	AskAndBid
	Volume
)

// Tick is an immutable bid/ask quote. TimeStamp is Unix nanoseconds and is
// expected to be non-decreasing across a sequence.
type Tick struct {
	TimeStamp int64
	Bid       fixed.Point
	Ask       fixed.Point
	Volume    fixed.Point
	Flags     Flags
}

func (t Tick) Mid() fixed.Point {
	return t.Bid.Add(t.Ask).DivInt(2)
}

func (t Tick) Fields() []zap.Field {
	return []zap.Field{
		zap.Int64("timestamp", t.TimeStamp),
		zap.String("bid", t.Bid.String()),
		zap.String("ask", t.Ask.String()),
		zap.String("volume", t.Volume.String()),
		zap.Int("flags", int(t.Flags)),
	}
}
