package model

import (
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/pkg/utility"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

type CloseType int

const (
	StopLoss CloseType = iota
	TakeProfit
	Manual
	Forced
)

func (c CloseType) String() string {
	switch c {
	case StopLoss:
		return "STOPLOSS"
	case TakeProfit:
		return "TAKEPROFIT"
	case Manual:
		return "MANUAL"
	case Forced:
		return "FORCED"
	default:
		return "UNKNOWN"
	}
}

// Trade is a realized round trip: a Position that has been closed. It is
// appended once to a Results list and never mutated.
type Trade struct {
	ExecutionID utility.RunID
	OpenTime    time.Time
	CloseTime   time.Time
	OpenPrice   fixed.Point
	ClosePrice  fixed.Point
	Volume      fixed.Point
	IsLong      bool
	CloseType   CloseType
	Comment     string
	Profit      fixed.Point
}

func (t Trade) Fields() []zap.Field {
	return []zap.Field{
		zap.String("execution_id", t.ExecutionID.String()),
		zap.Time("open_time", t.OpenTime),
		zap.Time("close_time", t.CloseTime),
		zap.String("open_price", t.OpenPrice.String()),
		zap.String("close_price", t.ClosePrice.String()),
		zap.String("volume", t.Volume.String()),
		zap.Bool("is_long", t.IsLong),
		zap.String("close_type", t.CloseType.String()),
		zap.String("comment", t.Comment),
		zap.String("profit", t.Profit.String()),
	}
}
