package model

import (
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

// PositionId is a monotonically assigned, run-scoped identifier. It is
// never reused.
type PositionId int64

// Position is an open, unrealized exposure. It is owned exclusively by the
// PositionBook; callers only ever see a copy.
type Position struct {
	Id         PositionId
	OpenTime   time.Time
	OpenPrice  fixed.Point
	Volume     fixed.Point
	IsLong     bool
	Comment    string
	StopLoss   fixed.Point
	TakeProfit fixed.Point
}

func (p Position) HasStopLoss() bool {
	return !p.StopLoss.IsZero()
}

func (p Position) HasTakeProfit() bool {
	return !p.TakeProfit.IsZero()
}

func (p Position) Fields() []zap.Field {
	return []zap.Field{
		zap.Int64("id", int64(p.Id)),
		zap.Time("open_time", p.OpenTime),
		zap.String("open_price", p.OpenPrice.String()),
		zap.String("volume", p.Volume.String()),
		zap.Bool("is_long", p.IsLong),
		zap.String("comment", p.Comment),
		zap.String("stop_loss", p.StopLoss.String()),
		zap.String("take_profit", p.TakeProfit.String()),
	}
}
