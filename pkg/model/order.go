package model

import (
	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

// Order is a request to open a position. StopLoss and TakeProfit of Zero
// mean absent.
type Order struct {
	IsLong     bool
	Volume     fixed.Point
	StopLoss   fixed.Point
	TakeProfit fixed.Point
	Comment    string
}

func (o Order) Fields() []zap.Field {
	return []zap.Field{
		zap.Bool("is_long", o.IsLong),
		zap.String("volume", o.Volume.String()),
		zap.String("stop_loss", o.StopLoss.String()),
		zap.String("take_profit", o.TakeProfit.String()),
		zap.String("comment", o.Comment),
	}
}
