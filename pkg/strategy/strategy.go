package strategy

import (
	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

// Signal is the return code of the Start and OnTick hooks. Stop from
// either ends the run immediately.
type Signal int

const (
	Continue Signal = iota
	Stop
)

// Broker is the facade a Strategy sees. All operations are synchronous and
// non-blocking; failures are reported as a false/zero-value second return,
// never as an error.
type Broker interface {
	GetTime() int64
	GetBalance() fixed.Point
	GetEquity() fixed.Point

	GetLastBars(timeframe model.Timeframe, count int) ([]model.Bar, bool)

	TryCreatePosition(order model.Order) (model.PositionId, bool)
	GetPosition(id model.PositionId) model.Position
	ClosePosition(id model.PositionId)
	CloseAllPositions()
}

// Strategy is the contract a caller of Simulator.run supplies. Instances
// are single-use within a run.
type Strategy interface {
	Start(broker Broker) Signal
	OnTick(tick model.Tick) Signal
	OnMarginCallWarning()
	End()
}
