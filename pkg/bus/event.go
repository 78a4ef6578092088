package bus

import (
	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

// EventId identifies the kind of state change posted to a Router. These are
// observability events only: a strategy's hooks are never invoked through
// the bus, so posting is side-effect free from the simulation's point of
// view.
type EventId uint8

const (
	BalanceEvent EventId = iota
	EquityEvent
	PositionOpenedEvent
	PositionClosedEvent
	PositionPnLUpdatedEvent
	BarEvent
)

func (id EventId) String() string {
	switch id {
	case BalanceEvent:
		return "balance"
	case EquityEvent:
		return "equity"
	case PositionOpenedEvent:
		return "position_opened"
	case PositionClosedEvent:
		return "position_closed"
	case PositionPnLUpdatedEvent:
		return "position_pnl_updated"
	case BarEvent:
		return "bar"
	default:
		return "unknown"
	}
}

type BalanceEventHandler func(fixed.Point)
type EquityEventHandler func(fixed.Point)
type PositionOpenedEventHandler func(model.Position)
type PositionClosedEventHandler func(model.Trade)
type PositionPnLUpdatedEventHandler func(model.Position)
type BarEventHandler func(model.Bar)
