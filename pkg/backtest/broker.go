package backtest

import (
	"github.com/kestrel-quant/backtest/pkg/bus"
	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/strategy"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

// SimBroker is the thin facade a Strategy sees. It routes every call to
// the ledger, the book, or the bar cache, and carries no state of its own
// beyond the current tick.
type SimBroker struct {
	ledger      *AccountLedger
	book        *PositionBook
	bars        *BarCache
	router      *bus.Router
	currentTick model.Tick
}

var _ strategy.Broker = (*SimBroker)(nil)

func newSimBroker(ledger *AccountLedger, book *PositionBook, bars *BarCache, router *bus.Router) *SimBroker {
	return &SimBroker{ledger: ledger, book: book, bars: bars, router: router}
}

func (b *SimBroker) setTick(tick model.Tick) {
	b.currentTick = tick
}

func (b *SimBroker) GetTime() int64 {
	return b.currentTick.TimeStamp
}

func (b *SimBroker) GetBalance() fixed.Point {
	return b.ledger.Balance()
}

func (b *SimBroker) GetEquity() fixed.Point {
	return b.ledger.TotalEquity()
}

func (b *SimBroker) GetLastBars(timeframe model.Timeframe, count int) ([]model.Bar, bool) {
	return b.bars.GetLastBarsBefore(timeframe, b.currentTick.TimeStamp, count)
}

func (b *SimBroker) TryCreatePosition(order model.Order) (model.PositionId, bool) {
	id, ok := b.book.TryCreatePosition(order, b.currentTick, timeOf(b.currentTick))
	if ok && b.router != nil {
		b.router.PostPositionOpened(b.book.GetPosition(id))
	}
	return id, ok
}

func (b *SimBroker) GetPosition(id model.PositionId) model.Position {
	return b.book.GetPosition(id)
}

func (b *SimBroker) ClosePosition(id model.PositionId) {
	b.book.Close(id, b.currentTick, timeOf(b.currentTick))
}

func (b *SimBroker) CloseAllPositions() {
	b.book.CloseAll(b.currentTick, timeOf(b.currentTick))
}
