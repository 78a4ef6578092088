package backtest

import (
	"container/heap"
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

// priceEntry is a weak handle into PositionBook's position map: a stable
// PositionId paired with the trigger price it was registered with.
// Stoploss/takeprofit are never mutated on an open position, so the price
// can be captured once at registration time.
type priceEntry struct {
	id    model.PositionId
	price fixed.Point
}

// priceHeap is a container/heap.Interface over priceEntry, parameterized
// by a less function so the same type serves all four SL/TP orderings.
type priceHeap struct {
	entries []priceEntry
	less    func(a, b fixed.Point) bool
}

func newPriceHeap(less func(a, b fixed.Point) bool) *priceHeap {
	return &priceHeap{less: less}
}

func (h *priceHeap) Len() int            { return len(h.entries) }
func (h *priceHeap) Less(i, j int) bool  { return h.less(h.entries[i].price, h.entries[j].price) }
func (h *priceHeap) Swap(i, j int)       { h.entries[i], h.entries[j] = h.entries[j], h.entries[i] }
func (h *priceHeap) Push(x interface{})  { h.entries = append(h.entries, x.(priceEntry)) }
func (h *priceHeap) Pop() interface{} {
	n := len(h.entries)
	e := h.entries[n-1]
	h.entries = h.entries[:n-1]
	return e
}

func (h *priceHeap) peek() (priceEntry, bool) {
	if len(h.entries) == 0 {
		return priceEntry{}, false
	}
	return h.entries[0], true
}

func (h *priceHeap) removeId(id model.PositionId) {
	for i, e := range h.entries {
		if e.id == id {
			heap.Remove(h, i)
			return
		}
	}
}

// PositionBook holds open positions and the per-side SL/TP priority queues
// that fire in price order as ticks arrive. It is created per run and
// exclusively owned by the Simulator.
type PositionBook struct {
	logger *zap.Logger
	ledger *AccountLedger

	nextId      model.PositionId
	positions   map[model.PositionId]model.Position
	insertOrder []model.PositionId

	longSL  *priceHeap
	shortSL *priceHeap
	longTP  *priceHeap
	shortTP *priceHeap
}

func NewPositionBook(logger *zap.Logger, ledger *AccountLedger) *PositionBook {
	return &PositionBook{
		logger:    logger,
		ledger:    ledger,
		positions: make(map[model.PositionId]model.Position),

		// Highest stoploss first: closest-to-current bid from above.
		longSL: newPriceHeap(func(a, b fixed.Point) bool { return a.Gt(b) }),
		// Lowest stoploss first.
		shortSL: newPriceHeap(func(a, b fixed.Point) bool { return a.Lt(b) }),
		// Lowest takeprofit first.
		longTP: newPriceHeap(func(a, b fixed.Point) bool { return a.Lt(b) }),
		// Highest takeprofit first.
		shortTP: newPriceHeap(func(a, b fixed.Point) bool { return a.Gt(b) }),
	}
}

func (b *PositionBook) Len() int {
	return len(b.positions)
}

// GetPosition returns the open position by id. Unknown id is a
// precondition violation.
func (b *PositionBook) GetPosition(id model.PositionId) model.Position {
	pos, ok := b.positions[id]
	if !ok {
		panic("position book: unknown position id")
	}
	return pos
}

// OpenPositions returns a snapshot of currently open positions in
// insertion order.
func (b *PositionBook) OpenPositions() []model.Position {
	positions := make([]model.Position, 0, len(b.insertOrder))
	for _, id := range b.insertOrder {
		positions = append(positions, b.positions[id])
	}
	return positions
}

// TryCreatePosition resolves the open price from the tick's side, checks
// ledger admission control, and on success inserts the position and
// registers its SL/TP queue entries.
func (b *PositionBook) TryCreatePosition(order model.Order, tick model.Tick, now time.Time) (model.PositionId, bool) {
	var openPrice, closePrice fixed.Point
	if order.IsLong {
		openPrice, closePrice = tick.Ask, tick.Bid
	} else {
		openPrice, closePrice = tick.Bid, tick.Ask
	}

	if !b.ledger.CanOrderBeProcessed(order.Volume, openPrice, closePrice) {
		return 0, false
	}

	id := b.nextId
	b.nextId++

	pos := model.Position{
		Id:         id,
		OpenTime:   now,
		OpenPrice:  openPrice,
		Volume:     order.Volume,
		IsLong:     order.IsLong,
		Comment:    order.Comment,
		StopLoss:   order.StopLoss,
		TakeProfit: order.TakeProfit,
	}

	b.positions[id] = pos
	b.insertOrder = append(b.insertOrder, id)
	b.registerQueues(pos)
	b.ledger.AddPosition(pos)

	return id, true
}

func (b *PositionBook) registerQueues(pos model.Position) {
	if pos.HasStopLoss() {
		entry := priceEntry{id: pos.Id, price: pos.StopLoss}
		if pos.IsLong {
			heap.Push(b.longSL, entry)
		} else {
			heap.Push(b.shortSL, entry)
		}
	}
	if pos.HasTakeProfit() {
		entry := priceEntry{id: pos.Id, price: pos.TakeProfit}
		if pos.IsLong {
			heap.Push(b.longTP, entry)
		} else {
			heap.Push(b.shortTP, entry)
		}
	}
}

// CheckPriceEvents drains the SL/TP queues against the tick's bid/ask,
// firing in the order long SL, short SL, long TP, short TP. Each firing
// uses the tick's bid/ask as the close price.
func (b *PositionBook) CheckPriceEvents(tick model.Tick, closeTime time.Time) []model.Trade {
	var trades []model.Trade

	for {
		e, ok := b.longSL.peek()
		if !ok || !tick.Bid.Lte(e.price) {
			break
		}
		trades = append(trades, b.close(e.id, tick.Bid, closeTime, model.StopLoss))
	}
	for {
		e, ok := b.shortSL.peek()
		if !ok || !tick.Ask.Gte(e.price) {
			break
		}
		trades = append(trades, b.close(e.id, tick.Ask, closeTime, model.StopLoss))
	}
	for {
		e, ok := b.longTP.peek()
		if !ok || !tick.Bid.Gte(e.price) {
			break
		}
		trades = append(trades, b.close(e.id, tick.Bid, closeTime, model.TakeProfit))
	}
	for {
		e, ok := b.shortTP.peek()
		if !ok || !tick.Ask.Lte(e.price) {
			break
		}
		trades = append(trades, b.close(e.id, tick.Ask, closeTime, model.TakeProfit))
	}

	return trades
}

// Close closes a position explicitly, at the tick's opposite-of-open side.
func (b *PositionBook) Close(id model.PositionId, tick model.Tick, closeTime time.Time) model.Trade {
	pos := b.GetPosition(id)
	return b.close(id, b.closePriceFor(pos, tick), closeTime, model.Manual)
}

// CloseAll closes every open position as Forced, in insertion order.
func (b *PositionBook) CloseAll(tick model.Tick, closeTime time.Time) []model.Trade {
	var trades []model.Trade
	ids := append([]model.PositionId(nil), b.insertOrder...)
	for _, id := range ids {
		pos := b.positions[id]
		trades = append(trades, b.close(id, b.closePriceFor(pos, tick), closeTime, model.Forced))
	}
	return trades
}

// ForceCloseOne closes the first open position by insertion order as
// Forced, for the margin-call cascade.
func (b *PositionBook) ForceCloseOne(tick model.Tick, closeTime time.Time) (model.Trade, bool) {
	if len(b.insertOrder) == 0 {
		return model.Trade{}, false
	}
	id := b.insertOrder[0]
	pos := b.positions[id]
	return b.close(id, b.closePriceFor(pos, tick), closeTime, model.Forced), true
}

func (b *PositionBook) closePriceFor(pos model.Position, tick model.Tick) fixed.Point {
	if pos.IsLong {
		return tick.Bid
	}
	return tick.Ask
}

// close removes both SL/TP queue entries, erases the position, realizes
// the trade in the ledger, and returns it.
func (b *PositionBook) close(id model.PositionId, closePrice fixed.Point, closeTime time.Time, closeType model.CloseType) model.Trade {
	pos, ok := b.positions[id]
	if !ok {
		panic("position book: erasing unknown position id")
	}

	if pos.IsLong {
		b.longSL.removeId(id)
		b.longTP.removeId(id)
	} else {
		b.shortSL.removeId(id)
		b.shortTP.removeId(id)
	}

	delete(b.positions, id)
	b.removeFromInsertOrder(id)

	trade := model.Trade{
		OpenTime:   pos.OpenTime,
		CloseTime:  closeTime,
		OpenPrice:  pos.OpenPrice,
		ClosePrice: closePrice,
		Volume:     pos.Volume,
		IsLong:     pos.IsLong,
		CloseType:  closeType,
		Comment:    pos.Comment,
		Profit:     ComputeProfit(pos.IsLong, pos.Volume, pos.OpenPrice, closePrice),
	}

	b.ledger.RealizePosition(trade)
	return trade
}

func (b *PositionBook) removeFromInsertOrder(id model.PositionId) {
	for i, existing := range b.insertOrder {
		if existing == id {
			b.insertOrder = append(b.insertOrder[:i], b.insertOrder[i+1:]...)
			return
		}
	}
}
