package backtest

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

func newTestLedger(balance, leverage, stopOutLevel, stopOutWarningLevel float64) *AccountLedger {
	props := model.NewAccountProperties(
		model.WithAccountBalance(fixed.FromFloat64(balance)),
		model.WithLeverage(fixed.FromFloat64(leverage)),
		model.WithStopOutLevel(fixed.FromFloat64(stopOutLevel)),
		model.WithStopOutWarningLevel(fixed.FromFloat64(stopOutWarningLevel)),
	)
	return NewAccountLedger(zap.NewNop(), props)
}

// Scenario 3: stop loss fires.
func TestPositionBook_StopLossFires(t *testing.T) {
	ledger := newTestLedger(10000, 50, 0.5, 0.55)
	book := NewPositionBook(zap.NewNop(), ledger)

	openTick := model.Tick{Bid: fixed.FromFloat64(1.1995), Ask: fixed.FromFloat64(1.2000)}
	order := model.Order{
		IsLong:     true,
		Volume:     fixed.FromInt(1000, 0),
		StopLoss:   fixed.FromFloat64(1.1990),
		TakeProfit: fixed.FromFloat64(1.2020),
	}

	id, ok := book.TryCreatePosition(order, openTick, time.Unix(0, 0))
	if !ok {
		t.Fatal("expected position to be created")
	}

	closingTick := model.Tick{Bid: fixed.FromFloat64(1.1989), Ask: fixed.FromFloat64(1.1995)}
	trades := book.CheckPriceEvents(closingTick, time.Unix(1, 0))

	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	trade := trades[0]
	if trade.CloseType != model.StopLoss {
		t.Errorf("CloseType = %v, want StopLoss", trade.CloseType)
	}
	if !trade.ClosePrice.Eq(fixed.FromFloat64(1.1989)) {
		t.Errorf("ClosePrice = %s, want 1.1989", trade.ClosePrice)
	}
	wantProfit := fixed.FromFloat64(-1.1)
	if !trade.Profit.Rescale(4).Eq(wantProfit.Rescale(4)) {
		t.Errorf("Profit = %s, want %s", trade.Profit, wantProfit)
	}
	if book.Len() != 0 {
		t.Errorf("book.Len() = %d, want 0", book.Len())
	}

	wantBalance := fixed.FromFloat64(10000).Add(wantProfit)
	if !ledger.Balance().Rescale(4).Eq(wantBalance.Rescale(4)) {
		t.Errorf("ledger.Balance() = %s, want %s", ledger.Balance(), wantBalance)
	}

	_ = id
}

// Scenario 4: a tick past the take-profit (and nowhere near the stop-loss)
// fires the take-profit, closing at the tick's bid.
func TestPositionBook_TakeProfitFiresNotStopLoss(t *testing.T) {
	ledger := newTestLedger(10000, 50, 0.5, 0.55)
	book := NewPositionBook(zap.NewNop(), ledger)

	openTick := model.Tick{Bid: fixed.FromFloat64(0.999), Ask: fixed.One}
	order := model.Order{
		IsLong:     true,
		Volume:     fixed.FromInt(100, 0),
		StopLoss:   fixed.FromFloat64(0.95),
		TakeProfit: fixed.FromFloat64(1.05),
	}
	if _, ok := book.TryCreatePosition(order, openTick, time.Unix(0, 0)); !ok {
		t.Fatal("expected position to be created")
	}

	tick := model.Tick{Bid: fixed.FromFloat64(1.06), Ask: fixed.FromFloat64(1.07)}
	trades := book.CheckPriceEvents(tick, time.Unix(1, 0))

	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].CloseType != model.TakeProfit {
		t.Errorf("CloseType = %v, want TakeProfit", trades[0].CloseType)
	}
	// Closed at bid 1.06 against an open price of 1.0: 0.06 * 100.
	wantProfit := fixed.FromFloat64(6)
	if !trades[0].Profit.Rescale(4).Eq(wantProfit.Rescale(4)) {
		t.Errorf("Profit = %s, want %s", trades[0].Profit, wantProfit)
	}
}

// Scenario 5: admission denied for insufficient margin.
func TestAccountLedger_AdmissionDenied(t *testing.T) {
	ledger := newTestLedger(1000, 50, 0.5, 0.55)
	book := NewPositionBook(zap.NewNop(), ledger)

	order := model.Order{IsLong: true, Volume: fixed.FromInt(100000, 0)}
	tick := model.Tick{Bid: fixed.One, Ask: fixed.One}

	if _, ok := book.TryCreatePosition(order, tick, time.Unix(0, 0)); ok {
		t.Fatal("expected order to be rejected for insufficient margin")
	}
	if book.Len() != 0 {
		t.Errorf("book.Len() = %d, want 0", book.Len())
	}
	if !ledger.Balance().Eq(fixed.FromInt(1000, 0)) {
		t.Errorf("ledger.Balance() = %s, want unchanged 1000", ledger.Balance())
	}
}

// Scenario 6: margin call cascade — one position force-closed when margin
// level drops below the stop-out level.
func TestAccountLedger_MarginCallForceClosesOnePosition(t *testing.T) {
	ledger := newTestLedger(1000, 50, 0.5, 0.55)
	book := NewPositionBook(zap.NewNop(), ledger)

	openTick := model.Tick{Bid: fixed.One, Ask: fixed.One}
	order := model.Order{IsLong: true, Volume: fixed.FromInt(20000, 0)}

	for i := 0; i < 2; i++ {
		if _, ok := book.TryCreatePosition(order, openTick, time.Unix(0, 0)); !ok {
			t.Fatalf("position %d was rejected", i)
		}
	}
	if book.Len() != 2 {
		t.Fatalf("book.Len() = %d, want 2", book.Len())
	}

	droppedTick := model.Tick{Bid: fixed.FromFloat64(0.97), Ask: fixed.FromFloat64(0.971)}
	state := ledger.OnTick(droppedTick)
	if state != model.MarginCall {
		t.Fatalf("ledger.OnTick() = %v, want MarginCall", state)
	}

	if _, ok := book.ForceCloseOne(droppedTick, time.Unix(1, 0)); !ok {
		t.Fatal("expected a position to be force-closed")
	}
	if book.Len() != 1 {
		t.Errorf("book.Len() = %d, want 1 after force-closing one", book.Len())
	}
}

func TestAccountLedger_NonpositiveBalanceClosesEverything(t *testing.T) {
	ledger := newTestLedger(1000, 50, 0.5, 0.55)
	book := NewPositionBook(zap.NewNop(), ledger)

	openTick := model.Tick{Bid: fixed.One, Ask: fixed.One}
	order := model.Order{IsLong: true, Volume: fixed.FromInt(20000, 0)}
	for i := 0; i < 2; i++ {
		if _, ok := book.TryCreatePosition(order, openTick, time.Unix(0, 0)); !ok {
			t.Fatalf("position %d was rejected", i)
		}
	}

	// The state is classified on realized balance, so the loss has to be
	// booked first: force-closing one position at bid 0.9 realizes
	// (0.9 - 1.0) * 20000 = -2000, taking the balance to -1000.
	crashTick := model.Tick{Bid: fixed.FromFloat64(0.9), Ask: fixed.FromFloat64(0.901)}
	if _, ok := book.ForceCloseOne(crashTick, time.Unix(1, 0)); !ok {
		t.Fatal("expected a position to be force-closed")
	}
	state := ledger.OnTick(crashTick)
	if state != model.NonpositiveAccountBalance {
		t.Fatalf("ledger.OnTick() = %v, want NonpositiveAccountBalance", state)
	}

	trades := book.CloseAll(crashTick, time.Unix(1, 0))
	if len(trades) != 1 {
		t.Fatalf("got %d trades, want 1", len(trades))
	}
	if trades[0].CloseType != model.Forced {
		t.Errorf("CloseType = %v, want Forced", trades[0].CloseType)
	}
	if book.Len() != 0 {
		t.Errorf("book.Len() = %d, want 0", book.Len())
	}
}
