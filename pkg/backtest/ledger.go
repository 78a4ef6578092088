package backtest

import (
	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

// AccountLedger tracks balance, per-side open exposure, and margin/stop-out
// state. It is created per run and exclusively owned by the Simulator.
type AccountLedger struct {
	logger *zap.Logger
	props  model.AccountProperties

	balance fixed.Point

	longVolume  fixed.Point
	longExpense fixed.Point

	shortVolume  fixed.Point
	shortExpense fixed.Point

	openPositionEquity fixed.Point
}

func NewAccountLedger(logger *zap.Logger, props model.AccountProperties) *AccountLedger {
	return &AccountLedger{
		logger:  logger,
		props:   props,
		balance: props.AccountBalance,

		longVolume:   fixed.Zero,
		longExpense:  fixed.Zero,
		shortVolume:  fixed.Zero,
		shortExpense: fixed.Zero,

		openPositionEquity: fixed.Zero,
	}
}

func (l *AccountLedger) Balance() fixed.Point {
	return l.balance
}

func (l *AccountLedger) TotalEquity() fixed.Point {
	return l.balance.Add(l.openPositionEquity)
}

func (l *AccountLedger) totalExpense() fixed.Point {
	return l.longExpense.Add(l.shortExpense)
}

func (l *AccountLedger) UsedMargin() fixed.Point {
	return l.usedMarginWithExtra(fixed.Zero)
}

func (l *AccountLedger) usedMarginWithExtra(extra fixed.Point) fixed.Point {
	return l.totalExpense().Add(extra).Div(l.props.Leverage)
}

func (l *AccountLedger) FreeMargin() fixed.Point {
	return l.TotalEquity().Sub(l.UsedMargin())
}

// MarginLevel returns equity/used_margin. Used margin of zero is treated
// as +infinity, represented here by a request-specific sentinel via the ok
// return: callers asking for a level with zero used margin get (zero,
// false) and must treat the account as healthy.
func (l *AccountLedger) MarginLevel() (fixed.Point, bool) {
	usedMargin := l.UsedMargin()
	if usedMargin.IsZero() {
		return fixed.Zero, false
	}
	return l.TotalEquity().Div(usedMargin), true
}

// CanOrderBeProcessed simulates the worst-case immediate round-trip loss
// of opening a position at openPrice with an eventual close at closePrice,
// and admits it only if the resulting margin level would stay above the
// stop-out level.
func (l *AccountLedger) CanOrderBeProcessed(volume, openPrice, closePrice fixed.Point) bool {
	worstCaseLoss := closePrice.Sub(openPrice).Abs().Mul(volume)
	newEquity := l.TotalEquity().Sub(worstCaseLoss)

	addedExposure := volume.Mul(openPrice)
	newUsedMargin := l.usedMarginWithExtra(addedExposure)

	if newUsedMargin.IsZero() {
		return true
	}
	return newEquity.Div(newUsedMargin).Gt(l.props.StopOutLevel)
}

// AddPosition registers the opened position's side exposure.
func (l *AccountLedger) AddPosition(p model.Position) {
	expense := p.Volume.Mul(p.OpenPrice)
	if p.IsLong {
		l.longVolume = l.longVolume.Add(p.Volume)
		l.longExpense = l.longExpense.Add(expense)
	} else {
		l.shortVolume = l.shortVolume.Add(p.Volume)
		l.shortExpense = l.shortExpense.Add(expense)
	}
}

// RealizePosition removes the closed position's side exposure and books
// its realized profit to balance.
func (l *AccountLedger) RealizePosition(t model.Trade) {
	expense := t.Volume.Mul(t.OpenPrice)
	if t.IsLong {
		l.longVolume = l.longVolume.Sub(t.Volume)
		l.longExpense = l.longExpense.Sub(expense)
	} else {
		l.shortVolume = l.shortVolume.Sub(t.Volume)
		l.shortExpense = l.shortExpense.Sub(expense)
	}
	l.balance = l.balance.Add(t.Profit)
}

// OnTick recomputes floating P/L against the tick's bid/ask and classifies
// the resulting account state.
func (l *AccountLedger) OnTick(tick model.Tick) model.AccountState {
	longProfit := tick.Bid.Mul(l.longVolume).Sub(l.longExpense)
	shortProfit := l.shortExpense.Sub(tick.Ask.Mul(l.shortVolume))
	l.openPositionEquity = longProfit.Add(shortProfit)

	if l.balance.Lte(fixed.Zero) {
		return model.NonpositiveAccountBalance
	}

	level, ok := l.MarginLevel()
	if !ok {
		return model.OK
	}
	switch {
	case level.Lte(l.props.StopOutLevel):
		return model.MarginCall
	case level.Lte(l.props.StopOutWarningLevel):
		return model.MarginCallWarning
	default:
		return model.OK
	}
}

// ComputeProfit returns the realized profit of closing volume opened at
// openPrice, at closePrice, on the given side.
func ComputeProfit(isLong bool, volume, openPrice, closePrice fixed.Point) fixed.Point {
	if isLong {
		return closePrice.Sub(openPrice).Mul(volume)
	}
	return openPrice.Sub(closePrice).Mul(volume)
}
