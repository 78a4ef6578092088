package backtest

import (
	"time"

	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

type accountSnapshot struct {
	balance fixed.Point
	equity  fixed.Point
	t       time.Time
}

// Audit accumulates account snapshots and closed trades over a run and
// turns them into a Report. It is independent of the Router; a caller
// wires it to the bus's Balance/Equity/PositionClosed handlers, or calls
// it directly.
type Audit struct {
	minSnapshotInterval time.Duration

	snapshots []accountSnapshot
	trades    []model.Trade
}

func NewAudit(minSnapshotInterval time.Duration) *Audit {
	return &Audit{minSnapshotInterval: minSnapshotInterval}
}

func (a *Audit) AddAccountSnapshot(balance, equity fixed.Point, t time.Time) {
	if len(a.snapshots) == 0 || t.Sub(a.snapshots[len(a.snapshots)-1].t) >= a.minSnapshotInterval {
		a.snapshots = append(a.snapshots, accountSnapshot{balance: balance, equity: equity, t: t})
	}
}

func (a *Audit) AddClosedTrade(t model.Trade) {
	a.trades = append(a.trades, t)
}

// GenerateReport summarizes everything observed so far. It assumes at
// least one snapshot has been recorded.
func (a *Audit) GenerateReport() Report {
	var r Report

	days := a.dayCount()
	year := fixed.FromInt64(36500, 2)

	r.InitialEquity = a.snapshots[0].equity
	r.StartDate = a.snapshots[0].t
	r.FinalEquity = a.snapshots[len(a.snapshots)-1].equity
	r.EndDate = a.snapshots[len(a.snapshots)-1].t

	r.TotalProfit = r.FinalEquity.Div(r.InitialEquity).Sub(fixed.One).MulInt64(100).Rescale(2)
	if days > 0 && r.InitialEquity.Gt(fixed.Zero) && r.FinalEquity.Gt(fixed.Zero) {
		ratio := r.FinalEquity.Div(r.InitialEquity)
		exponent := year.DivInt64(int64(days))
		r.AnnualizedReturn = ratio.Pow(exponent).Sub(fixed.One).MulInt64(100).Rescale(2)
	}

	maxEquity := r.InitialEquity
	for _, s := range a.snapshots {
		if s.equity.Gt(maxEquity) {
			maxEquity = s.equity
		}
		drawdown := maxEquity.Sub(s.equity).Div(maxEquity)
		if drawdown.Gt(r.MaxDrawdown) {
			r.MaxDrawdown = drawdown
		}
	}

	var totalDuration time.Duration
	var totalProfit, totalLoss fixed.Point
	for _, t := range a.trades {
		r.TotalTrades++

		if !t.OpenTime.IsZero() && !t.CloseTime.IsZero() && t.CloseTime.After(t.OpenTime) {
			totalDuration += t.CloseTime.Sub(t.OpenTime)
		}

		if t.Profit.Gt(fixed.Zero) {
			totalProfit = totalProfit.Add(t.Profit)
			r.WinningTrades++
		} else {
			totalLoss = totalLoss.Add(t.Profit.Neg())
			r.LosingTrades++
		}
	}

	if r.WinningTrades > 0 {
		r.AverageWin = totalProfit.DivInt64(int64(r.WinningTrades))
	}
	if r.LosingTrades > 0 {
		r.AverageLoss = totalLoss.DivInt64(int64(r.LosingTrades))
	}
	if totalLoss.Gt(fixed.Zero) {
		r.ProfitFactor = totalProfit.Div(totalLoss)
	}
	if r.AverageLoss.Gt(fixed.Zero) {
		r.RiskRewardRatio = r.AverageWin.Div(r.AverageLoss)
	}
	if r.TotalTrades > 0 {
		r.Expectancy = totalProfit.Sub(totalLoss).DivInt64(int64(r.TotalTrades))
		r.AverageTradeDuration = totalDuration / time.Duration(r.TotalTrades)
		r.WinRate = fixed.FromInt64(int64(r.WinningTrades), 0).DivInt64(int64(r.TotalTrades)).MulInt64(100).Rescale(2)
	}
	if r.MaxDrawdown.Gt(fixed.Zero) {
		r.RecoveryFactor = r.TotalProfit.Div(r.MaxDrawdown)
	}
	r.MaxDrawdown = r.MaxDrawdown.MulInt64(100).Rescale(2)

	returns := a.dailyReturns()
	mean := fixed.Mean(returns)
	vol := fixed.StdDev(returns, mean)

	if !mean.IsZero() && !vol.IsZero() {
		r.AnnualizedVolatility = vol.Mul(fixed.Sqrt252).MulInt64(100).Rescale(2)
		r.SharpeRatio = fixed.SharpeRatio(returns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
		r.SortinoRatio = fixed.SortinoRatio(returns, fixed.Zero).Mul(fixed.Sqrt252).Rescale(5)
	}

	return r
}

func (a *Audit) dayCount() int {
	if len(a.snapshots) < 2 {
		return 1
	}
	start := a.snapshots[0].t
	end := a.snapshots[len(a.snapshots)-1].t
	return int(end.Sub(start).Hours()/24) + 1
}

func (a *Audit) dailyReturns() []fixed.Point {
	var returns []fixed.Point
	if len(a.snapshots) < 2 {
		return returns
	}

	prevDate := a.snapshots[0].t.Truncate(24 * time.Hour)
	prevEquity := a.snapshots[0].equity

	for _, s := range a.snapshots[1:] {
		currDate := s.t.Truncate(24 * time.Hour)
		if currDate.After(prevDate) {
			returns = append(returns, s.equity.Div(prevEquity).Sub(fixed.One))
			prevDate = currDate
			prevEquity = s.equity
		}
	}

	return returns
}
