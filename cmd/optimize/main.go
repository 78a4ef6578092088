package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/examples/crossover"
	"github.com/kestrel-quant/backtest/internal/obs"
	"github.com/kestrel-quant/backtest/internal/tickio/binary"
	"github.com/kestrel-quant/backtest/pkg/backtest"
	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/strategy"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

func main() {
	logger := obs.NewDevLogger()
	defer func() { _ = logger.Sync() }()

	tickSource := flag.String("ticks", "data/eurusd_ticks.bin", "path to the tick archive")
	flag.Parse()

	ticks, err := binary.LoadTicks(*tickSource)
	if err != nil {
		logger.Fatal("unable to load ticks", zap.Error(err))
	}
	store := backtest.NewTickStore(ticks)

	props := model.NewAccountProperties()
	simulator := backtest.NewSimulator(logger, store, model.Tick, props)

	factory := func(p crossover.Params) strategy.Strategy {
		return crossover.New(logger, p)
	}
	optimizer := backtest.NewOptimizer(simulator, factory)

	combinations := parameterCombinations()
	logger.Info("sweeping parameters", zap.Int("combinations", len(combinations)))

	best, ok, err := optimizer.RunParallel(context.Background(), combinations)
	if err != nil {
		logger.Fatal("optimizer run failed", zap.Error(err))
	}
	if !ok {
		logger.Fatal("no parameter combinations supplied")
	}

	logger.Info("best parameters found",
		zap.Int("fast_period", best.Params.FastPeriod),
		zap.Int("slow_period", best.Params.SlowPeriod),
		zap.String("allowed_loss_on_trade", best.Params.AllowedLossOnTrade.String()),
		zap.String("risk_reward_ratio", best.Params.RiskRewardRatio.String()))
	logger.Info("best run result", best.Results.Fields()...)
}

// parameterCombinations mirrors the original sweep: fast period 5..11,
// slow period 12..39, allowed loss 0.5%..2.0% in 0.5% steps, risk/reward
// 1.0..1.8 in 0.2 steps.
func parameterCombinations() []crossover.Params {
	var out []crossover.Params

	for fast := 5; fast < 12; fast++ {
		for slow := 12; slow < 40; slow++ {
			for loss := 5; loss < 25; loss += 5 {
				for rr := 10; rr < 20; rr += 2 {
					out = append(out, crossover.Params{
						FastPeriod:         fast,
						SlowPeriod:         slow,
						AllowedLossOnTrade: fixed.FromInt(loss, 3),
						RiskRewardRatio:    fixed.FromInt(rr, 1),
						Volume:             fixed.One,
						Timeframe:          model.Min1,
					})
				}
			}
		}
	}
	return out
}
