package main

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/kestrel-quant/backtest/examples/crossover"
	"github.com/kestrel-quant/backtest/internal/obs"
	"github.com/kestrel-quant/backtest/internal/tickio/binary"
	"github.com/kestrel-quant/backtest/internal/tickio/csv"
	"github.com/kestrel-quant/backtest/internal/tickio/synthetic"
	"github.com/kestrel-quant/backtest/pkg/backtest"
	"github.com/kestrel-quant/backtest/pkg/bus"
	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

func main() {
	logger := obs.NewDevLogger()
	defer func() { _ = logger.Sync() }()

	cfg := parseConfig()

	ticks, err := loadTicks(cfg)
	if err != nil {
		logger.Fatal("unable to load ticks", zap.Error(err))
	}
	logger.Info("loaded tick archive", zap.Int("ticks", len(ticks)))

	store := backtest.NewTickStore(ticks)

	router := bus.NewRouter(logger)
	router.BalanceHandler = func(balance fixed.Point) {
		logger.Debug("balance changed", zap.String("balance", balance.String()))
	}
	router.PositionClosedHandler = func(t model.Trade) {
		logger.Info("position closed", t.Fields()...)
	}

	props := model.NewAccountProperties(
		model.WithAccountBalance(fixed.FromInt(cfg.accountBalance, 0)),
		model.WithLeverage(fixed.FromInt(cfg.leverage, 0)),
	)

	audit := backtest.NewAudit(time.Hour)

	simulator := backtest.NewSimulator(logger, store, cfg.simulationPeriod(), props,
		backtest.WithRouter(router),
		backtest.WithAudit(audit),
		backtest.WithLiveBarEvents(model.Min1))

	volume := fixed.FromFloat64(mustFloat(cfg.volume))
	strat := crossover.New(logger, crossover.Params{
		FastPeriod:         cfg.fastPeriod,
		SlowPeriod:         cfg.slowPeriod,
		AllowedLossOnTrade: fixed.FromInt(1, 2),
		RiskRewardRatio:    fixed.FromInt(15, 1),
		Volume:             volume,
		Timeframe:          model.Min1,
	})

	results := simulator.Run(strat)
	logger.Info("run complete", results.Fields()...)
	router.PrintStatistics()

	report := audit.GenerateReport()
	report.Print(logger)
}

func loadTicks(cfg config) ([]model.Tick, error) {
	switch cfg.format {
	case "csv":
		return csv.LoadTicks(cfg.tickSource)
	case "synthetic":
		rng := rand.New(rand.NewSource(1))
		return synthetic.NewEurUsdGenerator(rng, 0.0, 0.08).Generate(200_000), nil
	default:
		return binary.LoadTicks(cfg.tickSource)
	}
}

func mustFloat(s string) float64 {
	var f float64
	if _, err := fmt.Sscanf(s, "%f", &f); err != nil {
		panic(fmt.Sprintf("invalid float %q: %v", s, err))
	}
	return f
}
