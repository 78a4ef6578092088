package main

import (
	"flag"

	"github.com/kestrel-quant/backtest/pkg/model"
)

type config struct {
	tickSource string
	format     string

	accountBalance int
	leverage       int
	fastPeriod     int
	slowPeriod     int
	volume         string

	period string
}

func parseConfig() config {
	var c config

	flag.StringVar(&c.tickSource, "ticks", "data/eurusd_ticks.bin", "path to the tick archive")
	flag.StringVar(&c.format, "format", "binary", "tick archive format: binary, csv, or synthetic")

	flag.IntVar(&c.accountBalance, "balance", 10000, "starting account balance")
	flag.IntVar(&c.leverage, "leverage", 50, "account leverage")
	flag.IntVar(&c.fastPeriod, "fast", 10, "fast moving average period, in bars")
	flag.IntVar(&c.slowPeriod, "slow", 30, "slow moving average period, in bars")
	flag.StringVar(&c.volume, "volume", "1", "position volume in lots")

	flag.StringVar(&c.period, "stride", "tick", "tick delivery stride: tick, s1, s5, s10, s30, min1")

	flag.Parse()
	return c
}

func (c config) simulationPeriod() model.SimulationPeriod {
	switch c.period {
	case "s1":
		return model.S1
	case "s5":
		return model.S5
	case "s10":
		return model.S10
	case "s30":
		return model.S30
	case "min1":
		return model.Min1Period
	default:
		return model.Tick
	}
}
