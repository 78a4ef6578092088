// Package synthetic generates a geometric-Brownian-motion tick stream, an
// alternate TickStore source for exercising a strategy without a
// historical archive.
package synthetic

import (
	"math/rand"
	"time"

	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/utility/fixed"
)

var pointFive = fixed.FromInt64(5, 1)

// Generator produces a deterministic-given-rng tick sequence following
// GBM price dynamics with a dynamically drifting spread, variable tick
// timing and log-normal volumes.
type Generator struct {
	rng *rand.Rand

	startTime  time.Time
	lastTime   time.Time
	lastPrice  fixed.Point
	minSpread  fixed.Point
	maxSpread  fixed.Point
	currSpread fixed.Point

	deltaLogPre1 fixed.Point
	deltaLogPre2 fixed.Point

	avgTickInterval time.Duration
	tickVariability float64

	avgVolume      fixed.Point
	volumeVariance float64

	spreadVolatility float64

	priceDigits  int
	volumeDigits int
}

// NewGenerator builds a GBM tick generator. mu/sigma are annualized drift
// and volatility; deltaT is the per-tick time fraction of a year.
func NewGenerator(rng *rand.Rand, startTime time.Time, startPrice, fullSpread, mu, sigma, deltaT fixed.Point) *Generator {
	return &Generator{
		rng: rng,

		startTime: startTime,
		lastTime:  startTime,
		lastPrice: startPrice,

		minSpread:  fullSpread.Mul(fixed.FromInt64(5, 1)),
		maxSpread:  fullSpread.Mul(fixed.FromInt64(15, 1)),
		currSpread: fullSpread.DivInt64(2),

		deltaLogPre1: mu.Sub(sigma.Mul(sigma).Mul(pointFive)).Mul(deltaT),
		deltaLogPre2: sigma.Mul(deltaT.Sqrt()),

		avgTickInterval: 333 * time.Millisecond,
		tickVariability: 0.3,

		avgVolume:      fixed.FromInt64(100, 0),
		volumeVariance: 0.5,

		spreadVolatility: 0.1,

		priceDigits:  5,
		volumeDigits: 2,
	}
}

// NewEurUsdGenerator configures a Generator with EURUSD-typical starting
// conditions, spread and tick cadence.
func NewEurUsdGenerator(rng *rand.Rand, mu, sigma float64) *Generator {
	const (
		startPrice = 1.0550
		typicalSpread = 0.00003
		minSpread     = 0.00001
		maxSpread     = 0.00006

		avgTickIntervalSeconds = 1.0
		tickTimingVariability  = 0.45

		avgVolumeUnits    = 1.0
		volumeVariability = 0.65

		spreadVolatility = 0.12
	)

	secondsPerYear := 365.25 * 24 * 3600
	deltaT := fixed.FromFloat64(avgTickIntervalSeconds / secondsPerYear)

	g := NewGenerator(
		rng,
		time.Now(),
		fixed.FromFloat64(startPrice),
		fixed.FromFloat64(typicalSpread),
		fixed.FromFloat64(mu),
		fixed.FromFloat64(sigma),
		deltaT,
	)

	g.minSpread = fixed.FromFloat64(minSpread)
	g.maxSpread = fixed.FromFloat64(maxSpread)
	g.avgTickInterval = time.Duration(avgTickIntervalSeconds * float64(time.Second))
	g.tickVariability = tickTimingVariability
	g.avgVolume = fixed.FromFloat64(avgVolumeUnits)
	g.volumeVariance = volumeVariability
	g.spreadVolatility = spreadVolatility

	return g
}

// Generate produces count ticks, seeding a TickStore without a historical
// archive.
func (g *Generator) Generate(count int) []model.Tick {
	ticks := make([]model.Tick, 0, count)
	for i := 0; i < count; i++ {
		ticks = append(ticks, g.next())
	}
	return ticks
}

func (g *Generator) next() model.Tick {
	z := g.rng.NormFloat64()
	deltaLog := g.deltaLogPre1.Add(g.deltaLogPre2.Mul(fixed.FromFloat64(z)))
	g.lastPrice = g.lastPrice.Mul(deltaLog.Exp())

	g.updateSpread()

	interval := g.generateTickInterval()
	g.lastTime = g.lastTime.Add(interval)

	volume := g.generateVolume()

	ask := g.lastPrice.Add(g.currSpread).Rescale(g.priceDigits)
	bid := g.lastPrice.Sub(g.currSpread).Rescale(g.priceDigits)
	ask, bid = g.withNoise(ask, bid)

	return model.Tick{
		TimeStamp: g.lastTime.UnixNano(),
		Bid:       bid,
		Ask:       ask,
		Volume:    volume.Rescale(g.volumeDigits),
		Flags:     model.AskAndBid,
	}
}

func (g *Generator) updateSpread() {
	if g.spreadVolatility <= 0 {
		return
	}
	change := g.rng.NormFloat64() * g.spreadVolatility
	next := g.currSpread.Mul(fixed.FromFloat64(1.0 + change))

	switch {
	case next.Lt(g.minSpread):
		g.currSpread = g.minSpread
	case next.Gt(g.maxSpread):
		g.currSpread = g.maxSpread
	default:
		g.currSpread = next
	}
}

func (g *Generator) generateTickInterval() time.Duration {
	if g.tickVariability <= 0 {
		return g.avgTickInterval
	}

	lambda := 1.0 / float64(g.avgTickInterval.Nanoseconds())
	interval := g.rng.ExpFloat64() / lambda

	min := float64(g.avgTickInterval.Nanoseconds()) * (1.0 - g.tickVariability)
	max := float64(g.avgTickInterval.Nanoseconds()) * (1.0 + g.tickVariability*3)

	if interval < min {
		interval = min
	} else if interval > max {
		interval = max
	}
	return time.Duration(int64(interval))
}

func (g *Generator) generateVolume() fixed.Point {
	variation := g.rng.NormFloat64() * g.volumeVariance
	multiplier := fixed.FromFloat64(1.0 + variation).Exp()
	volume := g.avgVolume.Mul(multiplier)
	if volume.Lte(fixed.Zero) {
		return fixed.One
	}
	return volume
}

func (g *Generator) withNoise(ask, bid fixed.Point) (fixed.Point, fixed.Point) {
	tickSize := g.currSpread.DivInt64(10)

	askNoise := fixed.FromFloat64(g.rng.NormFloat64() * 0.1).Mul(tickSize)
	bidNoise := fixed.FromFloat64(g.rng.NormFloat64() * 0.1).Mul(tickSize)

	ask = ask.Add(askNoise)
	bid = bid.Add(bidNoise)

	if bid.Gte(ask) {
		mid := bid.Add(ask).DivInt64(2)
		bid = mid.Sub(tickSize)
		ask = mid.Add(tickSize)
	}
	return ask, bid
}
