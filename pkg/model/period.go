package model

import "time"

// SimulationPeriod is the stride at which the Simulator delivers ticks to a
// strategy. Tick delivers every tick; the rest keep a next-delivery time
// that starts at the first tick and advances by their duration on each
// delivery, skipping ticks that fall before it.
type SimulationPeriod int

const (
	Tick SimulationPeriod = iota
	S1
	S5
	S10
	S30
	Min1Period
)

var periodDurations = map[SimulationPeriod]time.Duration{
	Tick:       time.Millisecond,
	S1:         time.Second,
	S5:         5 * time.Second,
	S10:        10 * time.Second,
	S30:        30 * time.Second,
	Min1Period: time.Minute,
}

func (p SimulationPeriod) Duration() time.Duration {
	d, ok := periodDurations[p]
	if !ok {
		panic("unknown simulation period")
	}
	return d
}
