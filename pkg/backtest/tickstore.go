package backtest

import "github.com/kestrel-quant/backtest/pkg/model"

// TickStore is the immutable, random-access tick sequence for a run. It is
// created once, outlives every downstream component that borrows from it,
// and is never mutated after construction.
type TickStore struct {
	ticks []model.Tick
}

func NewTickStore(ticks []model.Tick) *TickStore {
	return &TickStore{ticks: ticks}
}

func (s *TickStore) Len() int {
	return len(s.ticks)
}

func (s *TickStore) At(i int) model.Tick {
	return s.ticks[i]
}

func (s *TickStore) All() []model.Tick {
	return s.ticks
}

func (s *TickStore) FirstTimestamp() (int64, bool) {
	if len(s.ticks) == 0 {
		return 0, false
	}
	return s.ticks[0].TimeStamp, true
}

func (s *TickStore) LastTimestamp() (int64, bool) {
	if len(s.ticks) == 0 {
		return 0, false
	}
	return s.ticks[len(s.ticks)-1].TimeStamp, true
}
