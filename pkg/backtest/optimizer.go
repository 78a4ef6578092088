package backtest

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/kestrel-quant/backtest/pkg/model"
	"github.com/kestrel-quant/backtest/pkg/strategy"
)

// Outcome pairs a run's Results with the parameters that produced it.
type Outcome[P any] struct {
	Results model.Results
	Params  P
}

// Optimizer fans a parameter sweep out across a Simulator. Each
// combination gets its own strategy instance from the factory; the
// Simulator's TickStore and BarCache are shared read-only.
type Optimizer[P any] struct {
	simulator *Simulator
	factory   func(P) strategy.Strategy
}

func NewOptimizer[P any](simulator *Simulator, factory func(P) strategy.Strategy) *Optimizer[P] {
	return &Optimizer[P]{simulator: simulator, factory: factory}
}

// RunSequential simulates every combination one at a time and returns the
// one with maximum Results.Balance, first occurrence winning ties.
func (o *Optimizer[P]) RunSequential(params []P) (Outcome[P], bool) {
	if len(params) == 0 {
		return Outcome[P]{}, false
	}

	best := Outcome[P]{Results: o.simulator.Run(o.factory(params[0])), Params: params[0]}
	for i := 1; i < len(params); i++ {
		res := o.simulator.Run(o.factory(params[i]))
		if res.Balance.Gt(best.Results.Balance) {
			best = Outcome[P]{Results: res, Params: params[i]}
		}
	}
	return best, true
}

// RunParallel simulates every combination concurrently, bounded by
// available hardware parallelism, then reduces in input order so the
// returned outcome is identical to RunSequential's regardless of
// goroutine completion order.
func (o *Optimizer[P]) RunParallel(ctx context.Context, params []P) (Outcome[P], bool, error) {
	if len(params) == 0 {
		return Outcome[P]{}, false, nil
	}

	results := make([]model.Results, len(params))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range params {
		i := i
		g.Go(func() error {
			results[i] = o.simulator.Run(o.factory(params[i]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Outcome[P]{}, false, err
	}

	bestIdx := 0
	for i := 1; i < len(results); i++ {
		if results[i].Balance.Gt(results[bestIdx].Balance) {
			bestIdx = i
		}
	}
	return Outcome[P]{Results: results[bestIdx], Params: params[bestIdx]}, true, nil
}
