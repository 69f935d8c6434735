package sweep

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/pavel-sokol/quantsim/pkg/simulation"
	"github.com/pavel-sokol/quantsim/pkg/strategy"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Objective selects the report metric runs are ranked by.
type Objective string

const (
	ObjectiveSharpe       Objective = "sharpe"
	ObjectiveTotalReturn  Objective = "total_return"
	ObjectiveProfitFactor Objective = "profit_factor"
	ObjectiveMaxDrawdown  Objective = "max_drawdown"
)

// Value extracts the objective from a report. The second result is false
// when the metric is undefined for that run; undefined runs rank last.
func (o Objective) Value(report simulation.Report) (fixed.Point, bool) {
	switch o {
	case ObjectiveSharpe:
		return report.SharpeRatio, report.SharpeDefined
	case ObjectiveTotalReturn:
		return report.TotalReturn, true
	case ObjectiveProfitFactor:
		return report.ProfitFactor, report.TotalTrades > 0 && report.LosingTrades > 0
	case ObjectiveMaxDrawdown:
		return report.MaxDrawdown, true
	default:
		return fixed.Zero, false
	}
}

// Better reports whether a beats b for this objective. Drawdown is minimized,
// everything else maximized.
func (o Objective) Better(a, b fixed.Point) bool {
	if o == ObjectiveMaxDrawdown {
		return a.Lt(b)
	}
	return a.Gt(b)
}

// RunnerFactory builds a complete, independent pipeline for one parameter
// set. Runs share nothing mutable, so the optimizer may execute them on any
// number of goroutines without changing results.
type RunnerFactory func(params strategy.ParameterSet) (*simulation.Runner, error)

// Result pairs a parameter set with the outcome of its run. Failed runs keep
// their error and rank last.
type Result struct {
	Params strategy.ParameterSet
	State  simulation.State
	Report simulation.Report
	Err    error
}

type Config struct {
	Workers   int
	Objective Objective
}

// Optimizer runs one simulation per parameter set and ranks the outcomes.
type Optimizer struct {
	factory RunnerFactory
	cfg     Config
}

func NewOptimizer(factory RunnerFactory, cfg Config) *Optimizer {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Objective == "" {
		cfg.Objective = ObjectiveSharpe
	}
	return &Optimizer{factory: factory, cfg: cfg}
}

// Run executes every parameter set and returns results ordered best first.
// A failed run is isolated into its Result; only context cancellation stops
// the whole sweep.
func (o *Optimizer) Run(ctx context.Context, sets []strategy.ParameterSet) ([]Result, error) {
	results := make([]Result, len(sets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i, params := range sets {
		i, params := i, params
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = o.runOne(ctx, params)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sweep interrupted: %w", err)
	}

	o.rank(results)
	return results, nil
}

func (o *Optimizer) runOne(ctx context.Context, params strategy.ParameterSet) Result {
	runner, err := o.factory(params)
	if err != nil {
		return Result{Params: params, State: simulation.StateFailed, Err: err}
	}
	run := runner.Run(ctx)
	return Result{Params: params, State: run.State, Report: run.Report, Err: run.Err}
}

// rank sorts best first; runs with an undefined objective or a non-completed
// state sink to the bottom. The sort is stable so equal runs keep their grid
// order and ranking stays deterministic.
func (o *Optimizer) rank(results []Result) {
	objective := o.cfg.Objective
	sort.SliceStable(results, func(i, j int) bool {
		vi, oki := o.usable(results[i])
		vj, okj := o.usable(results[j])
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		if vi.Eq(vj) {
			return false
		}
		return objective.Better(vi, vj)
	})
}

func (o *Optimizer) usable(r Result) (fixed.Point, bool) {
	if r.State != simulation.StateCompleted {
		return fixed.Zero, false
	}
	return o.cfg.Objective.Value(r.Report)
}
