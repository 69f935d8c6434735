package sweep

import (
	"github.com/pavel-sokol/quantsim/pkg/bus"
	"github.com/pavel-sokol/quantsim/pkg/datasource/historical"
	"github.com/pavel-sokol/quantsim/pkg/exchange/sandbox"
	"github.com/pavel-sokol/quantsim/pkg/indicators"
	"github.com/pavel-sokol/quantsim/pkg/ledger"
	"github.com/pavel-sokol/quantsim/pkg/simulation"
	"github.com/pavel-sokol/quantsim/pkg/strategy"
)

// NewBacktestFactory builds runners that replay the shared immutable series
// with a fresh router, indicator engine, ledger and sandbox per parameter
// set. Swept parameters override the base set. The routers carry no handlers
// so concurrent runs never contend on sinks.
func NewBacktestFactory(
	series *historical.Series,
	registry *strategy.Registry,
	strategyName string,
	base strategy.ParameterSet,
	cfg simulation.Configuration,
	sandboxOpts []sandbox.Option,
	ledgerOpts []ledger.Option,
) RunnerFactory {
	return func(params strategy.ParameterSet) (*simulation.Runner, error) {
		merged := base.Clone()
		for name, value := range params {
			merged[name] = value
		}

		strat, err := registry.New(strategyName, merged)
		if err != nil {
			return nil, err
		}

		engine := indicators.NewEngine()
		evaluator, err := strategy.NewEvaluator(engine, strat)
		if err != nil {
			return nil, err
		}

		router := bus.NewRouter(simulation.DefaultEventCapacity)
		books := ledger.New(cfg.Symbol, cfg.InitialCapital, ledgerOpts...)
		sim := sandbox.NewSimulator(router, books, sandboxOpts...)

		return simulation.NewRunner(router, series.Reader(), engine, evaluator, sim, books, cfg), nil
	}
}
