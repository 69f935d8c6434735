package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pavel-sokol/quantsim/pkg/exchange/sandbox"
	"github.com/pavel-sokol/quantsim/pkg/ledger"
	"github.com/pavel-sokol/quantsim/pkg/simulation"
	"github.com/pavel-sokol/quantsim/pkg/strategy"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

type dataConfig struct {
	// Exactly one of Csv, Binary or Duckdb selects the source.
	Csv    string `yaml:"csv"`
	Binary string `yaml:"binary"`
	Duckdb string `yaml:"duckdb"`

	Symbol string    `yaml:"symbol"`
	Period string    `yaml:"period"`
	From   time.Time `yaml:"from"`
	To     time.Time `yaml:"to"`

	period time.Duration
}

type executionConfig struct {
	FillRule       string      `yaml:"fill_rule"` // current-close | next-open
	SlippageBps    fixed.Point `yaml:"slippage_bps"`
	FeeBps         fixed.Point `yaml:"fee_bps"`
	FlatFee        fixed.Point `yaml:"flat_fee"`
	MinOrderSize   fixed.Point `yaml:"min_order_size"`
	WholeUnits     bool        `yaml:"whole_units"`
	AllowMargin    bool        `yaml:"allow_margin"`
	StopLossRate   fixed.Point `yaml:"stop_loss_rate"`
	TakeProfitRate fixed.Point `yaml:"take_profit_rate"`
	TrailingRate   fixed.Point `yaml:"trailing_stop_rate"`
}

type config struct {
	Data           dataConfig              `yaml:"data"`
	Strategy       string                  `yaml:"strategy"`
	Params         map[string]fixed.Point  `yaml:"params"`
	InitialCapital fixed.Point             `yaml:"initial_capital"`
	GapPolicy      string                  `yaml:"gap_policy"` // abort | forward-fill
	Execution      executionConfig         `yaml:"execution"`
	ContractChecks bool                    `yaml:"contract_checks"`
	BarsPerYear    int64                   `yaml:"bars_per_year"`
	Verbose        bool                    `yaml:"verbose"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("unable to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("unable to parse config %q: %w", path, err)
	}
	cfg.Data.period, err = time.ParseDuration(cfg.Data.Period)
	if err != nil {
		return cfg, fmt.Errorf("invalid period %q: %w", cfg.Data.Period, err)
	}
	return cfg, nil
}

func (c config) simulationConfig() simulation.Configuration {
	policy := simulation.GapAbort
	if c.GapPolicy == "forward-fill" {
		policy = simulation.GapForwardFill
	}
	return simulation.Configuration{
		Symbol:         c.Data.Symbol,
		Period:         c.Data.period,
		InitialCapital: c.InitialCapital,
		GapPolicy:      policy,
		BarsPerYear:    c.BarsPerYear,
	}
}

func (c config) sandboxOptions() []sandbox.Option {
	var opts []sandbox.Option
	if c.Execution.FillRule == "next-open" {
		opts = append(opts, sandbox.WithFillRule(sandbox.FillOnNextOpen))
	}
	if c.Execution.SlippageBps.IsPos() {
		opts = append(opts, sandbox.WithSlippage(sandbox.FixedBpsSlippage(c.Execution.SlippageBps)))
	}
	if c.Execution.FeeBps.IsPos() {
		opts = append(opts, sandbox.WithFees(sandbox.BpsFees(c.Execution.FeeBps)))
	} else if c.Execution.FlatFee.IsPos() {
		opts = append(opts, sandbox.WithFees(sandbox.FlatFees(c.Execution.FlatFee)))
	}
	if c.Execution.MinOrderSize.IsPos() {
		opts = append(opts, sandbox.WithMinOrderSize(c.Execution.MinOrderSize))
	}
	if c.Execution.WholeUnits {
		opts = append(opts, sandbox.WithWholeUnits())
	}
	if c.Execution.AllowMargin {
		opts = append(opts, sandbox.WithMargin())
	}
	if c.Execution.StopLossRate.IsPos() {
		opts = append(opts, sandbox.WithStopLoss(c.Execution.StopLossRate))
	}
	if c.Execution.TakeProfitRate.IsPos() {
		opts = append(opts, sandbox.WithTakeProfit(c.Execution.TakeProfitRate))
	}
	if c.Execution.TrailingRate.IsPos() {
		opts = append(opts, sandbox.WithTrailingStop(c.Execution.TrailingRate))
	}
	return opts
}

func (c config) ledgerOptions() []ledger.Option {
	if c.Execution.AllowMargin {
		return []ledger.Option{ledger.WithMargin()}
	}
	return nil
}

func (c config) parameterSet() strategy.ParameterSet {
	set := make(strategy.ParameterSet, len(c.Params))
	for name, value := range c.Params {
		set[name] = value
	}
	return set
}
