package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pavel-sokol/quantsim/internal/dbg"
	"github.com/pavel-sokol/quantsim/pkg/datasource/historical"
	"github.com/pavel-sokol/quantsim/pkg/exchange/sandbox"
	"github.com/pavel-sokol/quantsim/pkg/ledger"
	"github.com/pavel-sokol/quantsim/pkg/simulation"
	"github.com/pavel-sokol/quantsim/pkg/simulation/sweep"
	"github.com/pavel-sokol/quantsim/pkg/strategy"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

type dimensionConfig struct {
	Name   string        `yaml:"name"`
	Min    fixed.Point   `yaml:"min"`
	Max    fixed.Point   `yaml:"max"`
	Step   fixed.Point   `yaml:"step"`
	Values []fixed.Point `yaml:"values"`
}

type config struct {
	Csv            string                 `yaml:"csv"`
	Symbol         string                 `yaml:"symbol"`
	Period         string                 `yaml:"period"`
	Strategy       string                 `yaml:"strategy"`
	Params         map[string]fixed.Point `yaml:"params"`
	InitialCapital fixed.Point            `yaml:"initial_capital"`
	FeeBps         fixed.Point            `yaml:"fee_bps"`
	SlippageBps    fixed.Point            `yaml:"slippage_bps"`
	AllowMargin    bool                   `yaml:"allow_margin"`

	Dimensions []dimensionConfig `yaml:"dimensions"`
	Objective  string            `yaml:"objective"`
	Workers    int               `yaml:"workers"`
	Samples    int               `yaml:"samples"` // 0 sweeps the full grid
	Seed       int64             `yaml:"seed"`
	TopLines   int               `yaml:"top_lines"`
}

func loadConfig(path string) (config, time.Duration, error) {
	var cfg config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, 0, fmt.Errorf("unable to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, 0, fmt.Errorf("unable to parse config %q: %w", path, err)
	}
	period, err := time.ParseDuration(cfg.Period)
	if err != nil {
		return cfg, 0, fmt.Errorf("invalid period %q: %w", cfg.Period, err)
	}
	return cfg, period, nil
}

func buildSpace(dims []dimensionConfig) (*sweep.Space, error) {
	built := make([]sweep.Dimension, 0, len(dims))
	for _, dim := range dims {
		if len(dim.Values) > 0 {
			built = append(built, sweep.Explicit(dim.Name, dim.Values...))
			continue
		}
		ranged, err := sweep.Range(dim.Name, dim.Min, dim.Max, dim.Step)
		if err != nil {
			return nil, err
		}
		built = append(built, ranged)
	}
	return sweep.NewSpace(built...)
}

func main() {
	configPath := flag.String("config", "sweep.yaml", "path to the sweep configuration")
	flag.Parse()

	logger := dbg.NewDevLogger()
	defer func() { _ = logger.Sync() }()
	dbg.RedirectSlog(logger)

	cfg, period, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	series, err := historical.LoadCSV(cfg.Csv, cfg.Symbol, period)
	if err != nil {
		logger.Fatal("unable to load bar data", zap.Error(err))
	}

	space, err := buildSpace(cfg.Dimensions)
	if err != nil {
		logger.Fatal("invalid sweep space", zap.Error(err))
	}

	sets := space.Grid()
	if cfg.Samples > 0 && cfg.Samples < len(sets) {
		sets = space.Sample(cfg.Samples, cfg.Seed)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	objective := sweep.Objective(cfg.Objective)
	if cfg.Objective == "" {
		objective = sweep.ObjectiveSharpe
	}

	var sandboxOpts []sandbox.Option
	if cfg.FeeBps.IsPos() {
		sandboxOpts = append(sandboxOpts, sandbox.WithFees(sandbox.BpsFees(cfg.FeeBps)))
	}
	if cfg.SlippageBps.IsPos() {
		sandboxOpts = append(sandboxOpts, sandbox.WithSlippage(sandbox.FixedBpsSlippage(cfg.SlippageBps)))
	}
	var ledgerOpts []ledger.Option
	if cfg.AllowMargin {
		sandboxOpts = append(sandboxOpts, sandbox.WithMargin())
		ledgerOpts = append(ledgerOpts, ledger.WithMargin())
	}

	factory := sweep.NewBacktestFactory(series, strategy.DefaultRegistry(), cfg.Strategy, cfg.Params,
		simulation.Configuration{
			Symbol:         cfg.Symbol,
			Period:         period,
			InitialCapital: cfg.InitialCapital,
			GapPolicy:      simulation.GapForwardFill,
		}, sandboxOpts, ledgerOpts)

	optimizer := sweep.NewOptimizer(factory, sweep.Config{Workers: workers, Objective: objective})

	logger.Info("sweep starting",
		zap.Int("combinations", len(sets)),
		zap.Int("workers", workers),
		zap.String("objective", string(objective)))

	started := time.Now()
	results, err := optimizer.Run(ctx, sets)
	if err != nil {
		logger.Fatal("sweep failed", zap.Error(err))
	}
	logger.Info("sweep finished", zap.Duration("elapsed", time.Since(started)))

	top := results
	if cfg.TopLines > 0 && cfg.TopLines < len(top) {
		top = top[:cfg.TopLines]
	}
	sweep.RenderTable(os.Stdout, top, space.ParamNames(), objective)

	if summary, err := sweep.Summarize(results, objective); err == nil {
		logger.Info("objective distribution",
			zap.Int("runs", summary.Count),
			zap.Float64("best", summary.Best),
			zap.Float64("worst", summary.Worst),
			zap.Float64("mean", summary.Mean),
			zap.Float64("median", summary.Median),
			zap.Float64("stddev", summary.StdDev))
	} else {
		logger.Warn("no summary available", zap.Error(err))
	}
}
