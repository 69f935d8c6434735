package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/pavel-sokol/quantsim/internal/dbg"
	"github.com/pavel-sokol/quantsim/pkg/bus"
	"github.com/pavel-sokol/quantsim/pkg/datasource/live"
	"github.com/pavel-sokol/quantsim/pkg/exchange/sandbox"
	"github.com/pavel-sokol/quantsim/pkg/indicators"
	"github.com/pavel-sokol/quantsim/pkg/ledger"
	"github.com/pavel-sokol/quantsim/pkg/middleware"
	"github.com/pavel-sokol/quantsim/pkg/simulation"
	"github.com/pavel-sokol/quantsim/pkg/strategy"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Paper trading runs the same pipeline as a backtest; only the stream
// differs. Candles arrive over a websocket, fills stay simulated.
type config struct {
	Url            string                 `yaml:"url"`
	Symbol         string                 `yaml:"symbol"`
	Period         string                 `yaml:"period"`
	Strategy       string                 `yaml:"strategy"`
	Params         map[string]fixed.Point `yaml:"params"`
	InitialCapital fixed.Point            `yaml:"initial_capital"`
	FeeBps         fixed.Point            `yaml:"fee_bps"`
	SlippageBps    fixed.Point            `yaml:"slippage_bps"`
	StaleWait      string                 `yaml:"stale_wait"`
	Verbose        bool                   `yaml:"verbose"`
}

func loadConfig(path string) (config, time.Duration, time.Duration, error) {
	var cfg config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, 0, 0, fmt.Errorf("unable to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, 0, 0, fmt.Errorf("unable to parse config %q: %w", path, err)
	}
	period, err := time.ParseDuration(cfg.Period)
	if err != nil {
		return cfg, 0, 0, fmt.Errorf("invalid period %q: %w", cfg.Period, err)
	}
	staleWait := 2 * period
	if cfg.StaleWait != "" {
		staleWait, err = time.ParseDuration(cfg.StaleWait)
		if err != nil {
			return cfg, 0, 0, fmt.Errorf("invalid stale_wait %q: %w", cfg.StaleWait, err)
		}
	}
	return cfg, period, staleWait, nil
}

func main() {
	configPath := flag.String("config", "papertrade.yaml", "path to the run configuration")
	flag.Parse()

	logger := dbg.NewProdLogger()
	defer func() { _ = logger.Sync() }()
	dbg.RedirectSlog(logger)

	cfg, period, staleWait, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	strat, err := strategy.DefaultRegistry().New(cfg.Strategy, cfg.Params)
	if err != nil {
		logger.Fatal("unable to build strategy", zap.Error(err))
	}

	engine := indicators.NewEngine()
	evaluator, err := strategy.NewEvaluator(engine, strat)
	if err != nil {
		logger.Fatal("unable to build evaluator", zap.Error(err))
	}

	feed := live.NewFeed(period, 64, staleWait)
	provider := live.NewWebsocketProvider(cfg.Url, cfg.Symbol, period, feed)

	router := bus.NewRouter(simulation.DefaultEventCapacity)
	books := ledger.New(cfg.Symbol, cfg.InitialCapital)

	sandboxOpts := []sandbox.Option{sandbox.WithFillRule(sandbox.FillOnNextOpen)}
	if cfg.FeeBps.IsPos() {
		sandboxOpts = append(sandboxOpts, sandbox.WithFees(sandbox.BpsFees(cfg.FeeBps)))
	}
	if cfg.SlippageBps.IsPos() {
		sandboxOpts = append(sandboxOpts, sandbox.WithSlippage(sandbox.FixedBpsSlippage(cfg.SlippageBps)))
	}
	sim := sandbox.NewSimulator(router, books, sandboxOpts...)

	monitorFlags := middleware.MonitorSignals | middleware.MonitorSignalsRejected |
		middleware.MonitorOrders | middleware.MonitorOrdersRejected |
		middleware.MonitorFills | middleware.MonitorTrades | middleware.MonitorDataGaps
	if cfg.Verbose {
		monitorFlags = middleware.MonitorAll
	}
	monitor := middleware.NewMonitor(monitorFlags)
	telemetry := middleware.NewTelemetry()

	router.OnBar = telemetry.WithBar(monitor.WithBar(middleware.NoopBarHdl))
	router.OnSignal = telemetry.WithSignal(monitor.WithSignal(middleware.NoopSignalHdl))
	router.OnSignalRejected = telemetry.WithSignalRejected(monitor.WithSignalRejected(middleware.NoopSignalRejectedHdl))
	router.OnOrder = telemetry.WithOrder(monitor.WithOrder(middleware.NoopOrderHdl))
	router.OnOrderRejected = telemetry.WithOrderRejected(monitor.WithOrderRejected(middleware.NoopOrderRejectedHdl))
	router.OnFill = telemetry.WithFill(monitor.WithFill(middleware.NoopFillHdl))
	router.OnPositionOpen = telemetry.WithPositionOpen(monitor.WithPositionOpen(middleware.NoopPositionHdl))
	router.OnPositionClose = telemetry.WithPositionClose(monitor.WithPositionClose(middleware.NoopPositionHdl))
	router.OnSnapshot = telemetry.WithSnapshot(monitor.WithSnapshot(middleware.NoopSnapshotHdl))
	router.OnTrade = telemetry.WithTrade(monitor.WithTrade(middleware.NoopTradeHdl))
	router.OnDataGap = telemetry.WithDataGap(monitor.WithDataGap(middleware.NoopDataGapHdl))

	runner := simulation.NewRunner(router, feed, engine, evaluator, sim, books, simulation.Configuration{
		Symbol:         cfg.Symbol,
		Period:         period,
		InitialCapital: cfg.InitialCapital,
		GapPolicy:      simulation.GapForwardFill,
	})

	defer router.PrintStatistics()
	defer telemetry.PrintStatistics()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return provider.Run(ctx)
	})

	result := runner.Run(ctx)
	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("provider stopped", zap.Error(err))
	}

	if result.Err != nil {
		logger.Error("session failed", zap.String("state", result.State.String()), zap.Error(result.Err))
		os.Exit(1)
	}
	logger.Info("session finished", zap.String("state", result.State.String()))
	result.Report.Print()
}
