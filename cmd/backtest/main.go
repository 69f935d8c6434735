package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/pavel-sokol/quantsim/internal/dbg"
	"github.com/pavel-sokol/quantsim/pkg/bus"
	"github.com/pavel-sokol/quantsim/pkg/data/duckdb"
	"github.com/pavel-sokol/quantsim/pkg/datasource/historical"
	"github.com/pavel-sokol/quantsim/pkg/exchange/sandbox"
	"github.com/pavel-sokol/quantsim/pkg/indicators"
	"github.com/pavel-sokol/quantsim/pkg/ledger"
	"github.com/pavel-sokol/quantsim/pkg/middleware"
	"github.com/pavel-sokol/quantsim/pkg/simulation"
	"github.com/pavel-sokol/quantsim/pkg/strategy"
)

func main() {
	configPath := flag.String("config", "backtest.yaml", "path to the run configuration")
	flag.Parse()

	logger := dbg.NewDevLogger()
	defer func() { _ = logger.Sync() }()
	dbg.RedirectSlog(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("configuration error", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	series, err := loadSeries(ctx, cfg)
	if err != nil {
		logger.Fatal("unable to load bar data", zap.Error(err))
	}
	logger.Info("data loaded",
		zap.String("symbol", series.Symbol()),
		zap.Duration("period", series.Period()),
		zap.Int("bars", series.Len()))

	strat, err := strategy.DefaultRegistry().New(cfg.Strategy, cfg.parameterSet())
	if err != nil {
		logger.Fatal("unable to build strategy", zap.Error(err))
	}

	engine := indicators.NewEngine()
	var evaluatorOpts []strategy.EvaluatorOption
	if cfg.ContractChecks {
		evaluatorOpts = append(evaluatorOpts, strategy.WithContractChecks())
	}
	evaluator, err := strategy.NewEvaluator(engine, strat, evaluatorOpts...)
	if err != nil {
		logger.Fatal("unable to build evaluator", zap.Error(err))
	}

	router := bus.NewRouter(simulation.DefaultEventCapacity)
	books := ledger.New(cfg.Data.Symbol, cfg.InitialCapital, cfg.ledgerOptions()...)
	sim := sandbox.NewSimulator(router, books, cfg.sandboxOptions()...)

	monitorFlags := middleware.MonitorSignalsRejected | middleware.MonitorOrdersRejected |
		middleware.MonitorTrades | middleware.MonitorDataGaps
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

	runner := simulation.NewRunner(router, series.Reader(), engine, evaluator, sim, books, cfg.simulationConfig())

	defer router.PrintStatistics()
	defer telemetry.PrintStatistics()

	result := runner.Run(ctx)
	if result.Err != nil {
		logger.Error("run failed", zap.String("state", result.State.String()), zap.Error(result.Err))
		os.Exit(1)
	}

	logger.Info("run finished", zap.String("state", result.State.String()))
	result.Report.Print()
}

func loadSeries(ctx context.Context, cfg config) (*historical.Series, error) {
	switch {
	case cfg.Data.Csv != "":
		return historical.LoadCSV(cfg.Data.Csv, cfg.Data.Symbol, cfg.Data.period)
	case cfg.Data.Binary != "":
		source := historical.NewBinarySource(cfg.Data.Binary)
		if err := source.Open(); err != nil {
			return nil, err
		}
		defer source.Close()
		return historical.LoadBinary(source, cfg.Data.Symbol, cfg.Data.period, cfg.Data.From, cfg.Data.To)
	default:
		reader := duckdb.NewReader(cfg.Data.Duckdb)
		if err := reader.Connect(); err != nil {
			return nil, err
		}
		defer reader.Close()
		return reader.LoadSeries(ctx, cfg.Data.Symbol, cfg.Data.period, cfg.Data.From, cfg.Data.To)
	}
}
