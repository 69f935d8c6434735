package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/pavel-sokol/quantsim/pkg/bus"
	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/datasource"
	"github.com/pavel-sokol/quantsim/pkg/exchange/sandbox"
	"github.com/pavel-sokol/quantsim/pkg/indicators"
	"github.com/pavel-sokol/quantsim/pkg/ledger"
	"github.com/pavel-sokol/quantsim/pkg/strategy"
	"github.com/pavel-sokol/quantsim/pkg/utility"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

const runnerComponentName = "simulation.runner"

// State is the runner lifecycle. A runner moves from Ready to Running once,
// then lands on exactly one terminal state.
type State int32

const (
	StateReady State = iota
	StateRunning
	StateCompleted
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result carries everything a finished run produced. On cancellation the
// partial history is still valid up to the last completed bar; on failure
// Err explains what broke.
type Result struct {
	State     State
	Report    Report
	Snapshots []common.Snapshot
	Trades    []common.Trade
	Fills     []common.Fill
	Err       error
}

// Runner drives the per-bar pipeline: pending fills at the open, indicator
// update, protective stops, strategy evaluation, execution, mark. Events are
// posted to the router for observers; the pipeline itself is strictly
// sequential, so a run is a pure function of its inputs.
type Runner struct {
	router    *bus.Router
	stream    datasource.BarStream
	engine    *indicators.Engine
	evaluator *strategy.Evaluator
	sim       *sandbox.Simulator
	books     *ledger.Ledger
	cfg       Configuration

	state    atomic.Int32
	runCtx   context.Context
	lastBar  common.Bar
	barCount int64
}

func NewRunner(
	router *bus.Router,
	stream datasource.BarStream,
	engine *indicators.Engine,
	evaluator *strategy.Evaluator,
	sim *sandbox.Simulator,
	books *ledger.Ledger,
	cfg Configuration,
) *Runner {
	return &Runner{
		router:    router,
		stream:    stream,
		engine:    engine,
		evaluator: evaluator,
		sim:       sim,
		books:     books,
		cfg:       cfg,
	}
}

func (r *Runner) State() State {
	return State(r.state.Load())
}

// Run blocks until the stream ends, the context is cancelled or the pipeline
// fails. A runner runs once; a second call fails immediately.
func (r *Runner) Run(ctx context.Context) Result {
	if err := r.cfg.Validate(); err != nil {
		r.state.Store(int32(StateFailed))
		return Result{State: StateFailed, Err: err}
	}
	if !r.state.CompareAndSwap(int32(StateReady), int32(StateRunning)) {
		return Result{State: r.State(), Err: errors.New("runner already started")}
	}

	r.runCtx = ctx
	go r.router.ExecLoop(ctx, r.step)
	err := <-r.router.Done()

	state := StateCompleted
	switch {
	case errors.Is(err, datasource.ErrEndOfStream):
		err = nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		state = StateCancelled
		err = nil
	case err != nil:
		state = StateFailed
	}
	r.state.Store(int32(state))

	report := NewReport(r.books.InitialCash(), r.books.Snapshots(), r.books.Trades(), r.cfg.barsPerYear())
	if state == StateFailed {
		slog.Error("run failed", "component", runnerComponentName,
			"symbol", r.cfg.Symbol, "bars", r.barCount, "error", err)
	}
	return Result{
		State:     state,
		Report:    report,
		Snapshots: r.books.Snapshots(),
		Trades:    r.books.Trades(),
		Fills:     r.books.Fills(),
		Err:       err,
	}
}

// step consumes one bar. Cancellation is observed between bars only, so a
// started bar always finishes and the ledger stays consistent.
func (r *Runner) step() error {
	bar, err := r.stream.Next(r.runCtx)

	var gap *datasource.GapError
	if errors.As(err, &gap) {
		filled := r.cfg.GapPolicy == GapForwardFill
		r.postGap(gap, filled)
		if !filled {
			return fmt.Errorf("bar stream: %w", err)
		}
		if err := r.fillGap(gap); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	return r.processBar(bar)
}

// fillGap synthesizes one flat zero-volume bar at the previous close for
// every missing interval and runs it through the full pipeline.
func (r *Runner) fillGap(gap *datasource.GapError) error {
	if r.barCount == 0 {
		// Nothing to extrapolate from; skip straight to the real bar.
		return nil
	}
	prev := r.lastBar
	for i := 0; i < gap.Missing; i++ {
		synthetic := common.Bar{
			Source:      runnerComponentName + ".forward-fill",
			Symbol:      prev.Symbol,
			ExecutionID: utility.GetExecutionID(),
			TraceID:     utility.CreateTraceID(),
			Period:      r.cfg.Period,
			OpenTime:    prev.CloseTime,
			CloseTime:   prev.CloseTime.Add(r.cfg.Period),
			Open:        prev.Close,
			High:        prev.Close,
			Low:         prev.Close,
			Close:       prev.Close,
			Volume:      fixed.Zero,
		}
		if err := r.processBar(synthetic); err != nil {
			return err
		}
		prev = synthetic
	}
	return nil
}

func (r *Runner) processBar(bar common.Bar) error {
	idx := r.barCount
	r.post(bus.BarEvent, bar)

	if err := r.sim.OnBarOpen(bar, idx); err != nil {
		return err
	}
	if err := r.engine.Update(bar); err != nil {
		return err
	}
	if err := r.sim.CheckExits(bar, idx); err != nil {
		return err
	}

	signal, err := r.evaluator.Evaluate(bar, r.books.Position())
	if err != nil {
		return err
	}
	r.post(bus.SignalEvent, signal)

	if err := r.sim.OnSignal(signal, bar); err != nil {
		return err
	}

	snapshot, err := r.books.Mark(bar)
	if err != nil {
		return err
	}
	r.post(bus.SnapshotEvent, snapshot)

	r.lastBar = bar
	r.barCount++
	return nil
}

func (r *Runner) postGap(gap *datasource.GapError, filled bool) {
	r.post(bus.DataGapEvent, common.DataGap{
		Expected:    gap.Expected,
		Actual:      gap.Actual,
		Missing:     gap.Missing,
		Filled:      filled,
		Source:      runnerComponentName,
		Symbol:      r.cfg.Symbol,
		ExecutionID: utility.GetExecutionID(),
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   gap.Actual,
	})
}

func (r *Runner) post(id bus.EventId, data interface{}) {
	if err := r.router.Post(id, data); err != nil {
		slog.Warn("unable to post event", "event", id, "error", err)
	}
}
