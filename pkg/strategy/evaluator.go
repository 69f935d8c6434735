package strategy

import (
	"errors"
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/indicators"
	"github.com/pavel-sokol/quantsim/pkg/utility"
)

// ErrContractViolation marks a strategy breaking the evaluation contract:
// more than one evaluation per bar or a non-deterministic Evaluate.
var ErrContractViolation = errors.New("strategy contract violation")

type EvaluatorOption func(*Evaluator)

// WithContractChecks re-runs Evaluate on every bar and fails the run when
// the two results differ. Meant for strategy development, not sweeps.
func WithContractChecks() EvaluatorOption {
	return func(e *Evaluator) {
		e.contractChecks = true
	}
}

// Evaluator gates a strategy behind indicator warm-up and normalizes its
// signals. It registers the strategy's required indicators on construction.
type Evaluator struct {
	engine         *indicators.Engine
	strat          Strategy
	contractChecks bool
	lastBarIndex   int64
}

func NewEvaluator(engine *indicators.Engine, strat Strategy, opts ...EvaluatorOption) (*Evaluator, error) {
	if err := engine.Ensure(strat.Required()...); err != nil {
		return nil, fmt.Errorf("strategy %q: %w", strat.Name(), err)
	}
	e := &Evaluator{
		engine:       engine,
		strat:        strat,
		lastBarIndex: -1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Evaluator) StrategyName() string {
	return e.strat.Name()
}

// Evaluate produces exactly one signal for the bar the engine last consumed.
// While any required indicator is still warming up the result is a hold.
func (e *Evaluator) Evaluate(bar common.Bar, position common.Position) (common.Signal, error) {
	idx := e.engine.BarIndex()
	if idx < 0 {
		return common.Signal{}, fmt.Errorf("%w: evaluated before any bar", ErrContractViolation)
	}
	if idx <= e.lastBarIndex {
		return common.Signal{}, fmt.Errorf("%w: bar %d evaluated twice", ErrContractViolation, idx)
	}
	e.lastBarIndex = idx

	signal := Hold()
	if e.warmedUp() {
		signal = e.strat.Evaluate(e.engine, position, bar)
		if e.contractChecks {
			again := e.strat.Evaluate(e.engine, position, bar)
			if again.Action != signal.Action || !again.Size.Eq(signal.Size) {
				return common.Signal{}, fmt.Errorf("%w: evaluate is not deterministic on bar %d", ErrContractViolation, idx)
			}
		}
	}

	signal.BarIndex = idx
	signal.Source = e.strat.Name()
	signal.Symbol = bar.Symbol
	signal.ExecutionID = utility.GetExecutionID()
	signal.TraceID = utility.CreateTraceID()
	signal.TimeStamp = bar.CloseTime
	return signal, nil
}

func (e *Evaluator) warmedUp() bool {
	for _, key := range e.strat.Required() {
		if _, ok := e.engine.Value(key); !ok {
			return false
		}
	}
	return true
}
