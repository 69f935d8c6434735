package indicators

import (
	"errors"
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/circular"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// ErrComputation marks an arithmetic fault inside an indicator update. The
// engine state is not to be trusted afterwards and the run should stop.
var ErrComputation = errors.New("indicator computation failed")

const defaultHistoryDepth = 512

// Indicator consumes bars and exposes one or more output series. Values are
// undefined until the warm-up window has been seen.
type Indicator interface {
	OnBar(bar common.Bar)
	Outputs() []Key
	Value(key Key) (fixed.Point, bool)
	Reset()
}

// View is the read surface handed to strategies. It reaches the current bar
// and recorded history only; future values do not exist yet, so look-ahead
// is structurally impossible.
type View interface {
	BarIndex() int64
	Value(key Key) (fixed.Point, bool)
	Lookback(key Key, n int) (fixed.Point, bool)
}

type historyValue struct {
	point   fixed.Point
	defined bool
}

// Engine owns a set of indicators, updates them in registration order and
// records a bounded history per output key.
type Engine struct {
	indicators []Indicator
	byKey      map[Key]Indicator
	history    map[Key]*circular.Buffer[historyValue]
	depth      uint
	barIndex   int64
}

func NewEngine() *Engine {
	return NewEngineDepth(defaultHistoryDepth)
}

// NewEngineDepth bounds per-key history to depth values.
func NewEngineDepth(depth uint) *Engine {
	return &Engine{
		byKey:    make(map[Key]Indicator),
		history:  make(map[Key]*circular.Buffer[historyValue]),
		depth:    depth,
		barIndex: -1,
	}
}

// Ensure registers indicators for the given keys. Keys already covered are
// skipped, so indicators with several outputs are built once.
func (e *Engine) Ensure(keys ...Key) error {
	for _, key := range keys {
		if _, ok := e.byKey[key]; ok {
			continue
		}
		ind, err := newIndicator(key)
		if err != nil {
			return err
		}
		e.indicators = append(e.indicators, ind)
		for _, out := range ind.Outputs() {
			e.byKey[out] = ind
			e.history[out] = circular.NewBuffer[historyValue](e.depth)
		}
	}
	return nil
}

// Keys returns all registered output keys.
func (e *Engine) Keys() []Key {
	keys := make([]Key, 0, len(e.byKey))
	for k := range e.byKey {
		keys = append(keys, k)
	}
	return keys
}

// Update feeds the bar to every indicator and records their outputs. A panic
// inside an indicator is reported as ErrComputation.
func (e *Engine) Update(bar common.Bar) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrComputation, r)
		}
	}()

	for _, ind := range e.indicators {
		ind.OnBar(bar)
	}
	for key, hist := range e.history {
		point, defined := e.byKey[key].Value(key)
		hist.Push(historyValue{point: point, defined: defined})
	}
	e.barIndex++
	return nil
}

// BarIndex is the zero-based index of the last processed bar, -1 before the
// first update.
func (e *Engine) BarIndex() int64 {
	return e.barIndex
}

// Value returns the key's value on the current bar. The second result is
// false while the indicator is warming up or the key is unknown.
func (e *Engine) Value(key Key) (fixed.Point, bool) {
	return e.Lookback(key, 0)
}

// Lookback returns the key's value n bars back; n of zero is the current
// bar. It reports false for unknown keys, warm-up values and offsets beyond
// the recorded history.
func (e *Engine) Lookback(key Key, n int) (fixed.Point, bool) {
	hist, ok := e.history[key]
	if !ok || n < 0 || uint(n) >= hist.Size() {
		return fixed.Zero, false
	}
	v := hist.Get(uint(n))
	if !v.defined {
		return fixed.Zero, false
	}
	return v.point, true
}

// Reset restores every indicator and the history to the pre-data state.
func (e *Engine) Reset() {
	for _, ind := range e.indicators {
		ind.Reset()
	}
	for key := range e.history {
		e.history[key] = circular.NewBuffer[historyValue](e.depth)
	}
	e.barIndex = -1
}

func newIndicator(key Key) (Indicator, error) {
	switch key.Name {
	case "sma":
		return NewSma(key.P1)
	case "ema":
		return NewEma(key.P1)
	case "rsi":
		return NewRsi(key.P1)
	case "atr":
		return NewAtr(key.P1)
	case "macd", "macd_signal", "macd_hist":
		return NewMacd(key.P1, key.P2, key.P3)
	case "bollinger_upper", "bollinger_middle", "bollinger_lower":
		return NewBollinger(key.P1, key.P2)
	case "stddev":
		return NewStdDev(key.P1)
	case "zscore":
		return NewZScore(key.P1)
	default:
		return nil, fmt.Errorf("unknown indicator %q", key.Name)
	}
}
