package indicators

import (
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Ema is an exponential moving average of close prices, seeded with the
// simple average of the first period bars.
type Ema struct {
	key    Key
	period int
	alpha  fixed.Point

	seedSum fixed.Point
	seen    int
	current fixed.Point
}

func NewEma(period int) (*Ema, error) {
	if period <= 0 {
		return nil, fmt.Errorf("ema period must be positive, got %d", period)
	}
	return &Ema{
		key:    EmaKey(period),
		period: period,
		alpha:  fixed.Two.DivInt(period + 1),
	}, nil
}

func (e *Ema) OnBar(bar common.Bar) {
	e.update(bar.Close)
}

func (e *Ema) update(value fixed.Point) {
	e.seen++
	if e.seen < e.period {
		e.seedSum = e.seedSum.Add(value)
		return
	}
	if e.seen == e.period {
		e.current = e.seedSum.Add(value).DivInt(e.period)
		return
	}
	e.current = value.Sub(e.current).Mul(e.alpha).Add(e.current)
}

func (e *Ema) Outputs() []Key {
	return []Key{e.key}
}

func (e *Ema) Value(Key) (fixed.Point, bool) {
	if e.seen < e.period {
		return fixed.Zero, false
	}
	return e.current, true
}

func (e *Ema) Reset() {
	e.seedSum = fixed.Zero
	e.seen = 0
	e.current = fixed.Zero
}
