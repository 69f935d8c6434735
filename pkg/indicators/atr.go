package indicators

import (
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Atr is Wilder's average true range. The first true range needs a previous
// close, so the value becomes defined after period+1 bars.
type Atr struct {
	key    Key
	period int

	lastClose fixed.Point
	trSum     fixed.Point
	trCount   int
	current   fixed.Point
}

func NewAtr(period int) (*Atr, error) {
	if period <= 0 {
		return nil, fmt.Errorf("atr period must be positive, got %d", period)
	}
	return &Atr{
		key:    AtrKey(period),
		period: period,
	}, nil
}

func (a *Atr) OnBar(bar common.Bar) {
	defer func() {
		a.lastClose = bar.Close
	}()

	if a.trCount == 0 && a.lastClose.IsZero() {
		return
	}

	tr := bar.High.Sub(bar.Low).Abs()
	if hc := bar.High.Sub(a.lastClose).Abs(); hc.Gt(tr) {
		tr = hc
	}
	if lc := bar.Low.Sub(a.lastClose).Abs(); lc.Gt(tr) {
		tr = lc
	}

	a.trCount++
	if a.trCount <= a.period {
		a.trSum = a.trSum.Add(tr)
		if a.trCount == a.period {
			a.current = a.trSum.DivInt(a.period)
		}
		return
	}

	a.current = a.current.MulInt(a.period - 1).Add(tr).DivInt(a.period)
}

func (a *Atr) Outputs() []Key {
	return []Key{a.key}
}

func (a *Atr) Value(Key) (fixed.Point, bool) {
	if a.trCount < a.period {
		return fixed.Zero, false
	}
	return a.current, true
}

func (a *Atr) Reset() {
	a.lastClose = fixed.Zero
	a.trSum = fixed.Zero
	a.trCount = 0
	a.current = fixed.Zero
}
