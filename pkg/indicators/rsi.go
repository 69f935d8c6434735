package indicators

import (
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

var fifty = fixed.FromInt(50, 0)

// Rsi is Wilder's relative strength index over close-to-close changes.
// With no losses in the window the value saturates at 100, with no gains at
// 0, and a completely flat window reads 50.
type Rsi struct {
	key    Key
	period int

	lastClose fixed.Point
	avgGain   fixed.Point
	avgLoss   fixed.Point
	changes   int
}

func NewRsi(period int) (*Rsi, error) {
	if period <= 0 {
		return nil, fmt.Errorf("rsi period must be positive, got %d", period)
	}
	return &Rsi{
		key:    RsiKey(period),
		period: period,
	}, nil
}

func (r *Rsi) OnBar(bar common.Bar) {
	defer func() {
		r.lastClose = bar.Close
	}()

	if r.changes == 0 && r.lastClose.IsZero() {
		return
	}

	change := bar.Close.Sub(r.lastClose)
	gain := fixed.Zero
	loss := fixed.Zero
	if change.IsPos() {
		gain = change
	} else {
		loss = change.Neg()
	}

	r.changes++
	if r.changes <= r.period {
		r.avgGain = r.avgGain.Add(gain)
		r.avgLoss = r.avgLoss.Add(loss)
		if r.changes == r.period {
			r.avgGain = r.avgGain.DivInt(r.period)
			r.avgLoss = r.avgLoss.DivInt(r.period)
		}
		return
	}

	r.avgGain = r.avgGain.MulInt(r.period - 1).Add(gain).DivInt(r.period)
	r.avgLoss = r.avgLoss.MulInt(r.period - 1).Add(loss).DivInt(r.period)
}

func (r *Rsi) Outputs() []Key {
	return []Key{r.key}
}

func (r *Rsi) Value(Key) (fixed.Point, bool) {
	if r.changes < r.period {
		return fixed.Zero, false
	}
	if r.avgLoss.IsZero() && r.avgGain.IsZero() {
		return fifty, true
	}
	if r.avgLoss.IsZero() {
		return fixed.Hundred, true
	}
	rs := r.avgGain.Div(r.avgLoss)
	return fixed.Hundred.Sub(fixed.Hundred.Div(fixed.One.Add(rs))), true
}

func (r *Rsi) Reset() {
	r.lastClose = fixed.Zero
	r.avgGain = fixed.Zero
	r.avgLoss = fixed.Zero
	r.changes = 0
}
