package strategy

import (
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/indicators"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

const maCrossName = "ma-cross"

var maCrossSpecs = []ParamSpec{
	{Name: "fast", Type: ParamInt, Default: fixed.FromInt(10, 0), Min: fixed.FromInt(2, 0), Max: fixed.FromInt(500, 0)},
	{Name: "slow", Type: ParamInt, Default: fixed.FromInt(30, 0), Min: fixed.FromInt(3, 0), Max: fixed.FromInt(1000, 0)},
	{Name: "size", Type: ParamNumber, Default: fixed.One},
	{Name: "short", Type: ParamInt, Default: fixed.Zero, Min: fixed.Zero, Max: fixed.One},
}

// MaCross trades simple moving average crossovers. A fast average crossing
// above the slow one buys, crossing below exits, or reverses into a short
// when shorting is enabled.
type MaCross struct {
	fastKey indicators.Key
	slowKey indicators.Key
	size    fixed.Point
	short   bool
}

func NewMaCross(params ParameterSet) (Strategy, error) {
	fast := params.Int("fast", 10)
	slow := params.Int("slow", 30)
	if fast >= slow {
		return nil, fmt.Errorf("fast period %d must be below slow period %d", fast, slow)
	}
	return &MaCross{
		fastKey: indicators.SmaKey(fast),
		slowKey: indicators.SmaKey(slow),
		size:    params.Point("size", fixed.One),
		short:   params.Bool("short", false),
	}, nil
}

func (s *MaCross) Name() string {
	return maCrossName
}

func (s *MaCross) Required() []indicators.Key {
	return []indicators.Key{s.fastKey, s.slowKey}
}

func (s *MaCross) Evaluate(view indicators.View, position common.Position, _ common.Bar) common.Signal {
	fast, _ := view.Value(s.fastKey)
	slow, _ := view.Value(s.slowKey)
	prevFast, okFast := view.Lookback(s.fastKey, 1)
	prevSlow, okSlow := view.Lookback(s.slowKey, 1)
	if !okFast || !okSlow {
		return Hold()
	}

	crossedUp := prevFast.Lte(prevSlow) && fast.Gt(slow)
	crossedDown := prevFast.Gte(prevSlow) && fast.Lt(slow)

	switch {
	case crossedUp && !position.IsLong():
		return EnterLong(s.size, "fast sma crossed above slow")
	case crossedDown && position.IsLong():
		if s.short {
			return EnterShort(s.size, "fast sma crossed below slow")
		}
		return Exit(fixed.Zero, "fast sma crossed below slow")
	case crossedDown && position.IsFlat() && s.short:
		return EnterShort(s.size, "fast sma crossed below slow")
	case crossedUp && position.IsShort():
		return EnterLong(s.size, "fast sma crossed above slow")
	default:
		return Hold()
	}
}
