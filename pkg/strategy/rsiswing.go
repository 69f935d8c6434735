package strategy

import (
	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/indicators"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

const rsiSwingName = "rsi-swing"

var rsiSwingSpecs = []ParamSpec{
	{Name: "period", Type: ParamInt, Default: fixed.FromInt(14, 0), Min: fixed.Two, Max: fixed.FromInt(500, 0)},
	{Name: "buy_below", Type: ParamNumber, Default: fixed.FromInt(30, 0), Min: fixed.Zero, Max: fixed.Hundred},
	{Name: "sell_above", Type: ParamNumber, Default: fixed.FromInt(70, 0), Min: fixed.Zero, Max: fixed.Hundred},
	{Name: "size", Type: ParamNumber, Default: fixed.One},
}

// RsiSwing buys oversold bars and exits overbought ones.
type RsiSwing struct {
	rsiKey    indicators.Key
	buyBelow  fixed.Point
	sellAbove fixed.Point
	size      fixed.Point
}

func NewRsiSwing(params ParameterSet) (Strategy, error) {
	return &RsiSwing{
		rsiKey:    indicators.RsiKey(params.Int("period", 14)),
		buyBelow:  params.Point("buy_below", fixed.FromInt(30, 0)),
		sellAbove: params.Point("sell_above", fixed.FromInt(70, 0)),
		size:      params.Point("size", fixed.One),
	}, nil
}

func (s *RsiSwing) Name() string {
	return rsiSwingName
}

func (s *RsiSwing) Required() []indicators.Key {
	return []indicators.Key{s.rsiKey}
}

func (s *RsiSwing) Evaluate(view indicators.View, position common.Position, _ common.Bar) common.Signal {
	rsi, ok := view.Value(s.rsiKey)
	if !ok {
		return Hold()
	}

	switch {
	case position.IsFlat() && rsi.Lt(s.buyBelow):
		return EnterLong(s.size, "rsi oversold")
	case position.IsLong() && rsi.Gt(s.sellAbove):
		return Exit(fixed.Zero, "rsi overbought")
	default:
		return Hold()
	}
}
