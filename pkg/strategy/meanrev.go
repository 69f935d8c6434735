package strategy

import (
	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/indicators"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

const meanReversionName = "mean-reversion"

var meanReversionSpecs = []ParamSpec{
	{Name: "period", Type: ParamInt, Default: fixed.FromInt(20, 0), Min: fixed.FromInt(2, 0), Max: fixed.FromInt(1000, 0)},
	{Name: "entry", Type: ParamNumber, Default: fixed.Two, Min: fixed.MustFromString("0.1"), Max: fixed.FromInt(10, 0)},
	{Name: "exit", Type: ParamNumber, Default: fixed.MustFromString("0.5"), Min: fixed.Zero, Max: fixed.FromInt(10, 0)},
	{Name: "size", Type: ParamNumber, Default: fixed.One},
}

// MeanReversion buys when the close drops entry standard deviations under
// its rolling mean and exits once the z-score recovers above -exit.
type MeanReversion struct {
	zKey  indicators.Key
	entry fixed.Point
	exit  fixed.Point
	size  fixed.Point
}

func NewMeanReversion(params ParameterSet) (Strategy, error) {
	return &MeanReversion{
		zKey:  indicators.ZScoreKey(params.Int("period", 20)),
		entry: params.Point("entry", fixed.Two),
		exit:  params.Point("exit", fixed.MustFromString("0.5")),
		size:  params.Point("size", fixed.One),
	}, nil
}

func (s *MeanReversion) Name() string {
	return meanReversionName
}

func (s *MeanReversion) Required() []indicators.Key {
	return []indicators.Key{s.zKey}
}

func (s *MeanReversion) Evaluate(view indicators.View, position common.Position, _ common.Bar) common.Signal {
	z, ok := view.Value(s.zKey)
	if !ok {
		return Hold()
	}

	switch {
	case position.IsFlat() && z.Lt(s.entry.Neg()):
		return EnterLong(s.size, "z-score under entry band")
	case position.IsLong() && z.Gt(s.exit.Neg()):
		return Exit(fixed.Zero, "z-score reverted to mean")
	default:
		return Hold()
	}
}
