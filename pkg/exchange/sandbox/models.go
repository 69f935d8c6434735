package sandbox

import (
	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

type SlippageMode int

const (
	SlippageNone SlippageMode = iota
	SlippageFixedBps
	SlippageVolumeShare
)

// SlippageModel worsens the reference price against the taker. FixedBps
// moves it by a constant fraction, VolumeShare scales the move with the
// order's share of the bar volume.
type SlippageModel struct {
	Mode   SlippageMode
	Bps    fixed.Point
	Impact fixed.Point
}

func NoSlippage() SlippageModel {
	return SlippageModel{Mode: SlippageNone}
}

func FixedBpsSlippage(bps fixed.Point) SlippageModel {
	return SlippageModel{Mode: SlippageFixedBps, Bps: bps}
}

// VolumeShareSlippage moves the price by impact multiplied with the order
// quantity over the bar volume, in fractional terms.
func VolumeShareSlippage(impact fixed.Point) SlippageModel {
	return SlippageModel{Mode: SlippageVolumeShare, Impact: impact}
}

// Adjust returns the execution price for the given reference price. Buys pay
// up, sells receive less.
func (m SlippageModel) Adjust(price, quantity, barVolume fixed.Point, side common.OrderSide) fixed.Point {
	var move fixed.Point
	switch m.Mode {
	case SlippageFixedBps:
		move = price.Mul(m.Bps).Div(fixed.TenThousand)
	case SlippageVolumeShare:
		if barVolume.IsZero() {
			return price
		}
		move = price.Mul(m.Impact).Mul(quantity).Div(barVolume)
	default:
		return price
	}
	if side == common.OrderSideBuy {
		return price.Add(move)
	}
	return price.Sub(move)
}

type FeeMode int

const (
	FeeNone FeeMode = iota
	FeeBps
	FeeFlat
)

// FeeModel charges per executed order. Bps fees are proportional to the
// executed notional, flat fees are a constant amount per fill.
type FeeModel struct {
	Mode FeeMode
	Bps  fixed.Point
	Flat fixed.Point
}

func NoFees() FeeModel {
	return FeeModel{Mode: FeeNone}
}

func BpsFees(bps fixed.Point) FeeModel {
	return FeeModel{Mode: FeeBps, Bps: bps}
}

func FlatFees(amount fixed.Point) FeeModel {
	return FeeModel{Mode: FeeFlat, Flat: amount}
}

func (m FeeModel) Fee(notional fixed.Point) fixed.Point {
	switch m.Mode {
	case FeeBps:
		return notional.Abs().Mul(m.Bps).Div(fixed.TenThousand)
	case FeeFlat:
		return m.Flat
	default:
		return fixed.Zero
	}
}
