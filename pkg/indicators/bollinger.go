package indicators

import (
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

var ten = fixed.FromInt(10, 0)

// Bollinger publishes the middle moving average plus upper and lower bands
// width/10 population standard deviations away.
type Bollinger struct {
	upperKey  Key
	middleKey Key
	lowerKey  Key

	width  fixed.Point
	window *fixed.RingBuffer
}

func NewBollinger(period, widthTenths int) (*Bollinger, error) {
	if period <= 1 {
		return nil, fmt.Errorf("bollinger period must be above 1, got %d", period)
	}
	if widthTenths <= 0 {
		return nil, fmt.Errorf("bollinger width must be positive, got %d", widthTenths)
	}
	return &Bollinger{
		upperKey:  BollingerUpperKey(period, widthTenths),
		middleKey: BollingerMiddleKey(period, widthTenths),
		lowerKey:  BollingerLowerKey(period, widthTenths),
		width:     fixed.FromInt(widthTenths, 0).Div(ten),
		window:    fixed.NewRingBuffer(period),
	}, nil
}

func (b *Bollinger) OnBar(bar common.Bar) {
	b.window.Add(bar.Close)
}

func (b *Bollinger) Outputs() []Key {
	return []Key{b.upperKey, b.middleKey, b.lowerKey}
}

func (b *Bollinger) Value(key Key) (fixed.Point, bool) {
	if !b.window.IsFull() {
		return fixed.Zero, false
	}
	mean := b.window.Mean()
	switch key {
	case b.middleKey:
		return mean, true
	case b.upperKey:
		return mean.Add(b.window.StdDev().Mul(b.width)), true
	case b.lowerKey:
		return mean.Sub(b.window.StdDev().Mul(b.width)), true
	default:
		return fixed.Zero, false
	}
}

func (b *Bollinger) Reset() {
	b.window.Clear()
}
