package indicators

import (
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Sma is a simple moving average of close prices.
type Sma struct {
	key    Key
	window *fixed.RingBuffer
}

func NewSma(period int) (*Sma, error) {
	if period <= 0 {
		return nil, fmt.Errorf("sma period must be positive, got %d", period)
	}
	return &Sma{
		key:    SmaKey(period),
		window: fixed.NewRingBuffer(period),
	}, nil
}

func (s *Sma) OnBar(bar common.Bar) {
	s.window.Add(bar.Close)
}

func (s *Sma) Outputs() []Key {
	return []Key{s.key}
}

func (s *Sma) Value(Key) (fixed.Point, bool) {
	if !s.window.IsFull() {
		return fixed.Zero, false
	}
	return s.window.Mean(), true
}

func (s *Sma) Reset() {
	s.window.Clear()
}
