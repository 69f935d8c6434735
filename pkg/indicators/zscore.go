package indicators

import (
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// StdDev is a rolling population standard deviation of close prices.
type StdDev struct {
	key    Key
	window *fixed.RingBuffer
}

func NewStdDev(period int) (*StdDev, error) {
	if period <= 1 {
		return nil, fmt.Errorf("stddev period must be above 1, got %d", period)
	}
	return &StdDev{
		key:    StdDevKey(period),
		window: fixed.NewRingBuffer(period),
	}, nil
}

func (s *StdDev) OnBar(bar common.Bar) {
	s.window.Add(bar.Close)
}

func (s *StdDev) Outputs() []Key {
	return []Key{s.key}
}

func (s *StdDev) Value(Key) (fixed.Point, bool) {
	if !s.window.IsFull() {
		return fixed.Zero, false
	}
	return s.window.StdDev(), true
}

func (s *StdDev) Reset() {
	s.window.Clear()
}

// ZScore measures how many standard deviations the current close sits from
// the rolling mean. A flat window has no spread and reads zero.
type ZScore struct {
	key    Key
	window *fixed.RingBuffer
	last   fixed.Point
}

func NewZScore(period int) (*ZScore, error) {
	if period <= 1 {
		return nil, fmt.Errorf("zscore period must be above 1, got %d", period)
	}
	return &ZScore{
		key:    ZScoreKey(period),
		window: fixed.NewRingBuffer(period),
	}, nil
}

func (z *ZScore) OnBar(bar common.Bar) {
	z.window.Add(bar.Close)
	z.last = bar.Close
}

func (z *ZScore) Outputs() []Key {
	return []Key{z.key}
}

func (z *ZScore) Value(Key) (fixed.Point, bool) {
	if !z.window.IsFull() {
		return fixed.Zero, false
	}
	stdDev := z.window.StdDev()
	if stdDev.IsZero() {
		return fixed.Zero, true
	}
	return z.last.Sub(z.window.Mean()).Div(stdDev), true
}

func (z *ZScore) Reset() {
	z.window.Clear()
	z.last = fixed.Zero
}
