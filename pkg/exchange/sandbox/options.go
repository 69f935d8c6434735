package sandbox

import (
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// FillRule selects the price a market order executes at.
type FillRule int

const (
	// FillOnClose executes on the close of the bar that produced the signal.
	FillOnClose FillRule = iota
	// FillOnNextOpen queues the order and executes it on the next bar open.
	FillOnNextOpen
)

func (r FillRule) String() string {
	switch r {
	case FillOnClose:
		return "current-close"
	case FillOnNextOpen:
		return "next-open"
	default:
		return "unknown"
	}
}

type Option func(*Simulator)

func WithFillRule(rule FillRule) Option {
	return func(s *Simulator) { s.fillRule = rule }
}

func WithSlippage(model SlippageModel) Option {
	return func(s *Simulator) { s.slippage = model }
}

func WithFees(model FeeModel) Option {
	return func(s *Simulator) { s.fees = model }
}

// WithMinOrderSize rejects orders below the exchange minimum.
func WithMinOrderSize(size fixed.Point) Option {
	return func(s *Simulator) { s.minOrderSize = size }
}

// WithWholeUnits rejects fractional order quantities.
func WithWholeUnits() Option {
	return func(s *Simulator) { s.wholeUnits = true }
}

// WithMargin permits short positions and negative cash; without it buys are
// capped by available cash and shorts are rejected.
func WithMargin() Option {
	return func(s *Simulator) { s.allowMargin = true }
}

// WithStopLoss force-exits when the position loses the given fraction of its
// entry value, checked against bar closes.
func WithStopLoss(rate fixed.Point) Option {
	return func(s *Simulator) { s.stopLossRate = rate }
}

// WithTakeProfit force-exits when the position gains the given fraction.
func WithTakeProfit(rate fixed.Point) Option {
	return func(s *Simulator) { s.takeProfitRate = rate }
}

// WithTrailingStop force-exits when the close retraces the given fraction
// from the best close seen since entry.
func WithTrailingStop(rate fixed.Point) Option {
	return func(s *Simulator) { s.trailingStopRate = rate }
}
