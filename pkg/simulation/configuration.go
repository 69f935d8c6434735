package simulation

import (
	"fmt"
	"time"

	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// GapPolicy decides what the driver does when the bar stream reports a
// missing interval.
type GapPolicy int

const (
	// GapAbort fails the run on the first gap.
	GapAbort GapPolicy = iota
	// GapForwardFill synthesizes flat bars at the last close, with zero
	// volume, for every missing interval and continues.
	GapForwardFill
)

func (p GapPolicy) String() string {
	switch p {
	case GapAbort:
		return "abort"
	case GapForwardFill:
		return "forward-fill"
	default:
		return "unknown"
	}
}

// DefaultEventCapacity sizes the router queue so one bar's worth of events
// never overflows it.
const DefaultEventCapacity = 512

type Configuration struct {
	Symbol         string
	Period         time.Duration
	InitialCapital fixed.Point
	GapPolicy      GapPolicy

	// BarsPerYear drives metric annualization; zero derives it from Period.
	BarsPerYear int64
}

func (c Configuration) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol must be set")
	}
	if c.Period <= 0 {
		return fmt.Errorf("period must be positive, got %v", c.Period)
	}
	if !c.InitialCapital.IsPos() {
		return fmt.Errorf("initial capital must be positive, got %s", c.InitialCapital)
	}
	return nil
}

func (c Configuration) barsPerYear() int64 {
	if c.BarsPerYear > 0 {
		return c.BarsPerYear
	}
	return int64(365 * 24 * time.Hour / c.Period)
}
