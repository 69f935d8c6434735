package common

import (
	"time"

	"github.com/pavel-sokol/quantsim/pkg/utility"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Trade is a completed round trip: the interval from the position leaving
// flat to returning to flat. Partial reductions accumulate into the same
// trade until the position is fully closed.
type Trade struct {
	Side        PositionSide `json:"side"`
	Quantity    fixed.Point  `json:"quantity"`
	EntryPrice  fixed.Point  `json:"entry_price"`
	ExitPrice   fixed.Point  `json:"exit_price"`
	OpenBar     int64        `json:"open_bar"`
	CloseBar    int64        `json:"close_bar"`
	OpenTime    time.Time    `json:"open_time"`
	CloseTime   time.Time    `json:"close_time"`
	RealizedPnL fixed.Point  `json:"realized_pnl"`
	Fees        fixed.Point  `json:"fees"`

	Symbol      string              `json:"symbol,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
}

// DataGap reports a missed interval boundary in a bar stream. It is an event,
// not a failure; the driver's gap policy decides whether the run continues
// with forward-filled bars or aborts.
type DataGap struct {
	Expected time.Time `json:"expected"`
	Actual   time.Time `json:"actual"`
	Missing  int       `json:"missing"`
	Filled   bool      `json:"filled"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
