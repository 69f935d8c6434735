package common

import (
	"time"

	"github.com/pavel-sokol/quantsim/pkg/utility"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

type OrderSide int
type OrderType int

const (
	OrderSideBuy OrderSide = iota
	OrderSideSell
)

const (
	OrderTypeMarket OrderType = iota
	OrderTypeLimit
)

func (s OrderSide) String() string {
	if s == OrderSideBuy {
		return "buy"
	}
	return "sell"
}

// Order is ephemeral: it is created from a signal and resolved into at most
// one fill within the same simulation step, or at the next bar's open when
// the fill rule defers execution.
type Order struct {
	Side       OrderSide   `json:"side"`
	Type       OrderType   `json:"type"`
	Quantity   fixed.Point `json:"quantity"`
	LimitPrice fixed.Point `json:"limit_price,omitempty"`
	BarIndex   int64       `json:"bar_index"`

	Source        string              `json:"src,omitempty"`
	Symbol        string              `json:"symbol,omitempty"`
	ExecutionID   utility.ExecutionID `json:"eid,omitempty"`
	TraceID       utility.TraceID     `json:"tid,omitempty"`
	SignalTraceID utility.TraceID     `json:"signal_tid,omitempty"`
	TimeStamp     time.Time           `json:"ts"`
}

type OrderRejected struct {
	OriginalOrder Order  `json:"original_order"`
	Reason        string `json:"reason,omitempty"`

	Source      string              `json:"src,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// Fill records a simulated execution. Price already includes slippage.
type Fill struct {
	Side     OrderSide   `json:"side"`
	Price    fixed.Point `json:"price"`
	Quantity fixed.Point `json:"quantity"`
	Fee      fixed.Point `json:"fee"`
	BarIndex int64       `json:"bar_index"`

	Source       string              `json:"src,omitempty"`
	Symbol       string              `json:"symbol,omitempty"`
	ExecutionID  utility.ExecutionID `json:"eid,omitempty"`
	TraceID      utility.TraceID     `json:"tid,omitempty"`
	OrderTraceID utility.TraceID     `json:"order_tid,omitempty"`
	TimeStamp    time.Time           `json:"ts"`
}

// SignedQuantity returns the position delta of the fill, positive for buys.
func (f Fill) SignedQuantity() fixed.Point {
	if f.Side == OrderSideBuy {
		return f.Quantity
	}
	return f.Quantity.Neg()
}
