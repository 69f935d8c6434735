package common

import (
	"time"

	"github.com/pavel-sokol/quantsim/pkg/utility"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Snapshot is the ledger state at the close of one bar. Snapshots form an
// append-only sequence; Equity always reconciles to
// Cash + Position.Quantity * MarkPrice.
type Snapshot struct {
	BarIndex      int64       `json:"bar_index"`
	Cash          fixed.Point `json:"cash"`
	Position      Position    `json:"position"`
	MarkPrice     fixed.Point `json:"mark_price"`
	RealizedPnL   fixed.Point `json:"realized_pnl"`
	UnrealizedPnL fixed.Point `json:"unrealized_pnl"`
	Equity        fixed.Point `json:"equity"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
