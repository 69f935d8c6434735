package common

import (
	"time"

	"github.com/pavel-sokol/quantsim/pkg/utility"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

type SignalAction int

const (
	SignalHold SignalAction = iota
	SignalEnterLong
	SignalEnterShort
	SignalExit
	SignalAdjust
)

func (a SignalAction) String() string {
	switch a {
	case SignalHold:
		return "hold"
	case SignalEnterLong:
		return "enter-long"
	case SignalEnterShort:
		return "enter-short"
	case SignalExit:
		return "exit"
	case SignalAdjust:
		return "adjust"
	default:
		return "unknown"
	}
}

// Signal is the tagged outcome of one strategy evaluation. Exactly one is
// produced per bar. Size is in units of the traded instrument: for Exit a
// zero size closes the whole position, for Adjust it is a signed delta.
type Signal struct {
	Action   SignalAction `json:"action"`
	Size     fixed.Point  `json:"size"`
	BarIndex int64        `json:"bar_index"`
	Comment  string       `json:"comment,omitempty"`

	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}

// SignalRejected records a signal the execution simulator refused to act on,
// e.g. insufficient funds or duplicate exposure. Rejections are events, not
// run failures.
type SignalRejected struct {
	OriginalSignal Signal `json:"original_signal"`
	Reason         string `json:"reason,omitempty"`

	Source      string              `json:"src,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	TimeStamp   time.Time           `json:"ts"`
}
