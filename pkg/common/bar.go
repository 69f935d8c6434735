package common

import (
	"time"

	"github.com/pavel-sokol/quantsim/pkg/utility"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

// Bar is one OHLCV candle for a fixed interval. Bars are immutable once
// produced and ordered by strictly increasing CloseTime within one stream.
type Bar struct {
	Source      string              `json:"src,omitempty"`
	Symbol      string              `json:"symbol,omitempty"`
	ExecutionID utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
	Period      time.Duration       `json:"period"`
	OpenTime    time.Time           `json:"open_time"`
	CloseTime   time.Time           `json:"close_time"`
	Open        fixed.Point         `json:"open"`
	High        fixed.Point         `json:"high"`
	Low         fixed.Point         `json:"low"`
	Close       fixed.Point         `json:"close"`
	Volume      fixed.Point         `json:"volume"`
}
