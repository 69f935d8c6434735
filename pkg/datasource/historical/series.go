package historical

import (
	"context"
	"fmt"
	"time"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/datasource"
	"github.com/pavel-sokol/quantsim/pkg/utility"
)

// Series is an immutable, validated sequence of bars for one symbol and
// period. Concurrent readers may share a single Series.
type Series struct {
	symbol string
	period time.Duration
	bars   []common.Bar
}

// NewSeries validates ordering and copies bars so later mutation of the input
// slice cannot corrupt the series. Bars must be strictly increasing by close
// time.
func NewSeries(symbol string, period time.Duration, bars []common.Bar) (*Series, error) {
	if period <= 0 {
		return nil, fmt.Errorf("invalid period %v", period)
	}
	owned := make([]common.Bar, len(bars))
	copy(owned, bars)
	for i := 1; i < len(owned); i++ {
		if !owned[i].CloseTime.After(owned[i-1].CloseTime) {
			return nil, fmt.Errorf("bar %d closing at %s is not after bar %d closing at %s",
				i, owned[i].CloseTime.Format(time.RFC3339),
				i-1, owned[i-1].CloseTime.Format(time.RFC3339))
		}
	}
	return &Series{symbol: symbol, period: period, bars: owned}, nil
}

func (s *Series) Symbol() string        { return s.symbol }
func (s *Series) Period() time.Duration { return s.period }
func (s *Series) Len() int              { return len(s.bars) }

// Bar panics on an out of range index, mirroring slice semantics.
func (s *Series) Bar(i int) common.Bar { return s.bars[i] }

// Reader returns a fresh cursor positioned before the first bar. Readers are
// cheap; every simulation run should get its own.
func (s *Series) Reader() *Reader {
	return &Reader{series: s}
}

// Reader iterates a Series implementing datasource.BarStream. Not safe for
// concurrent use.
type Reader struct {
	series    *Series
	idx       int
	prevClose time.Time
}

// Next returns the next bar. When the returned error is a
// *datasource.GapError the bar is still valid and the caller decides whether
// to fill or abort. After exhaustion Next keeps returning ErrEndOfStream.
func (r *Reader) Next(ctx context.Context) (common.Bar, error) {
	if err := ctx.Err(); err != nil {
		return common.Bar{}, err
	}
	if r.idx >= len(r.series.bars) {
		return common.Bar{}, datasource.ErrEndOfStream
	}
	bar := r.series.bars[r.idx]
	r.idx++
	bar.ExecutionID = utility.GetExecutionID()
	bar.TraceID = utility.CreateTraceID()
	err := datasource.CheckContinuity(r.prevClose, bar, r.series.period)
	r.prevClose = bar.CloseTime
	return bar, err
}

// Reset rewinds the reader to the first bar.
func (r *Reader) Reset() {
	r.idx = 0
	r.prevClose = time.Time{}
}
