package datasource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pavel-sokol/quantsim/pkg/common"
)

var (
	// ErrEndOfStream marks normal exhaustion of a finite stream.
	ErrEndOfStream = errors.New("end of stream")
	// ErrDataGap marks a skipped interval boundary.
	ErrDataGap = errors.New("data gap")
	// ErrDataUnavailable marks a provider failure or a live feed timeout.
	ErrDataUnavailable = errors.New("data unavailable")
)

// BarStream yields bars in strictly increasing close-time order. Next blocks
// only for live streams and honours context cancellation.
type BarStream interface {
	Next(ctx context.Context) (common.Bar, error)
}

// GapError reports bars missing between the previous close and the bar that
// was actually read. The bar is still returned so the caller can forward-fill
// the gap and continue with it, or abort.
type GapError struct {
	Expected time.Time
	Actual   time.Time
	Missing  int
	Bar      common.Bar
}

func (e *GapError) Error() string {
	return fmt.Sprintf("data gap: expected bar closing at %s, got %s (%d missing)",
		e.Expected.Format(time.RFC3339), e.Actual.Format(time.RFC3339), e.Missing)
}

func (e *GapError) Unwrap() error {
	return ErrDataGap
}

// CheckContinuity returns a GapError when bar does not close exactly one
// period after prev. A zero prev close time disables the check.
func CheckContinuity(prevClose time.Time, bar common.Bar, period time.Duration) error {
	if prevClose.IsZero() || period <= 0 {
		return nil
	}
	expected := prevClose.Add(period)
	if bar.CloseTime.Equal(expected) {
		return nil
	}
	missing := int(bar.CloseTime.Sub(expected) / period)
	if bar.CloseTime.Before(expected) {
		missing = 0
	}
	return &GapError{
		Expected: expected,
		Actual:   bar.CloseTime,
		Missing:  missing,
		Bar:      bar,
	}
}
