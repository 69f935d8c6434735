package live

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/datasource"
)

var ErrFeedClosed = errors.New("feed closed")

// Feed bridges a push-style bar provider to the pull-style BarStream the
// simulation loop consumes. Push and Next may run on different goroutines.
type Feed struct {
	bars      chan common.Bar
	closed    chan struct{}
	closeOnce sync.Once

	period    time.Duration
	staleWait time.Duration
	prevClose time.Time
}

// NewFeed creates a feed buffering up to capacity bars. staleWait bounds how
// long Next blocks before reporting the feed unavailable; zero disables the
// timeout.
func NewFeed(period time.Duration, capacity int, staleWait time.Duration) *Feed {
	if capacity <= 0 {
		capacity = 16
	}
	return &Feed{
		bars:      make(chan common.Bar, capacity),
		closed:    make(chan struct{}),
		period:    period,
		staleWait: staleWait,
	}
}

// Push enqueues a finished bar. It fails instead of blocking when the
// consumer is behind, so a slow simulation surfaces as an error rather than
// backpressure on the provider.
func (f *Feed) Push(bar common.Bar) error {
	select {
	case <-f.closed:
		return ErrFeedClosed
	default:
	}
	select {
	case f.bars <- bar:
		return nil
	default:
		return fmt.Errorf("feed buffer full, dropping bar closing at %s", bar.CloseTime.Format(time.RFC3339))
	}
}

// Close ends the stream. Bars already buffered are still delivered, then
// Next reports ErrEndOfStream.
func (f *Feed) Close() {
	f.closeOnce.Do(func() { close(f.closed) })
}

func (f *Feed) Next(ctx context.Context) (common.Bar, error) {
	var stale <-chan time.Time
	if f.staleWait > 0 {
		timer := time.NewTimer(f.staleWait)
		defer timer.Stop()
		stale = timer.C
	}

	for {
		select {
		case bar := <-f.bars:
			err := datasource.CheckContinuity(f.prevClose, bar, f.period)
			f.prevClose = bar.CloseTime
			return bar, err
		case <-ctx.Done():
			return common.Bar{}, ctx.Err()
		case <-stale:
			return common.Bar{}, fmt.Errorf("no bar received within %v: %w", f.staleWait, datasource.ErrDataUnavailable)
		case <-f.closed:
			// Drain what was buffered before the close.
			select {
			case bar := <-f.bars:
				err := datasource.CheckContinuity(f.prevClose, bar, f.period)
				f.prevClose = bar.CloseTime
				return bar, err
			default:
				return common.Bar{}, datasource.ErrEndOfStream
			}
		}
	}
}
