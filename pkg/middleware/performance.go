package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/pavel-sokol/quantsim/pkg/bus"
	"github.com/pavel-sokol/quantsim/pkg/common"
)

// Performance accumulates handler wall time per event kind.
type Performance struct {
	totalBarHandlerDur      time.Duration
	totalSignalHandlerDur   time.Duration
	totalFillHandlerDur     time.Duration
	totalSnapshotHandlerDur time.Duration

	barCount      int64
	signalCount   int64
	fillCount     int64
	snapshotCount int64
}

func NewPerformance() *Performance {
	return &Performance{}
}

func (p *Performance) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar common.Bar) {
		startTime := time.Now()
		handler(ctx, bar)
		p.totalBarHandlerDur += time.Since(startTime)
		p.barCount++
	}
}

func (p *Performance) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		startTime := time.Now()
		handler(ctx, signal)
		p.totalSignalHandlerDur += time.Since(startTime)
		p.signalCount++
	}
}

func (p *Performance) WithFill(handler bus.FillEventHandler) bus.FillEventHandler {
	return func(ctx context.Context, fill common.Fill) {
		startTime := time.Now()
		handler(ctx, fill)
		p.totalFillHandlerDur += time.Since(startTime)
		p.fillCount++
	}
}

func (p *Performance) WithSnapshot(handler bus.SnapshotEventHandler) bus.SnapshotEventHandler {
	return func(ctx context.Context, snapshot common.Snapshot) {
		startTime := time.Now()
		handler(ctx, snapshot)
		p.totalSnapshotHandlerDur += time.Since(startTime)
		p.snapshotCount++
	}
}

func (p *Performance) PrintStatistics() {
	fields := make([]any, 0, 8)

	if p.barCount > 0 {
		fields = append(fields, "bar_avg_duration", p.totalBarHandlerDur/time.Duration(p.barCount))
	}
	if p.signalCount > 0 {
		fields = append(fields, "signal_avg_duration", p.totalSignalHandlerDur/time.Duration(p.signalCount))
	}
	if p.fillCount > 0 {
		fields = append(fields, "fill_avg_duration", p.totalFillHandlerDur/time.Duration(p.fillCount))
	}
	if p.snapshotCount > 0 {
		fields = append(fields, "snapshot_avg_duration", p.totalSnapshotHandlerDur/time.Duration(p.snapshotCount))
	}

	slog.Info("performance statistics", fields...)
}
