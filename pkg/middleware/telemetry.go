package middleware

import (
	"context"
	"log/slog"

	"github.com/pavel-sokol/quantsim/pkg/bus"
	"github.com/pavel-sokol/quantsim/pkg/common"
)

// Telemetry counts events flowing through the router.
type Telemetry struct {
	barEventCounter             int64
	signalEventCounter          int64
	signalRejectionEventCounter int64
	orderEventCounter           int64
	orderRejectionEventCounter  int64
	fillEventCounter            int64
	positionOpenEventCounter    int64
	positionCloseEventCounter   int64
	snapshotEventCounter        int64
	tradeEventCounter           int64
	dataGapEventCounter         int64
}

func NewTelemetry() *Telemetry {
	return &Telemetry{}
}

func (t *Telemetry) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar common.Bar) {
		t.barEventCounter++
		handler(ctx, bar)
	}
}

func (t *Telemetry) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		t.signalEventCounter++
		handler(ctx, signal)
	}
}

func (t *Telemetry) WithSignalRejected(handler bus.SignalRejectionEventHandler) bus.SignalRejectionEventHandler {
	return func(ctx context.Context, rejection common.SignalRejected) {
		t.signalRejectionEventCounter++
		handler(ctx, rejection)
	}
}

func (t *Telemetry) WithOrder(handler bus.OrderEventHandler) bus.OrderEventHandler {
	return func(ctx context.Context, order common.Order) {
		t.orderEventCounter++
		handler(ctx, order)
	}
}

func (t *Telemetry) WithOrderRejected(handler bus.OrderRejectionEventHandler) bus.OrderRejectionEventHandler {
	return func(ctx context.Context, rejection common.OrderRejected) {
		t.orderRejectionEventCounter++
		handler(ctx, rejection)
	}
}

func (t *Telemetry) WithFill(handler bus.FillEventHandler) bus.FillEventHandler {
	return func(ctx context.Context, fill common.Fill) {
		t.fillEventCounter++
		handler(ctx, fill)
	}
}

func (t *Telemetry) WithPositionOpen(handler bus.PositionOpenEventHandler) bus.PositionOpenEventHandler {
	return func(ctx context.Context, position common.Position) {
		t.positionOpenEventCounter++
		handler(ctx, position)
	}
}

func (t *Telemetry) WithPositionClose(handler bus.PositionCloseEventHandler) bus.PositionCloseEventHandler {
	return func(ctx context.Context, position common.Position) {
		t.positionCloseEventCounter++
		handler(ctx, position)
	}
}

func (t *Telemetry) WithSnapshot(handler bus.SnapshotEventHandler) bus.SnapshotEventHandler {
	return func(ctx context.Context, snapshot common.Snapshot) {
		t.snapshotEventCounter++
		handler(ctx, snapshot)
	}
}

func (t *Telemetry) WithTrade(handler bus.TradeEventHandler) bus.TradeEventHandler {
	return func(ctx context.Context, trade common.Trade) {
		t.tradeEventCounter++
		handler(ctx, trade)
	}
}

func (t *Telemetry) WithDataGap(handler bus.DataGapEventHandler) bus.DataGapEventHandler {
	return func(ctx context.Context, gap common.DataGap) {
		t.dataGapEventCounter++
		handler(ctx, gap)
	}
}

func (t *Telemetry) PrintStatistics() {
	slog.Info("event statistics",
		"bar_events", t.barEventCounter,
		"signal_events", t.signalEventCounter,
		"signal_rejection_events", t.signalRejectionEventCounter,
		"order_events", t.orderEventCounter,
		"order_rejection_events", t.orderRejectionEventCounter,
		"fill_events", t.fillEventCounter,
		"position_open_events", t.positionOpenEventCounter,
		"position_close_events", t.positionCloseEventCounter,
		"snapshot_events", t.snapshotEventCounter,
		"trade_events", t.tradeEventCounter,
		"data_gap_events", t.dataGapEventCounter)
}
