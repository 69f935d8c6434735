package middleware

import (
	"context"
	"log/slog"

	"github.com/pavel-sokol/quantsim/pkg/bus"
	"github.com/pavel-sokol/quantsim/pkg/common"
)

type MonitorFlags uint16

//goland:noinspection GoUnusedConst
const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorBars
	MonitorSignals
	MonitorSignalsRejected
	MonitorOrders
	MonitorOrdersRejected
	MonitorFills
	MonitorPositionsOpened
	MonitorPositionsClosed
	MonitorSnapshots
	MonitorTrades
	MonitorDataGaps
)

// Monitor logs selected event kinds as they pass through the router.
type Monitor struct {
	flags MonitorFlags
}

func NewMonitor(flags MonitorFlags) *Monitor {
	return &Monitor{
		flags: flags,
	}
}

func (m *Monitor) enabled(flag MonitorFlags) bool {
	return m.flags&MonitorAll != 0 || m.flags&flag != 0
}

func (m *Monitor) WithBar(handler bus.BarEventHandler) bus.BarEventHandler {
	return func(ctx context.Context, bar common.Bar) {
		if m.enabled(MonitorBars) {
			slog.Info("bar",
				"symbol", bar.Symbol,
				"close_time", bar.CloseTime,
				"close", bar.Close.String(),
				"volume", bar.Volume.String())
		}
		handler(ctx, bar)
	}
}

func (m *Monitor) WithSignal(handler bus.SignalEventHandler) bus.SignalEventHandler {
	return func(ctx context.Context, signal common.Signal) {
		if m.enabled(MonitorSignals) && signal.Action != common.SignalHold {
			slog.Info("signal",
				"action", signal.Action.String(),
				"size", signal.Size.String(),
				"bar_index", signal.BarIndex,
				"comment", signal.Comment)
		}
		handler(ctx, signal)
	}
}

func (m *Monitor) WithSignalRejected(handler bus.SignalRejectionEventHandler) bus.SignalRejectionEventHandler {
	return func(ctx context.Context, rejection common.SignalRejected) {
		if m.enabled(MonitorSignalsRejected) {
			slog.Warn("signal rejected",
				"action", rejection.OriginalSignal.Action.String(),
				"bar_index", rejection.OriginalSignal.BarIndex,
				"reason", rejection.Reason)
		}
		handler(ctx, rejection)
	}
}

func (m *Monitor) WithOrder(handler bus.OrderEventHandler) bus.OrderEventHandler {
	return func(ctx context.Context, order common.Order) {
		if m.enabled(MonitorOrders) {
			slog.Info("order",
				"side", order.Side.String(),
				"quantity", order.Quantity.String(),
				"bar_index", order.BarIndex)
		}
		handler(ctx, order)
	}
}

func (m *Monitor) WithOrderRejected(handler bus.OrderRejectionEventHandler) bus.OrderRejectionEventHandler {
	return func(ctx context.Context, rejection common.OrderRejected) {
		if m.enabled(MonitorOrdersRejected) {
			slog.Warn("order rejected",
				"side", rejection.OriginalOrder.Side.String(),
				"quantity", rejection.OriginalOrder.Quantity.String(),
				"reason", rejection.Reason)
		}
		handler(ctx, rejection)
	}
}

func (m *Monitor) WithFill(handler bus.FillEventHandler) bus.FillEventHandler {
	return func(ctx context.Context, fill common.Fill) {
		if m.enabled(MonitorFills) {
			slog.Info("fill",
				"side", fill.Side.String(),
				"price", fill.Price.String(),
				"quantity", fill.Quantity.String(),
				"fee", fill.Fee.String())
		}
		handler(ctx, fill)
	}
}

func (m *Monitor) WithPositionOpen(handler bus.PositionOpenEventHandler) bus.PositionOpenEventHandler {
	return func(ctx context.Context, position common.Position) {
		if m.enabled(MonitorPositionsOpened) {
			slog.Info("position opened",
				"side", position.Side().String(),
				"quantity", position.Quantity.String(),
				"avg_entry", position.AvgEntryPrice.String())
		}
		handler(ctx, position)
	}
}

func (m *Monitor) WithPositionClose(handler bus.PositionCloseEventHandler) bus.PositionCloseEventHandler {
	return func(ctx context.Context, position common.Position) {
		if m.enabled(MonitorPositionsClosed) {
			slog.Info("position closed")
		}
		handler(ctx, position)
	}
}

func (m *Monitor) WithSnapshot(handler bus.SnapshotEventHandler) bus.SnapshotEventHandler {
	return func(ctx context.Context, snapshot common.Snapshot) {
		if m.enabled(MonitorSnapshots) {
			slog.Info("snapshot",
				"bar_index", snapshot.BarIndex,
				"cash", snapshot.Cash.String(),
				"equity", snapshot.Equity.String(),
				"unrealized_pnl", snapshot.UnrealizedPnL.String())
		}
		handler(ctx, snapshot)
	}
}

func (m *Monitor) WithTrade(handler bus.TradeEventHandler) bus.TradeEventHandler {
	return func(ctx context.Context, trade common.Trade) {
		if m.enabled(MonitorTrades) {
			slog.Info("trade",
				"side", trade.Side.String(),
				"quantity", trade.Quantity.String(),
				"entry", trade.EntryPrice.String(),
				"exit", trade.ExitPrice.String(),
				"realized_pnl", trade.RealizedPnL.String())
		}
		handler(ctx, trade)
	}
}

func (m *Monitor) WithDataGap(handler bus.DataGapEventHandler) bus.DataGapEventHandler {
	return func(ctx context.Context, gap common.DataGap) {
		if m.enabled(MonitorDataGaps) {
			slog.Warn("data gap",
				"expected", gap.Expected,
				"actual", gap.Actual,
				"missing", gap.Missing,
				"filled", gap.Filled)
		}
		handler(ctx, gap)
	}
}
