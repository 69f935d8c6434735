package bus

import (
	"context"

	"github.com/pavel-sokol/quantsim/pkg/common"
)

type EventHandler[T any] = func(context.Context, T)

type BarEventHandler EventHandler[common.Bar]
type SignalEventHandler EventHandler[common.Signal]
type SignalRejectionEventHandler EventHandler[common.SignalRejected]
type OrderEventHandler EventHandler[common.Order]
type OrderRejectionEventHandler EventHandler[common.OrderRejected]
type FillEventHandler EventHandler[common.Fill]
type PositionOpenEventHandler EventHandler[common.Position]
type PositionCloseEventHandler EventHandler[common.Position]
type SnapshotEventHandler EventHandler[common.Snapshot]
type TradeEventHandler EventHandler[common.Trade]
type DataGapEventHandler EventHandler[common.DataGap]

func MergeHandlers[T any](handlers ...EventHandler[T]) EventHandler[T] {
	return func(ctx context.Context, event T) {
		for _, handler := range handlers {
			handler(ctx, event)
		}
	}
}
