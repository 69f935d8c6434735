package middleware

import (
	"context"

	"github.com/pavel-sokol/quantsim/pkg/common"
)

//goland:noinspection GoUnusedGlobalVariable
var (
	NoopBarHdl            = func(context.Context, common.Bar) {}
	NoopSignalHdl         = func(context.Context, common.Signal) {}
	NoopSignalRejectedHdl = func(context.Context, common.SignalRejected) {}
	NoopOrderHdl          = func(context.Context, common.Order) {}
	NoopOrderRejectedHdl  = func(context.Context, common.OrderRejected) {}
	NoopFillHdl           = func(context.Context, common.Fill) {}
	NoopPositionHdl       = func(context.Context, common.Position) {}
	NoopSnapshotHdl       = func(context.Context, common.Snapshot) {}
	NoopTradeHdl          = func(context.Context, common.Trade) {}
	NoopDataGapHdl        = func(context.Context, common.DataGap) {}
)
