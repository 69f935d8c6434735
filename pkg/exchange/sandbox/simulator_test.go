package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pavel-sokol/quantsim/pkg/bus"
	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/ledger"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

var errDrainDone = errors.New("drain done")

// eventLog collects everything the simulator posted. drain runs the router
// until the queue is empty, so assertions observe a settled event stream.
type eventLog struct {
	router *bus.Router

	orders         []common.Order
	fills          []common.Fill
	trades         []common.Trade
	signalRejects  []common.SignalRejected
	orderRejects   []common.OrderRejected
	positionOpens  int
	positionCloses int
}

func newEventLog() *eventLog {
	log := &eventLog{router: bus.NewRouter(1000)}
	log.router.OnOrder = func(_ context.Context, order common.Order) {
		log.orders = append(log.orders, order)
	}
	log.router.OnFill = func(_ context.Context, fill common.Fill) {
		log.fills = append(log.fills, fill)
	}
	log.router.OnTrade = func(_ context.Context, trade common.Trade) {
		log.trades = append(log.trades, trade)
	}
	log.router.OnSignalRejected = func(_ context.Context, rej common.SignalRejected) {
		log.signalRejects = append(log.signalRejects, rej)
	}
	log.router.OnOrderRejected = func(_ context.Context, rej common.OrderRejected) {
		log.orderRejects = append(log.orderRejects, rej)
	}
	log.router.OnPositionOpen = func(_ context.Context, _ common.Position) {
		log.positionOpens++
	}
	log.router.OnPositionClose = func(_ context.Context, _ common.Position) {
		log.positionCloses++
	}
	return log
}

func (log *eventLog) drain() {
	go log.router.ExecLoop(context.Background(), func() error { return errDrainDone })
	<-log.router.Done()
}

func sandboxBar(barIndex int64, open, high, low, close string) common.Bar {
	closeTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(barIndex+1) * time.Minute)
	return common.Bar{
		Symbol:    "EURUSD",
		Period:    time.Minute,
		OpenTime:  closeTime.Add(-time.Minute),
		CloseTime: closeTime,
		Open:      fixed.MustFromString(open),
		High:      fixed.MustFromString(high),
		Low:       fixed.MustFromString(low),
		Close:     fixed.MustFromString(close),
		Volume:    fixed.FromInt(1000, 0),
	}
}

func flatBar(barIndex int64, price string) common.Bar {
	return sandboxBar(barIndex, price, price, price, price)
}

func sandboxSignal(action common.SignalAction, size string, barIndex int64) common.Signal {
	return common.Signal{
		Action:    action,
		Size:      fixed.MustFromString(size),
		BarIndex:  barIndex,
		Symbol:    "EURUSD",
		TimeStamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(barIndex+1) * time.Minute),
	}
}

func TestSandboxSimulator_OnSignal(t *testing.T) {
	tests := []struct {
		name     string
		cash     int
		opts     []Option
		setup    func(*testing.T, *Simulator)
		signal   common.Signal
		bar      common.Bar
		validate func(*testing.T, *Simulator, *ledger.Ledger, *eventLog)
	}{
		{
			name:   "enter long fills at bar close",
			cash:   10000,
			signal: sandboxSignal(common.SignalEnterLong, "10", 0),
			bar:    flatBar(0, "100"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				require.Len(t, log.fills, 1)
				assert.Equal(t, common.OrderSideBuy, log.fills[0].Side)
				assert.True(t, log.fills[0].Price.Eq(fixed.FromInt(100, 0)))
				assert.True(t, books.Position().Quantity.Eq(fixed.FromInt(10, 0)))
				assert.Equal(t, 1, log.positionOpens)
			},
		},
		{
			name: "duplicate enter long rejected",
			cash: 10000,
			setup: func(t *testing.T, sim *Simulator) {
				require.NoError(t, sim.OnSignal(sandboxSignal(common.SignalEnterLong, "10", 0), flatBar(0, "100")))
			},
			signal: sandboxSignal(common.SignalEnterLong, "10", 1),
			bar:    flatBar(1, "101"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				require.Len(t, log.signalRejects, 1)
				assert.Equal(t, "already long", log.signalRejects[0].Reason)
				assert.Len(t, log.fills, 1)
			},
		},
		{
			name:   "enter short rejected without margin",
			cash:   10000,
			signal: sandboxSignal(common.SignalEnterShort, "5", 0),
			bar:    flatBar(0, "100"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				require.Len(t, log.signalRejects, 1)
				assert.Contains(t, log.signalRejects[0].Reason, "margin")
				assert.Empty(t, log.fills)
			},
		},
		{
			name:   "enter short with margin",
			cash:   10000,
			opts:   []Option{WithMargin()},
			signal: sandboxSignal(common.SignalEnterShort, "5", 0),
			bar:    flatBar(0, "100"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				require.Len(t, log.fills, 1)
				assert.Equal(t, common.OrderSideSell, log.fills[0].Side)
				assert.True(t, books.Position().Quantity.Eq(fixed.FromInt(-5, 0)))
			},
		},
		{
			name:   "exit with no position rejected",
			cash:   10000,
			signal: sandboxSignal(common.SignalExit, "0", 0),
			bar:    flatBar(0, "100"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				require.Len(t, log.signalRejects, 1)
				assert.Equal(t, "no open position", log.signalRejects[0].Reason)
			},
		},
		{
			name: "exit zero size closes whole position",
			cash: 10000,
			setup: func(t *testing.T, sim *Simulator) {
				require.NoError(t, sim.OnSignal(sandboxSignal(common.SignalEnterLong, "10", 0), flatBar(0, "100")))
			},
			signal: sandboxSignal(common.SignalExit, "0", 1),
			bar:    flatBar(1, "110"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				assert.True(t, books.Position().IsFlat())
				assert.True(t, books.RealizedPnL().Eq(fixed.FromInt(100, 0)))
				require.Len(t, log.trades, 1)
				assert.Equal(t, 1, log.positionCloses)
			},
		},
		{
			name: "partial exit keeps position open",
			cash: 10000,
			setup: func(t *testing.T, sim *Simulator) {
				require.NoError(t, sim.OnSignal(sandboxSignal(common.SignalEnterLong, "10", 0), flatBar(0, "100")))
			},
			signal: sandboxSignal(common.SignalExit, "4", 1),
			bar:    flatBar(1, "110"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				assert.True(t, books.Position().Quantity.Eq(fixed.FromInt(6, 0)))
				assert.Empty(t, log.trades)
			},
		},
		{
			name: "enter long while short reverses in one order",
			cash: 10000,
			opts: []Option{WithMargin()},
			setup: func(t *testing.T, sim *Simulator) {
				require.NoError(t, sim.OnSignal(sandboxSignal(common.SignalEnterShort, "5", 0), flatBar(0, "100")))
			},
			signal: sandboxSignal(common.SignalEnterLong, "8", 1),
			bar:    flatBar(1, "100"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				require.Len(t, log.fills, 2)
				// 8 requested plus 5 to cover the short.
				assert.True(t, log.fills[1].Quantity.Eq(fixed.FromInt(13, 0)))
				assert.True(t, books.Position().Quantity.Eq(fixed.FromInt(8, 0)))
				require.Len(t, log.trades, 1)
			},
		},
		{
			name:   "insufficient funds rejects the order",
			cash:   500,
			signal: sandboxSignal(common.SignalEnterLong, "10", 0),
			bar:    flatBar(0, "100"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				require.Len(t, log.orderRejects, 1)
				assert.Contains(t, log.orderRejects[0].Reason, "insufficient funds")
				assert.Empty(t, log.fills)
				assert.True(t, books.Cash().Eq(fixed.FromInt(500, 0)))
			},
		},
		{
			name:   "fractional quantity rejected with whole units",
			cash:   10000,
			opts:   []Option{WithWholeUnits()},
			signal: sandboxSignal(common.SignalEnterLong, "1.5", 0),
			bar:    flatBar(0, "100"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				require.Len(t, log.signalRejects, 1)
				assert.Contains(t, log.signalRejects[0].Reason, "fractional")
			},
		},
		{
			name:   "below minimum order size rejected",
			cash:   10000,
			opts:   []Option{WithMinOrderSize(fixed.FromInt(5, 0))},
			signal: sandboxSignal(common.SignalEnterLong, "2", 0),
			bar:    flatBar(0, "100"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				require.Len(t, log.signalRejects, 1)
				assert.Contains(t, log.signalRejects[0].Reason, "minimum order size")
			},
		},
		{
			name: "adjust sell capped at held quantity without margin",
			cash: 10000,
			setup: func(t *testing.T, sim *Simulator) {
				require.NoError(t, sim.OnSignal(sandboxSignal(common.SignalEnterLong, "5", 0), flatBar(0, "100")))
			},
			signal: sandboxSignal(common.SignalAdjust, "-9", 1),
			bar:    flatBar(1, "100"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				assert.True(t, books.Position().IsFlat(), "reduction must stop at flat")
				require.Len(t, log.fills, 2)
				assert.True(t, log.fills[1].Quantity.Eq(fixed.FromInt(5, 0)))
			},
		},
		{
			name:   "hold does nothing",
			cash:   10000,
			signal: sandboxSignal(common.SignalHold, "0", 0),
			bar:    flatBar(0, "100"),
			validate: func(t *testing.T, sim *Simulator, books *ledger.Ledger, log *eventLog) {
				assert.Empty(t, log.orders)
				assert.Empty(t, log.fills)
				assert.Empty(t, log.signalRejects)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := newEventLog()
			var ledgerOpts []ledger.Option
			if hasMargin(tt.opts) {
				ledgerOpts = append(ledgerOpts, ledger.WithMargin())
			}
			books := ledger.New("EURUSD", fixed.FromInt(tt.cash, 0), ledgerOpts...)
			sim := NewSimulator(log.router, books, tt.opts...)

			if tt.setup != nil {
				tt.setup(t, sim)
			}
			require.NoError(t, sim.OnSignal(tt.signal, tt.bar))

			log.drain()
			tt.validate(t, sim, books, log)
		})
	}
}

func hasMargin(opts []Option) bool {
	probe := &Simulator{}
	for _, opt := range opts {
		opt(probe)
	}
	return probe.allowMargin
}

func TestSandboxSimulator_FeesAndSlippage(t *testing.T) {
	log := newEventLog()
	books := ledger.New("EURUSD", fixed.FromInt(10000, 0))
	sim := NewSimulator(log.router, books,
		WithSlippage(FixedBpsSlippage(fixed.FromInt(100, 0))),
		WithFees(BpsFees(fixed.FromInt(50, 0))),
	)

	require.NoError(t, sim.OnSignal(sandboxSignal(common.SignalEnterLong, "1", 0), flatBar(0, "100")))
	log.drain()

	require.Len(t, log.fills, 1)
	fill := log.fills[0]
	// 100 bps of slippage on a buy pays 101.
	assert.True(t, fill.Price.Eq(fixed.FromInt(101, 0)), "price = %s", fill.Price)
	// 50 bps fee on the 101 notional.
	assert.True(t, fill.Fee.Eq(fixed.MustFromString("0.505")), "fee = %s", fill.Fee)
	assert.True(t, books.Fees().Eq(fixed.MustFromString("0.505")))
}

func TestSandboxSimulator_FeeExceedingProceedsRejectsExit(t *testing.T) {
	log := newEventLog()
	books := ledger.New("EURUSD", fixed.FromInt(701, 0))
	sim := NewSimulator(log.router, books, WithFees(FlatFees(fixed.FromInt(600, 0))))

	require.NoError(t, sim.OnSignal(sandboxSignal(common.SignalEnterLong, "1", 0), flatBar(0, "100")))

	// The flat fee dwarfs the sale proceeds; the exit must be rejected
	// instead of driving the cash balance negative.
	require.NoError(t, sim.OnSignal(sandboxSignal(common.SignalExit, "0", 1), flatBar(1, "100")))
	log.drain()

	require.Len(t, log.fills, 1, "only the entry fills")
	require.Len(t, log.orderRejects, 1)
	assert.Contains(t, log.orderRejects[0].Reason, "insufficient funds")
	assert.True(t, books.Position().Quantity.Eq(fixed.FromInt(1, 0)))
	assert.True(t, books.Cash().Eq(fixed.FromInt(1, 0)), "cash = %s", books.Cash())
}

func TestSandboxSimulator_FillOnNextOpen(t *testing.T) {
	log := newEventLog()
	books := ledger.New("EURUSD", fixed.FromInt(10000, 0))
	sim := NewSimulator(log.router, books, WithFillRule(FillOnNextOpen))

	signalBar := sandboxBar(0, "100", "100", "100", "100")
	require.NoError(t, sim.OnSignal(sandboxSignal(common.SignalEnterLong, "10", 0), signalBar))
	assert.True(t, books.Position().IsFlat(), "order must wait for the next open")

	nextBar := sandboxBar(1, "102", "103", "101", "103")
	require.NoError(t, sim.OnBarOpen(nextBar, 1))
	log.drain()

	require.Len(t, log.fills, 1)
	assert.True(t, log.fills[0].Price.Eq(fixed.FromInt(102, 0)), "fill at the next bar open")
	assert.Equal(t, int64(1), log.fills[0].BarIndex, "fill belongs to the execution bar")
	assert.True(t, books.Position().Quantity.Eq(fixed.FromInt(10, 0)))
}

func TestSandboxSimulator_ProtectiveExits(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		entryClose string
		bars       []common.Bar
		wantReason string
		wantFlat   bool
	}{
		{
			name:       "stop loss on loss threshold",
			opts:       []Option{WithStopLoss(fixed.MustFromString("0.05"))},
			entryClose: "100",
			bars: []common.Bar{
				flatBar(1, "98"),
				flatBar(2, "94"),
			},
			wantReason: "stop-loss",
			wantFlat:   true,
		},
		{
			name:       "take profit on gain threshold",
			opts:       []Option{WithTakeProfit(fixed.MustFromString("0.10"))},
			entryClose: "100",
			bars: []common.Bar{
				flatBar(1, "105"),
				flatBar(2, "111"),
			},
			wantReason: "take-profit",
			wantFlat:   true,
		},
		{
			name:       "trailing stop after retrace",
			opts:       []Option{WithTrailingStop(fixed.MustFromString("0.05"))},
			entryClose: "100",
			bars: []common.Bar{
				flatBar(1, "120"),
				flatBar(2, "113"),
			},
			wantReason: "trailing-stop",
			wantFlat:   true,
		},
		{
			name:       "no exit inside thresholds",
			opts:       []Option{WithStopLoss(fixed.MustFromString("0.05")), WithTakeProfit(fixed.MustFromString("0.10"))},
			entryClose: "100",
			bars: []common.Bar{
				flatBar(1, "102"),
				flatBar(2, "98"),
			},
			wantReason: "",
			wantFlat:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := newEventLog()
			books := ledger.New("EURUSD", fixed.FromInt(10000, 0))
			sim := NewSimulator(log.router, books, tt.opts...)

			entryBar := flatBar(0, tt.entryClose)
			require.NoError(t, sim.OnSignal(sandboxSignal(common.SignalEnterLong, "10", 0), entryBar))
			require.NoError(t, sim.CheckExits(entryBar, 0))

			for i, bar := range tt.bars {
				require.NoError(t, sim.CheckExits(bar, int64(i+1)))
			}
			log.drain()

			if tt.wantFlat {
				assert.True(t, books.Position().IsFlat())
				require.Len(t, log.trades, 1)
				var exitOrder *common.Order
				for i := range log.orders {
					if log.orders[i].Source == simulatorComponentName+"."+tt.wantReason {
						exitOrder = &log.orders[i]
					}
				}
				require.NotNil(t, exitOrder, "expected an order tagged %s", tt.wantReason)
			} else {
				assert.False(t, books.Position().IsFlat())
				assert.Len(t, log.trades, 0)
			}
		})
	}
}

func TestSandboxSimulator_TrailingStopOnShort(t *testing.T) {
	log := newEventLog()
	books := ledger.New("EURUSD", fixed.FromInt(10000, 0), ledger.WithMargin())
	sim := NewSimulator(log.router, books, WithMargin(), WithTrailingStop(fixed.MustFromString("0.05")))

	entryBar := flatBar(0, "100")
	require.NoError(t, sim.OnSignal(sandboxSignal(common.SignalEnterShort, "10", 0), entryBar))
	require.NoError(t, sim.CheckExits(entryBar, 0))

	// Short improves as price falls; the best close ratchets down to 80.
	require.NoError(t, sim.CheckExits(flatBar(1, "80"), 1))
	assert.False(t, books.Position().IsFlat())

	// A bounce of 5% above the best close covers the short.
	require.NoError(t, sim.CheckExits(flatBar(2, "85"), 2))
	log.drain()

	assert.True(t, books.Position().IsFlat())
	require.Len(t, log.trades, 1)
	assert.Equal(t, common.PositionSideShort, log.trades[0].Side)
}
