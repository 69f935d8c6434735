package sandbox

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavel-sokol/quantsim/pkg/bus"
	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/ledger"
	"github.com/pavel-sokol/quantsim/pkg/utility"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

const simulatorComponentName = "exchange.sandbox"

// ErrInsufficientFunds marks an order the account cannot pay for. It is
// surfaced as a rejection event; the run itself continues.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Simulator resolves signals into orders and orders into fills against bar
// prices, and books every fill into the ledger. It never invents liquidity
// beyond the configured slippage and fee models, and it enforces exchange
// constraints such as minimum order size and cash coverage.
type Simulator struct {
	router *bus.Router
	books  *ledger.Ledger

	fillRule     FillRule
	slippage     SlippageModel
	fees         FeeModel
	minOrderSize fixed.Point
	wholeUnits   bool
	allowMargin  bool

	stopLossRate     fixed.Point
	takeProfitRate   fixed.Point
	trailingStopRate fixed.Point
	bestClose        fixed.Point

	pending []common.Order
}

func NewSimulator(router *bus.Router, books *ledger.Ledger, opts ...Option) *Simulator {
	s := &Simulator{
		router:       router,
		books:        books,
		fillRule:     FillOnClose,
		slippage:     NoSlippage(),
		fees:         NoFees(),
		minOrderSize: fixed.Zero,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnBarOpen executes orders deferred to the next open. Called before the
// indicator update so the fill price is the first price of the new bar.
func (s *Simulator) OnBarOpen(bar common.Bar, barIndex int64) error {
	if len(s.pending) == 0 {
		return nil
	}
	queue := s.pending
	s.pending = nil
	for _, order := range queue {
		if err := s.execute(order, bar.Open, bar, barIndex); err != nil {
			return err
		}
	}
	return nil
}

// OnSignal turns one strategy signal into at most one order. Signals the
// account state cannot honour are rejected with an event and skipped.
func (s *Simulator) OnSignal(signal common.Signal, bar common.Bar) error {
	position := s.books.Position()

	var side common.OrderSide
	var quantity fixed.Point

	switch signal.Action {
	case common.SignalHold:
		return nil

	case common.SignalEnterLong:
		if position.IsLong() {
			s.rejectSignal(signal, "already long")
			return nil
		}
		side = common.OrderSideBuy
		quantity = signal.Size.Add(position.Quantity.Abs())

	case common.SignalEnterShort:
		if position.IsShort() {
			s.rejectSignal(signal, "already short")
			return nil
		}
		if !s.allowMargin {
			s.rejectSignal(signal, "short selling requires margin")
			return nil
		}
		side = common.OrderSideSell
		quantity = signal.Size.Add(position.Quantity.Abs())

	case common.SignalExit:
		if position.IsFlat() {
			s.rejectSignal(signal, "no open position")
			return nil
		}
		quantity = position.Quantity.Abs()
		if signal.Size.IsPos() && signal.Size.Lt(quantity) {
			quantity = signal.Size
		}
		side = common.OrderSideSell
		if position.IsShort() {
			side = common.OrderSideBuy
		}

	case common.SignalAdjust:
		if signal.Size.IsZero() {
			return nil
		}
		if signal.Size.IsPos() {
			side = common.OrderSideBuy
			quantity = signal.Size
		} else {
			side = common.OrderSideSell
			quantity = signal.Size.Abs()
		}
		if side == common.OrderSideSell && !s.allowMargin {
			// Cap the reduction at the open quantity instead of going short.
			held := position.Quantity.Abs()
			if held.IsZero() {
				s.rejectSignal(signal, "no open position to reduce")
				return nil
			}
			quantity = fixed.Min(quantity, held)
		}

	default:
		s.rejectSignal(signal, fmt.Sprintf("unsupported action %s", signal.Action))
		return nil
	}

	if !quantity.IsPos() {
		s.rejectSignal(signal, "order quantity must be positive")
		return nil
	}
	if s.wholeUnits && !quantity.Eq(quantity.Rescale(0)) {
		s.rejectSignal(signal, fmt.Sprintf("fractional quantity %s not allowed", quantity))
		return nil
	}
	if s.minOrderSize.IsPos() && quantity.Lt(s.minOrderSize) {
		s.rejectSignal(signal, fmt.Sprintf("quantity %s below minimum order size %s", quantity, s.minOrderSize))
		return nil
	}

	order := common.Order{
		Side:          side,
		Type:          common.OrderTypeMarket,
		Quantity:      quantity,
		BarIndex:      signal.BarIndex,
		Source:        simulatorComponentName,
		Symbol:        signal.Symbol,
		ExecutionID:   signal.ExecutionID,
		TraceID:       utility.CreateTraceID(),
		SignalTraceID: signal.TraceID,
		TimeStamp:     signal.TimeStamp,
	}
	s.post(bus.OrderEvent, order)

	if s.fillRule == FillOnNextOpen {
		s.pending = append(s.pending, order)
		return nil
	}
	return s.execute(order, bar.Close, bar, signal.BarIndex)
}

// CheckExits enforces the configured protective stops against the bar close.
// Called after the indicator update and before the strategy evaluates, so a
// stop and a strategy signal on the same bar are resolved stop first.
func (s *Simulator) CheckExits(bar common.Bar, barIndex int64) error {
	position := s.books.Position()
	if position.IsFlat() {
		s.bestClose = fixed.Zero
		return nil
	}
	if s.bestClose.IsZero() {
		s.bestClose = bar.Close
	}
	if position.IsLong() {
		s.bestClose = fixed.Max(s.bestClose, bar.Close)
	} else {
		s.bestClose = fixed.Min(s.bestClose, bar.Close)
	}

	entry := position.AvgEntryPrice
	if entry.IsZero() {
		return nil
	}
	pnlRate := bar.Close.Sub(entry).Div(entry)
	if position.IsShort() {
		pnlRate = pnlRate.Neg()
	}

	reason := ""
	switch {
	case s.stopLossRate.IsPos() && pnlRate.Lte(s.stopLossRate.Neg()):
		reason = "stop-loss"
	case s.takeProfitRate.IsPos() && pnlRate.Gte(s.takeProfitRate):
		reason = "take-profit"
	case s.trailingStopRate.IsPos() && s.retraced(bar.Close, position):
		reason = "trailing-stop"
	}
	if reason == "" {
		return nil
	}

	side := common.OrderSideSell
	if position.IsShort() {
		side = common.OrderSideBuy
	}
	order := common.Order{
		Side:        side,
		Type:        common.OrderTypeMarket,
		Quantity:    position.Quantity.Abs(),
		BarIndex:    barIndex,
		Source:      simulatorComponentName + "." + reason,
		Symbol:      bar.Symbol,
		ExecutionID: bar.ExecutionID,
		TraceID:     utility.CreateTraceID(),
		TimeStamp:   bar.CloseTime,
	}
	s.post(bus.OrderEvent, order)
	return s.execute(order, bar.Close, bar, barIndex)
}

func (s *Simulator) retraced(close fixed.Point, position common.Position) bool {
	if s.bestClose.IsZero() {
		return false
	}
	retrace := s.bestClose.Mul(s.trailingStopRate)
	if position.IsLong() {
		return close.Lte(s.bestClose.Sub(retrace))
	}
	return close.Gte(s.bestClose.Add(retrace))
}

// execute resolves an order into a fill at the slippage-adjusted price and
// books it. Funding failures reject the order; accounting failures abort the
// run.
func (s *Simulator) execute(order common.Order, refPrice fixed.Point, bar common.Bar, barIndex int64) error {
	price := s.slippage.Adjust(refPrice, order.Quantity, bar.Volume, order.Side)
	notional := price.Mul(order.Quantity)
	fee := s.fees.Fee(notional)

	if !s.allowMargin {
		if order.Side == common.OrderSideBuy {
			cost := notional.Add(fee)
			if cost.Gt(s.books.Cash()) {
				s.rejectOrder(order, fmt.Sprintf("%v: need %s, have %s", ErrInsufficientFunds, cost, s.books.Cash()))
				return nil
			}
		} else if fee.Gt(notional.Add(s.books.Cash())) {
			s.rejectOrder(order, fmt.Sprintf("%v: fee %s exceeds proceeds %s plus cash %s",
				ErrInsufficientFunds, fee, notional, s.books.Cash()))
			return nil
		}
	}

	fill := common.Fill{
		Side:         order.Side,
		Price:        price,
		Quantity:     order.Quantity,
		Fee:          fee,
		BarIndex:     barIndex,
		Source:       simulatorComponentName,
		Symbol:       order.Symbol,
		ExecutionID:  order.ExecutionID,
		TraceID:      utility.CreateTraceID(),
		OrderTraceID: order.TraceID,
		TimeStamp:    bar.CloseTime,
	}

	result, err := s.books.Apply(fill)
	if err != nil {
		return fmt.Errorf("booking fill %d: %w", fill.TraceID, err)
	}

	s.post(bus.FillEvent, fill)
	if result.Opened {
		s.bestClose = fixed.Zero
		s.post(bus.PositionOpenEvent, s.books.Position())
	}
	if result.Closed {
		s.bestClose = fixed.Zero
		s.post(bus.PositionCloseEvent, common.Position{})
		s.post(bus.TradeEvent, result.ClosedTrade)
	}
	return nil
}

func (s *Simulator) rejectSignal(signal common.Signal, reason string) {
	s.post(bus.SignalRejectionEvent, common.SignalRejected{
		OriginalSignal: signal,
		Reason:         reason,
		Source:         simulatorComponentName,
		ExecutionID:    signal.ExecutionID,
		TraceID:        utility.CreateTraceID(),
		TimeStamp:      signal.TimeStamp,
	})
}

func (s *Simulator) rejectOrder(order common.Order, reason string) {
	s.post(bus.OrderRejectionEvent, common.OrderRejected{
		OriginalOrder: order,
		Reason:        reason,
		Source:        simulatorComponentName,
		ExecutionID:   order.ExecutionID,
		TraceID:       utility.CreateTraceID(),
		TimeStamp:     order.TimeStamp,
	})
}

func (s *Simulator) post(id bus.EventId, data interface{}) {
	if err := s.router.Post(id, data); err != nil {
		slog.Warn("unable to post event", "event", id, "error", err)
	}
}
