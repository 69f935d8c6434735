package ledger

import (
	"errors"
	"fmt"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

const componentName = "ledger"

// ErrInconsistent marks a broken accounting invariant: negative cash without
// margin, or equity that no longer reconciles with cash and position. The
// ledger must not be used after it.
var ErrInconsistent = errors.New("ledger inconsistent")

type Option func(*Ledger)

// WithMargin allows negative cash and short positions.
func WithMargin() Option {
	return func(l *Ledger) {
		l.allowMargin = true
	}
}

// Ledger tracks cash, one net position, realized profit and the full fill,
// trade and snapshot history of a run. The position is carried as quantity
// plus total entry cost, so the equity identity reconciles exactly under
// decimal arithmetic. Not safe for concurrent use.
type Ledger struct {
	symbol      string
	initialCash fixed.Point
	allowMargin bool

	cash     fixed.Point
	posQty   fixed.Point // signed, negative for shorts
	posCost  fixed.Point // absolute entry notional of the open position
	realized fixed.Point
	fees     fixed.Point

	openTrade  *common.Trade
	openedQty  fixed.Point
	openValue  fixed.Point
	closedQty  fixed.Point
	closeValue fixed.Point

	fills     []common.Fill
	trades    []common.Trade
	snapshots []common.Snapshot

	lastMark    fixed.Point
	lastMarkSet bool
}

func New(symbol string, initialCash fixed.Point, opts ...Option) *Ledger {
	l := &Ledger{
		symbol:      symbol,
		initialCash: initialCash,
		cash:        initialCash,
		posQty:      fixed.Zero,
		posCost:     fixed.Zero,
		realized:    fixed.Zero,
		fees:        fixed.Zero,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Symbol() string              { return l.symbol }
func (l *Ledger) InitialCash() fixed.Point    { return l.initialCash }
func (l *Ledger) Cash() fixed.Point           { return l.cash }
func (l *Ledger) RealizedPnL() fixed.Point    { return l.realized }
func (l *Ledger) Fees() fixed.Point           { return l.fees }
func (l *Ledger) Fills() []common.Fill        { return l.fills }
func (l *Ledger) Trades() []common.Trade      { return l.trades }
func (l *Ledger) Snapshots() []common.Snapshot { return l.snapshots }

// Position derives the average entry price from the carried cost basis for
// presentation; internal accounting never reads it back.
func (l *Ledger) Position() common.Position {
	pos := common.Position{Quantity: l.posQty, AvgEntryPrice: fixed.Zero}
	if !l.posQty.IsZero() {
		pos.AvgEntryPrice = l.posCost.Div(l.posQty.Abs())
	}
	return pos
}

// ApplyResult reports what a fill did to the position so the caller can emit
// the matching events.
type ApplyResult struct {
	Opened      bool
	Closed      bool
	ClosedTrade common.Trade
}

// Apply books a fill into cash, position, realized profit and the trade
// history. A fill crossing through flat is split into a closing leg that
// realizes profit and an opening leg that starts a new trade.
func (l *Ledger) Apply(fill common.Fill) (ApplyResult, error) {
	var res ApplyResult

	qty := fill.Quantity
	if !qty.IsPos() {
		return res, fmt.Errorf("fill quantity must be positive, got %s", qty)
	}

	notional := fill.Price.Mul(qty)
	if fill.Side == common.OrderSideBuy {
		l.cash = l.cash.Sub(notional).Sub(fill.Fee)
	} else {
		l.cash = l.cash.Add(notional).Sub(fill.Fee)
	}
	l.fees = l.fees.Add(fill.Fee)

	signed := fill.SignedQuantity()
	closing := fixed.Zero
	if !l.posQty.IsZero() && signed.IsPos() != l.posQty.IsPos() {
		closing = fixed.Min(qty, l.posQty.Abs())
	}
	opening := qty.Sub(closing)
	feeBooked := false

	if closing.IsPos() {
		absQty := l.posQty.Abs()
		releasedCost := l.posCost
		if !closing.Eq(absQty) {
			releasedCost = l.posCost.Mul(closing).Div(absQty)
		}

		pnl := fill.Price.Mul(closing).Sub(releasedCost)
		if l.posQty.IsNeg() {
			pnl = releasedCost.Sub(fill.Price.Mul(closing))
		}
		l.realized = l.realized.Add(pnl)
		feeBooked = true

		remaining := absQty.Sub(closing)
		l.recordClose(fill, closing, pnl, remaining.IsZero())
		if remaining.IsZero() {
			l.posQty = fixed.Zero
			l.posCost = fixed.Zero
			res.Closed = true
			if len(l.trades) > 0 {
				res.ClosedTrade = l.trades[len(l.trades)-1]
			}
		} else {
			if l.posQty.IsNeg() {
				l.posQty = remaining.Neg()
			} else {
				l.posQty = remaining
			}
			l.posCost = l.posCost.Sub(releasedCost)
		}
	}

	if opening.IsPos() {
		signedOpen := opening
		if fill.Side == common.OrderSideSell {
			signedOpen = opening.Neg()
		}
		openCost := fill.Price.Mul(opening)
		if l.posQty.IsZero() {
			l.posQty = signedOpen
			l.posCost = openCost
			l.startTrade(fill, signedOpen)
			res.Opened = true
		} else {
			l.posQty = l.posQty.Add(signedOpen)
			l.posCost = l.posCost.Add(openCost)
			if l.openTrade != nil {
				l.openedQty = l.openedQty.Add(opening)
				l.openValue = l.openValue.Add(openCost)
				l.openTrade.Quantity = l.openedQty
				l.openTrade.EntryPrice = l.openValue.Div(l.openedQty)
			}
		}
	}

	if !feeBooked && l.openTrade != nil {
		l.openTrade.Fees = l.openTrade.Fees.Add(fill.Fee)
	}

	l.fills = append(l.fills, fill)

	if !l.allowMargin && l.cash.IsNeg() {
		return res, fmt.Errorf("%w: cash %s negative after fill %d", ErrInconsistent, l.cash, fill.TraceID)
	}
	if !l.allowMargin && l.posQty.IsNeg() {
		return res, fmt.Errorf("%w: short position %s without margin", ErrInconsistent, l.posQty)
	}
	return res, nil
}

func (l *Ledger) startTrade(fill common.Fill, signedQty fixed.Point) {
	side := common.PositionSideLong
	if signedQty.IsNeg() {
		side = common.PositionSideShort
	}
	l.openTrade = &common.Trade{
		Symbol:      l.symbol,
		ExecutionID: fill.ExecutionID,
		TraceID:     utility.CreateTraceID(),
		Side:        side,
		Quantity:    signedQty.Abs(),
		EntryPrice:  fill.Price,
		Fees:        fixed.Zero,
		RealizedPnL: fixed.Zero,
		OpenBar:     fill.BarIndex,
		OpenTime:    fill.TimeStamp,
	}
	l.openedQty = signedQty.Abs()
	l.openValue = fill.Price.Mul(signedQty.Abs())
	l.closedQty = fixed.Zero
	l.closeValue = fixed.Zero
}

// recordClose attributes a closing leg to the open trade; the whole fill fee
// belongs to the leg that did the closing. The trade completes when the
// position returns to flat, so that partial closes interleaved with adds
// still end in exactly one recorded round trip.
func (l *Ledger) recordClose(fill common.Fill, closing, pnl fixed.Point, final bool) {
	if l.openTrade == nil {
		return
	}
	l.closedQty = l.closedQty.Add(closing)
	l.closeValue = l.closeValue.Add(fill.Price.Mul(closing))
	l.openTrade.RealizedPnL = l.openTrade.RealizedPnL.Add(pnl)
	l.openTrade.Fees = l.openTrade.Fees.Add(fill.Fee)

	if final {
		l.openTrade.Quantity = l.closedQty
		l.openTrade.ExitPrice = l.closeValue.Div(l.closedQty)
		l.openTrade.CloseBar = fill.BarIndex
		l.openTrade.CloseTime = fill.TimeStamp
		l.trades = append(l.trades, *l.openTrade)
		l.openTrade = nil
	}
}

// Mark values the position at the bar close and appends a snapshot. Equity
// is cash plus quantity times mark and must agree with initial cash plus
// realized and unrealized profit net of fees; disagreement means the books
// are corrupt and the run must stop.
func (l *Ledger) Mark(bar common.Bar) (common.Snapshot, error) {
	mark := bar.Close
	l.lastMark = mark
	l.lastMarkSet = true

	signedCost := l.posCost
	if l.posQty.IsNeg() {
		signedCost = l.posCost.Neg()
	}
	unrealized := l.posQty.Mul(mark).Sub(signedCost)
	equity := l.cash.Add(l.posQty.Mul(mark))

	expected := l.initialCash.Add(l.realized).Add(unrealized).Sub(l.fees)
	if !equity.Eq(expected) {
		return common.Snapshot{}, fmt.Errorf("%w: equity %s does not reconcile with %s on bar closing at %s",
			ErrInconsistent, equity, expected, bar.CloseTime)
	}

	snapshot := common.Snapshot{
		Source:        componentName,
		Symbol:        l.symbol,
		ExecutionID:   bar.ExecutionID,
		TraceID:       utility.CreateTraceID(),
		BarIndex:      int64(len(l.snapshots)),
		Cash:          l.cash,
		Position:      l.Position(),
		MarkPrice:     mark,
		RealizedPnL:   l.realized,
		UnrealizedPnL: unrealized,
		Equity:        equity,
		TimeStamp:     bar.CloseTime,
	}
	l.snapshots = append(l.snapshots, snapshot)
	return snapshot, nil
}

// Equity returns the last marked equity, or initial cash before any mark.
func (l *Ledger) Equity() fixed.Point {
	if !l.lastMarkSet {
		return l.initialCash
	}
	return l.cash.Add(l.posQty.Mul(l.lastMark))
}
