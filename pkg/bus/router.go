package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/pavel-sokol/quantsim/pkg/common"
)

type event struct {
	id   EventId
	data interface{}
}

// Router is a bounded single-goroutine event dispatcher. Everything a run
// produces flows through it, so attaching a handler (or a middleware chain)
// observes the whole simulation without touching the pipeline itself.
type Router struct {
	done   chan error
	events chan event

	OnBar            BarEventHandler
	OnSignal         SignalEventHandler
	OnSignalRejected SignalRejectionEventHandler
	OnOrder          OrderEventHandler
	OnOrderRejected  OrderRejectionEventHandler
	OnFill           FillEventHandler
	OnPositionOpen   PositionOpenEventHandler
	OnPositionClose  PositionCloseEventHandler
	OnSnapshot       SnapshotEventHandler
	OnTrade          TradeEventHandler
	OnDataGap        DataGapEventHandler

	runTime       time.Duration
	postCount     atomic.Uint64
	postFails     atomic.Uint64
	dispatchCount atomic.Uint64
	dispatchFails atomic.Uint64
}

func NewRouter(eventCapacity int) *Router {
	return &Router{
		done:   make(chan error, 1),
		events: make(chan event, eventCapacity),
	}
}

func (r *Router) Post(id EventId, data interface{}) error {
	select {
	case r.events <- event{id, data}:
		r.postCount.Add(1)
		return nil
	default:
		r.postFails.Add(1)
		return errors.New("event capacity reached")
	}
}

// Exec dispatches queued events until the context is cancelled.
func (r *Router) Exec(ctx context.Context) {
	start := time.Now()
	defer func() {
		r.runTime += time.Since(start)
	}()

	for {
		select {
		case <-ctx.Done():
			r.done <- ctx.Err()
			return
		case ev := <-r.events:
			r.dispatchCount.Add(1)
			if err := r.dispatch(ctx, ev); err != nil {
				r.dispatchFails.Add(1)
				slog.Warn("dispatch failed", "error", err, "event", ev.id)
			}
		}
	}
}

// ExecLoop drains queued events and invokes doOnceCb whenever the queue is
// empty. The callback drives the simulation one step at a time, which keeps
// event dispatch strictly ordered between steps.
func (r *Router) ExecLoop(ctx context.Context, doOnceCb func() error) {
	start := time.Now()
	defer func() {
		r.runTime += time.Since(start)
	}()

	for {
		select {
		case <-ctx.Done():
			r.done <- ctx.Err()
			return
		case ev := <-r.events:
			r.dispatchCount.Add(1)
			if err := r.dispatch(ctx, ev); err != nil {
				r.dispatchFails.Add(1)
				slog.Warn("dispatch failed", "error", err, "event", ev.id)
			}
		default:
			if err := doOnceCb(); err != nil {
				r.drain(ctx)
				r.done <- err
				return
			}
		}
	}
}

func (r *Router) Done() <-chan error {
	return r.done
}

func (r *Router) PrintStatistics() {
	seconds := r.runTime.Seconds()
	throughput := float64(0)
	if seconds > 0 {
		throughput = float64(r.postCount.Load()) / seconds
	}
	slog.Info("router statistics",
		"run_time", r.runTime,
		"post_count", r.postCount.Load(),
		"post_fails", r.postFails.Load(),
		"dispatch_count", r.dispatchCount.Load(),
		"dispatch_fails", r.dispatchFails.Load(),
		"throughput", throughput)
}

// drain flushes events queued by the final step so sinks observe the complete
// run before Done fires.
func (r *Router) drain(ctx context.Context) {
	for {
		select {
		case ev := <-r.events:
			r.dispatchCount.Add(1)
			if err := r.dispatch(ctx, ev); err != nil {
				r.dispatchFails.Add(1)
				slog.Warn("dispatch failed", "error", err, "event", ev.id)
			}
		default:
			return
		}
	}
}

func (r *Router) dispatch(ctx context.Context, ev event) error {
	switch ev.id {
	case BarEvent:
		bar, ok := ev.data.(common.Bar)
		if !ok {
			return errors.New("invalid type assertion for bar event")
		}
		if r.OnBar != nil {
			r.OnBar(ctx, bar)
		}
	case SignalEvent:
		sig, ok := ev.data.(common.Signal)
		if !ok {
			return errors.New("invalid type assertion for signal event")
		}
		if r.OnSignal != nil {
			r.OnSignal(ctx, sig)
		}
	case SignalRejectionEvent:
		rej, ok := ev.data.(common.SignalRejected)
		if !ok {
			return errors.New("invalid type assertion for signal rejection event")
		}
		if r.OnSignalRejected != nil {
			r.OnSignalRejected(ctx, rej)
		}
	case OrderEvent:
		order, ok := ev.data.(common.Order)
		if !ok {
			return errors.New("invalid type assertion for order event")
		}
		if r.OnOrder != nil {
			r.OnOrder(ctx, order)
		}
	case OrderRejectionEvent:
		rej, ok := ev.data.(common.OrderRejected)
		if !ok {
			return errors.New("invalid type assertion for order rejection event")
		}
		if r.OnOrderRejected != nil {
			r.OnOrderRejected(ctx, rej)
		}
	case FillEvent:
		fill, ok := ev.data.(common.Fill)
		if !ok {
			return errors.New("invalid type assertion for fill event")
		}
		if r.OnFill != nil {
			r.OnFill(ctx, fill)
		}
	case PositionOpenEvent:
		pos, ok := ev.data.(common.Position)
		if !ok {
			return errors.New("invalid type assertion for position open event")
		}
		if r.OnPositionOpen != nil {
			r.OnPositionOpen(ctx, pos)
		}
	case PositionCloseEvent:
		pos, ok := ev.data.(common.Position)
		if !ok {
			return errors.New("invalid type assertion for position close event")
		}
		if r.OnPositionClose != nil {
			r.OnPositionClose(ctx, pos)
		}
	case SnapshotEvent:
		snap, ok := ev.data.(common.Snapshot)
		if !ok {
			return errors.New("invalid type assertion for snapshot event")
		}
		if r.OnSnapshot != nil {
			r.OnSnapshot(ctx, snap)
		}
	case TradeEvent:
		trade, ok := ev.data.(common.Trade)
		if !ok {
			return errors.New("invalid type assertion for trade event")
		}
		if r.OnTrade != nil {
			r.OnTrade(ctx, trade)
		}
	case DataGapEvent:
		gap, ok := ev.data.(common.DataGap)
		if !ok {
			return errors.New("invalid type assertion for data gap event")
		}
		if r.OnDataGap != nil {
			r.OnDataGap(ctx, gap)
		}
	default:
		return fmt.Errorf("unsupported event id: %v", ev.id)
	}
	return nil
}
