package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pavel-sokol/quantsim/pkg/common"
)

func TestBusRouter_Post(t *testing.T) {
	r := NewRouter(10)

	err := r.Post(BarEvent, common.Bar{})
	if err != nil {
		t.Errorf("Post failed: %v", err)
	}

	if r.postCount.Load() != 1 {
		t.Errorf("Expected postCount=1, got %d", r.postCount.Load())
	}
}

func TestBusRouter_PostCapacityReached(t *testing.T) {
	r := NewRouter(1)

	err := r.Post(BarEvent, common.Bar{})
	if err != nil {
		t.Errorf("First Post failed: %v", err)
	}

	err = r.Post(BarEvent, common.Bar{})
	if err == nil {
		t.Error("Expected error when capacity reached")
	}

	if r.postFails.Load() != 1 {
		t.Errorf("Expected postFails=1, got %d", r.postFails.Load())
	}
}

func TestBusRouter_Exec(t *testing.T) {
	r := NewRouter(10)

	var barHandled bool
	r.OnBar = func(ctx context.Context, bar common.Bar) {
		barHandled = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Exec(ctx)

	if err := r.Post(BarEvent, common.Bar{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	cancel()

	err := <-r.Done()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	if !barHandled {
		t.Error("Bar handler not called")
	}

	if r.dispatchCount.Load() != 1 {
		t.Errorf("Expected dispatchCount=1, got %d", r.dispatchCount.Load())
	}
}

func TestBusRouter_ExecLoop(t *testing.T) {
	r := NewRouter(10)

	var barHandled bool
	r.OnBar = func(ctx context.Context, bar common.Bar) {
		barHandled = true
	}

	doOnceCount := 0
	doOnceCb := func() error {
		doOnceCount++
		if doOnceCount > 5 {
			return errors.New("done")
		}
		return nil
	}

	if err := r.Post(BarEvent, common.Bar{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}

	go r.ExecLoop(context.Background(), doOnceCb)

	err := <-r.Done()
	if err == nil || err.Error() != "done" {
		t.Errorf("Expected 'done' error, got %v", err)
	}

	if !barHandled {
		t.Error("Bar handler not called")
	}

	if doOnceCount <= 5 {
		t.Errorf("Expected doOnceCount>5, got %d", doOnceCount)
	}
}

func TestBusRouter_ExecLoopDrainsFinalEvents(t *testing.T) {
	r := NewRouter(10)

	var snapshots int
	r.OnSnapshot = func(ctx context.Context, snap common.Snapshot) {
		snapshots++
	}

	stop := errors.New("stop")
	doOnceCb := func() error {
		// The final step queues events that must still be dispatched.
		if err := r.Post(SnapshotEvent, common.Snapshot{}); err != nil {
			return err
		}
		return stop
	}

	go r.ExecLoop(context.Background(), doOnceCb)

	if err := <-r.Done(); !errors.Is(err, stop) {
		t.Errorf("Expected stop error, got %v", err)
	}

	if snapshots != 1 {
		t.Errorf("Expected 1 snapshot dispatched before Done, got %d", snapshots)
	}
}

func TestBusRouter_AllEventTypes(t *testing.T) {
	r := NewRouter(20)

	handlers := map[EventId]bool{
		BarEvent:             false,
		SignalEvent:          false,
		SignalRejectionEvent: false,
		OrderEvent:           false,
		OrderRejectionEvent:  false,
		FillEvent:            false,
		PositionOpenEvent:    false,
		PositionCloseEvent:   false,
		SnapshotEvent:        false,
		TradeEvent:           false,
		DataGapEvent:         false,
	}

	r.OnBar = func(ctx context.Context, bar common.Bar) {
		handlers[BarEvent] = true
	}
	r.OnSignal = func(ctx context.Context, sig common.Signal) {
		handlers[SignalEvent] = true
	}
	r.OnSignalRejected = func(ctx context.Context, rej common.SignalRejected) {
		handlers[SignalRejectionEvent] = true
	}
	r.OnOrder = func(ctx context.Context, order common.Order) {
		handlers[OrderEvent] = true
	}
	r.OnOrderRejected = func(ctx context.Context, rej common.OrderRejected) {
		handlers[OrderRejectionEvent] = true
	}
	r.OnFill = func(ctx context.Context, fill common.Fill) {
		handlers[FillEvent] = true
	}
	r.OnPositionOpen = func(ctx context.Context, pos common.Position) {
		handlers[PositionOpenEvent] = true
	}
	r.OnPositionClose = func(ctx context.Context, pos common.Position) {
		handlers[PositionCloseEvent] = true
	}
	r.OnSnapshot = func(ctx context.Context, snap common.Snapshot) {
		handlers[SnapshotEvent] = true
	}
	r.OnTrade = func(ctx context.Context, trade common.Trade) {
		handlers[TradeEvent] = true
	}
	r.OnDataGap = func(ctx context.Context, gap common.DataGap) {
		handlers[DataGapEvent] = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	go r.Exec(ctx)

	if err := r.Post(BarEvent, common.Bar{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}
	if err := r.Post(SignalEvent, common.Signal{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}
	if err := r.Post(SignalRejectionEvent, common.SignalRejected{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}
	if err := r.Post(OrderEvent, common.Order{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}
	if err := r.Post(OrderRejectionEvent, common.OrderRejected{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}
	if err := r.Post(FillEvent, common.Fill{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}
	if err := r.Post(PositionOpenEvent, common.Position{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}
	if err := r.Post(PositionCloseEvent, common.Position{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}
	if err := r.Post(SnapshotEvent, common.Snapshot{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}
	if err := r.Post(TradeEvent, common.Trade{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}
	if err := r.Post(DataGapEvent, common.DataGap{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-r.Done()

	for eventId, handled := range handlers {
		if !handled {
			t.Errorf("Event %v handler not called", eventId)
		}
	}

	if r.dispatchCount.Load() != 11 {
		t.Errorf("Expected dispatchCount=11, got %d", r.dispatchCount.Load())
	}
}

func TestBusRouter_InvalidTypeAssertion(t *testing.T) {
	r := NewRouter(10)

	r.OnBar = func(ctx context.Context, bar common.Bar) {
		t.Error("Handler should not be called")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go r.Exec(ctx)

	if err := r.Post(BarEvent, "invalid data type"); err != nil {
		t.Errorf("Post failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	cancel()
	<-r.Done()

	if r.dispatchFails.Load() != 1 {
		t.Errorf("Expected dispatchFails=1, got %d", r.dispatchFails.Load())
	}
}

func TestBusRouter_NilHandlers(t *testing.T) {
	r := NewRouter(10)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Exec(ctx)

	if err := r.Post(BarEvent, common.Bar{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}
	if err := r.Post(SnapshotEvent, common.Snapshot{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	cancel()
	<-r.Done()

	if r.dispatchCount.Load() != 2 {
		t.Errorf("Expected dispatchCount=2, got %d", r.dispatchCount.Load())
	}

	if r.dispatchFails.Load() != 0 {
		t.Errorf("Expected dispatchFails=0, got %d", r.dispatchFails.Load())
	}
}

func TestBusRouter_UnsupportedEventId(t *testing.T) {
	r := NewRouter(10)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Exec(ctx)

	if err := r.Post(EventId(99), struct{}{}); err != nil {
		t.Errorf("Post failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	cancel()
	<-r.Done()

	if r.dispatchFails.Load() != 1 {
		t.Errorf("Expected dispatchFails=1, got %d", r.dispatchFails.Load())
	}
}

func TestBusRouter_ConcurrentPost(t *testing.T) {
	r := NewRouter(1000)

	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				if err := r.Post(BarEvent, common.Bar{}); err != nil {
					t.Errorf("Post failed: %v", err)
				}
			}
		}()
	}

	wg.Wait()

	expectedPosts := uint64(numGoroutines * eventsPerGoroutine)
	if r.postCount.Load() != expectedPosts {
		t.Errorf("Expected postCount=%d, got %d", expectedPosts, r.postCount.Load())
	}
}

func TestBusRouter_ContextCancellation(t *testing.T) {
	r := NewRouter(10)

	ctx, cancel := context.WithCancel(context.Background())
	go r.Exec(ctx)

	cancel()

	err := <-r.Done()
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func BenchmarkBusRouter_Post(b *testing.B) {
	r := NewRouter(b.N)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := r.Post(BarEvent, common.Bar{}); err != nil {
			b.Errorf("Post failed: %v", err)
		}
	}
}

func BenchmarkBusRouter_ExecLoop(b *testing.B) {
	r := NewRouter(1000)

	r.OnBar = func(ctx context.Context, bar common.Bar) {}

	callCount := 0
	doOnceCb := func() error {
		callCount++
		if callCount >= b.N {
			return errors.New("done")
		}
		if callCount%100 == 0 {
			if err := r.Post(BarEvent, common.Bar{}); err != nil {
				return err
			}
		}
		return nil
	}

	b.ResetTimer()
	go r.ExecLoop(context.Background(), doOnceCb)
	<-r.Done()
}
