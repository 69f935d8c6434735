package indicators

import (
	"testing"

	"github.com/pavel-sokol/quantsim/pkg/common"
	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

func rangeBar(i int, close, high, low string) common.Bar {
	bar := closeBar(i, fixed.MustFromString(close))
	bar.High = fixed.MustFromString(high)
	bar.Low = fixed.MustFromString(low)
	return bar
}

func TestAtr_WarmUpNeedsPreviousClose(t *testing.T) {
	atr, err := NewAtr(3)
	if err != nil {
		t.Fatalf("NewAtr failed: %v", err)
	}

	// The first bar only establishes the previous close, so period+1 bars
	// are needed before the value is defined.
	bars := []common.Bar{
		rangeBar(0, "100", "101", "99"),
		rangeBar(1, "100.5", "101.5", "99.5"),
		rangeBar(2, "101", "102", "100"),
		rangeBar(3, "101.5", "102.5", "100.5"),
	}

	for i := 0; i < 3; i++ {
		atr.OnBar(bars[i])
		if _, defined := atr.Value(atr.key); defined {
			t.Errorf("value defined after %d bars; want undefined until 4", i+1)
		}
	}

	atr.OnBar(bars[3])
	got, defined := atr.Value(atr.key)
	if !defined {
		t.Fatal("value undefined after period+1 bars")
	}
	// Every true range in this series is the bar range of 2.
	if !got.Eq(fixed.Two) {
		t.Errorf("atr = %s; want 2", got)
	}
}

func TestAtr_UsesGapAgainstPreviousClose(t *testing.T) {
	atr, err := NewAtr(1)
	if err != nil {
		t.Fatalf("NewAtr failed: %v", err)
	}

	atr.OnBar(rangeBar(0, "100", "100", "100"))
	// Gap up: high minus previous close dominates the bar range.
	atr.OnBar(rangeBar(1, "110", "111", "109"))

	got, defined := atr.Value(atr.key)
	if !defined {
		t.Fatal("value undefined")
	}
	if !got.Eq(fixed.FromInt(11, 0)) {
		t.Errorf("atr = %s; want 11 (high minus previous close)", got)
	}
}

func TestAtr_WilderSmoothing(t *testing.T) {
	atr, err := NewAtr(2)
	if err != nil {
		t.Fatalf("NewAtr failed: %v", err)
	}

	atr.OnBar(rangeBar(0, "100", "100", "100"))
	atr.OnBar(rangeBar(1, "100", "102", "98"))
	atr.OnBar(rangeBar(2, "100", "102", "98"))

	// Seed average of two ranges of 4.
	got, defined := atr.Value(atr.key)
	if !defined {
		t.Fatal("value undefined")
	}
	if !got.Eq(fixed.FromInt(4, 0)) {
		t.Errorf("seed atr = %s; want 4", got)
	}

	// Smoothed: (4*1 + 8)/2 = 6.
	atr.OnBar(rangeBar(3, "100", "104", "96"))
	got, _ = atr.Value(atr.key)
	if !got.Eq(fixed.FromInt(6, 0)) {
		t.Errorf("smoothed atr = %s; want 6", got)
	}
}
