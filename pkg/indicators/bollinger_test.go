package indicators

import (
	"testing"

	"github.com/pavel-sokol/quantsim/pkg/utility/fixed"
)

func TestBollinger_Bands(t *testing.T) {
	boll, err := NewBollinger(2, 20)
	if err != nil {
		t.Fatalf("NewBollinger failed: %v", err)
	}

	bars := closeBars("1", "3")

	boll.OnBar(bars[0])
	if _, defined := boll.Value(boll.middleKey); defined {
		t.Error("band defined before window is full")
	}

	boll.OnBar(bars[1])

	// Window {1, 3}: mean 2, population stddev 1, width 2.
	middle, ok := boll.Value(boll.middleKey)
	if !ok || !middle.Eq(fixed.Two) {
		t.Errorf("middle = %s; want 2", middle)
	}
	upper, ok := boll.Value(boll.upperKey)
	if !ok || !upper.Eq(fixed.FromInt(4, 0)) {
		t.Errorf("upper = %s; want 4", upper)
	}
	lower, ok := boll.Value(boll.lowerKey)
	if !ok || !lower.IsZero() {
		t.Errorf("lower = %s; want 0", lower)
	}
}

func TestBollinger_FlatWindowCollapses(t *testing.T) {
	boll, err := NewBollinger(3, 20)
	if err != nil {
		t.Fatalf("NewBollinger failed: %v", err)
	}

	for _, bar := range closeBars("5", "5", "5") {
		boll.OnBar(bar)
	}

	upper, _ := boll.Value(boll.upperKey)
	lower, _ := boll.Value(boll.lowerKey)
	middle, _ := boll.Value(boll.middleKey)

	if !upper.Eq(middle) || !lower.Eq(middle) {
		t.Errorf("flat window bands must collapse to the mean: upper %s, middle %s, lower %s", upper, middle, lower)
	}
}

func TestBollinger_InvalidParameters(t *testing.T) {
	if _, err := NewBollinger(1, 20); err == nil {
		t.Error("expected error for period 1")
	}
	if _, err := NewBollinger(20, 0); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestStdDev_KnownWindow(t *testing.T) {
	sd, err := NewStdDev(8)
	if err != nil {
		t.Fatalf("NewStdDev failed: %v", err)
	}

	for _, bar := range closeBars("2", "4", "4", "4", "5", "5", "7", "9") {
		sd.OnBar(bar)
	}

	got, defined := sd.Value(sd.key)
	if !defined {
		t.Fatal("value undefined after full window")
	}
	if !got.Eq(fixed.Two) {
		t.Errorf("stddev = %s; want 2", got)
	}
}

func TestZScore_Value(t *testing.T) {
	z, err := NewZScore(2)
	if err != nil {
		t.Fatalf("NewZScore failed: %v", err)
	}

	bars := closeBars("1", "3")
	z.OnBar(bars[0])
	if _, defined := z.Value(z.key); defined {
		t.Error("value defined before window is full")
	}

	z.OnBar(bars[1])
	got, defined := z.Value(z.key)
	if !defined {
		t.Fatal("value undefined after full window")
	}
	// (3 - 2) / 1 = 1.
	if !got.Eq(fixed.One) {
		t.Errorf("zscore = %s; want 1", got)
	}
}

func TestZScore_FlatWindowReadsZero(t *testing.T) {
	z, err := NewZScore(3)
	if err != nil {
		t.Fatalf("NewZScore failed: %v", err)
	}

	for _, bar := range closeBars("7", "7", "7") {
		z.OnBar(bar)
	}

	got, defined := z.Value(z.key)
	if !defined {
		t.Fatal("flat window should still be defined")
	}
	if !got.IsZero() {
		t.Errorf("zscore of flat window = %s; want 0", got)
	}
}
