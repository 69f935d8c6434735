package circular

import (
	"testing"
)

func TestBuffer_PushAndGet(t *testing.T) {
	b := NewBuffer[int](3)

	if b.Size() != 0 || b.IsFull() {
		t.Fatal("new buffer should be empty")
	}

	b.Push(1)
	b.Push(2)
	b.Push(3)

	if !b.IsFull() {
		t.Fatal("buffer should be full")
	}
	for idx := uint(0); idx < 3; idx++ {
		if got, want := b.Get(idx), int(3-idx); got != want {
			t.Errorf("Get(%d) = %d; want %d", idx, got, want)
		}
	}
}

func TestBuffer_Wraparound(t *testing.T) {
	b := NewBuffer[string](2)
	b.Push("a")
	b.Push("b")
	b.Push("c")

	if got := b.Get(0); got != "c" {
		t.Errorf("Get(0) = %s; want c", got)
	}
	if got := b.Get(1); got != "b" {
		t.Errorf("Get(1) = %s; want b", got)
	}
	if b.Size() != 2 {
		t.Errorf("Size = %d; want 2", b.Size())
	}
}

func TestBuffer_GetPanicsBeyondSize(t *testing.T) {
	b := NewBuffer[int](4)
	b.Push(1)

	defer func() {
		if recover() == nil {
			t.Error("expected panic for index beyond size")
		}
	}()
	b.Get(1)
}

func TestBuffer_ZeroCapacityPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for zero capacity")
		}
	}()
	NewBuffer[int](0)
}
