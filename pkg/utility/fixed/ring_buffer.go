package fixed

import "fmt"

// RingBuffer is a bounded window of points with O(1) rolling mean. Standard
// deviation is computed over the window on demand.
type RingBuffer struct {
	buffer   []Point
	capacity int
	size     int
	tail     int
	sum      Point
}

func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		panic("capacity must be positive")
	}
	return &RingBuffer{
		buffer:   make([]Point, capacity),
		capacity: capacity,
		sum:      Zero,
	}
}

func (r *RingBuffer) Size() int     { return r.size }
func (r *RingBuffer) Capacity() int { return r.capacity }
func (r *RingBuffer) IsEmpty() bool { return r.size == 0 }
func (r *RingBuffer) IsFull() bool  { return r.size == r.capacity }

func (r *RingBuffer) Clear() {
	r.size = 0
	r.tail = 0
	r.sum = Zero
}

func (r *RingBuffer) Add(p Point) {
	if r.size == r.capacity {
		r.sum = r.sum.Sub(r.buffer[r.tail])
	}
	r.buffer[r.tail] = p
	r.tail = (r.tail + 1) % r.capacity
	r.sum = r.sum.Add(p)

	if r.size < r.capacity {
		r.size++
	}
}

// Get returns the element idx positions back from the most recent one.
// Get(0) is the latest point.
func (r *RingBuffer) Get(idx int) Point {
	if idx < 0 || idx >= r.size {
		panic(fmt.Sprintf("index %d out of range [0, %d)", idx, r.size))
	}
	return r.buffer[(r.tail-1-idx+r.capacity)%r.capacity]
}

func (r *RingBuffer) Latest() Point {
	return r.Get(0)
}

func (r *RingBuffer) Sum() Point {
	return r.sum
}

func (r *RingBuffer) Mean() Point {
	if r.size == 0 {
		return Zero
	}
	return r.sum.DivInt(r.size)
}

func (r *RingBuffer) StdDev() Point {
	return StdDev(r.window(), r.Mean())
}

func (r *RingBuffer) SampleStdDev() Point {
	return SampleStdDev(r.window(), r.Mean())
}

func (r *RingBuffer) window() []Point {
	points := make([]Point, r.size)
	for i := 0; i < r.size; i++ {
		points[i] = r.Get(i)
	}
	return points
}
