package stealpool

const minRingCapacity = 16

// ring is a growable circular buffer with access at both ends.
// Not safe for concurrent use; Queue and Deque guard it.
type ring[T any] struct {
	buf  []T
	head int // index of the oldest element
	n    int
}

func (r *ring[T]) len() int { return r.n }

// grow doubles the capacity, unwrapping the contents to the front.
func (r *ring[T]) grow() {
	capacity := len(r.buf) * 2
	if capacity < minRingCapacity {
		capacity = minRingCapacity
	}
	buf := make([]T, capacity)
	for i := 0; i < r.n; i++ {
		buf[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.buf = buf
	r.head = 0
}

// pushBack appends v at the newest end.
func (r *ring[T]) pushBack(v T) {
	if r.n == len(r.buf) {
		r.grow()
	}
	r.buf[(r.head+r.n)%len(r.buf)] = v
	r.n++
}

// popBack removes the newest element.
func (r *ring[T]) popBack() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	idx := (r.head + r.n - 1) % len(r.buf)
	v := r.buf[idx]
	r.buf[idx] = zero
	r.n--
	return v, true
}

// popFront removes the oldest element.
func (r *ring[T]) popFront() (T, bool) {
	var zero T
	if r.n == 0 {
		return zero, false
	}
	v := r.buf[r.head]
	r.buf[r.head] = zero
	r.head = (r.head + 1) % len(r.buf)
	r.n--
	if r.n == 0 {
		r.head = 0
	}
	return v, true
}

// clear empties the ring, returning the removed elements oldest first.
func (r *ring[T]) clear() []T {
	out := make([]T, 0, r.n)
	for {
		v, ok := r.popFront()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}
