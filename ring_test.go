package stealpool

import "testing"

func TestRingBothEnds(t *testing.T) {
	var r ring[int]
	for i := 0; i < 40; i++ {
		r.pushBack(i)
	}
	if r.len() != 40 {
		t.Fatalf("len = %d, want 40", r.len())
	}

	if v, ok := r.popFront(); !ok || v != 0 {
		t.Fatalf("popFront = %d, %v, want 0, true", v, ok)
	}
	if v, ok := r.popBack(); !ok || v != 39 {
		t.Fatalf("popBack = %d, %v, want 39, true", v, ok)
	}

	got := r.clear()
	if len(got) != 38 {
		t.Fatalf("clear returned %d elements, want 38", len(got))
	}
	for i, v := range got {
		if v != i+1 {
			t.Fatalf("clear()[%d] = %d, want %d", i, v, i+1)
		}
	}
	if _, ok := r.popBack(); ok {
		t.Fatal("popBack on empty ring succeeded")
	}
	if _, ok := r.popFront(); ok {
		t.Fatal("popFront on empty ring succeeded")
	}
}

func TestRingWrapAround(t *testing.T) {
	var r ring[int]
	// Rotate the head through the buffer before forcing a grow.
	for i := 0; i < minRingCapacity; i++ {
		r.pushBack(i)
	}
	for i := 0; i < minRingCapacity/2; i++ {
		r.popFront()
	}
	for i := minRingCapacity; i < minRingCapacity*2; i++ {
		r.pushBack(i)
	}

	want := minRingCapacity / 2
	for r.len() > 0 {
		v, _ := r.popFront()
		if v != want {
			t.Fatalf("popFront = %d, want %d", v, want)
		}
		want++
	}
	if want != minRingCapacity*2 {
		t.Fatalf("drained up to %d, want %d", want, minRingCapacity*2)
	}
}
