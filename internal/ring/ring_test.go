package ring

import "testing"

func TestCapacityRoundsToPowerOfTwo(t *testing.T) {
	b := New(10)
	if b.Capacity() != 16 {
		t.Fatalf("expected capacity 16, got %d", b.Capacity())
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	b := New(8)
	src := []float32{1, 2, 3, 4}
	n := b.Write(src)
	if n != 4 {
		t.Fatalf("expected to write 4, got %d", n)
	}
	dst := make([]float32, 4)
	n = b.Read(dst)
	if n != 4 || dst[0] != 1 || dst[3] != 4 {
		t.Fatalf("read mismatch: n=%d dst=%v", n, dst)
	}
}

func TestPartialWriteWhenFull(t *testing.T) {
	b := New(4) // capacity 4
	n := b.Write([]float32{1, 2, 3, 4, 5, 6})
	if n != 4 {
		t.Fatalf("expected partial write of 4, got %d", n)
	}
	if !b.IsFull() {
		t.Fatalf("expected buffer full")
	}
}

func TestPartialReadWhenEmpty(t *testing.T) {
	b := New(4)
	b.Write([]float32{1, 2})
	dst := make([]float32, 5)
	n := b.Read(dst)
	if n != 2 {
		t.Fatalf("expected partial read of 2, got %d", n)
	}
	if !b.IsEmpty() {
		t.Fatalf("expected buffer empty after draining")
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	b := New(4)
	b.Write([]float32{9, 8})
	dst := make([]float32, 2)
	if n := b.Peek(dst); n != 2 {
		t.Fatalf("expected peek 2, got %d", n)
	}
	if b.AvailableRead() != 2 {
		t.Fatalf("peek must not consume, available=%d", b.AvailableRead())
	}
	n := b.Read(dst)
	if n != 2 || dst[0] != 9 || dst[1] != 8 {
		t.Fatalf("read after peek mismatch: n=%d dst=%v", n, dst)
	}
}

func TestFillPercentAndAvailable(t *testing.T) {
	b := New(4) // capacity 4
	b.Write([]float32{1, 2})
	if b.AvailableRead() != 2 || b.AvailableWrite() != 2 {
		t.Fatalf("unexpected availability: read=%d write=%d", b.AvailableRead(), b.AvailableWrite())
	}
	if pct := b.FillPercent(); pct != 0.5 {
		t.Fatalf("expected fill 0.5, got %v", pct)
	}
}

func TestClearResetsState(t *testing.T) {
	b := New(4)
	b.Write([]float32{1, 2, 3})
	b.Clear()
	if !b.IsEmpty() || b.AvailableRead() != 0 {
		t.Fatalf("expected empty buffer after Clear")
	}
	n := b.Write([]float32{5, 6})
	if n != 2 {
		t.Fatalf("expected full write capacity after clear, got %d", n)
	}
}

func TestWrapAroundPreservesFIFOOrder(t *testing.T) {
	b := New(4)
	buf := make([]float32, 3)
	b.Write([]float32{1, 2, 3})
	b.Read(buf[:3])
	// writePos/readPos are now both at 3; next write wraps the ring.
	b.Write([]float32{4, 5, 6})
	out := make([]float32, 3)
	n := b.Read(out)
	if n != 3 || out[0] != 4 || out[1] != 5 || out[2] != 6 {
		t.Fatalf("expected FIFO order after wraparound, got %v (n=%d)", out, n)
	}
}
