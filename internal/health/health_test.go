package health

import "testing"

func TestFillLevelClampsAndRoundTrips(t *testing.T) {
	m := New()
	m.SetFillLevel(0.5)
	if got := m.FillLevel(); got < 0.49 || got > 0.51 {
		t.Fatalf("expected ~0.5, got %v", got)
	}
	m.SetFillLevel(1.5)
	if got := m.FillLevel(); got != 1.0 {
		t.Fatalf("expected clamp to 1.0, got %v", got)
	}
	m.SetFillLevel(-1)
	if got := m.FillLevel(); got != 0.0 {
		t.Fatalf("expected clamp to 0.0, got %v", got)
	}
}

func TestUnderrunOverrunCounters(t *testing.T) {
	m := New()
	if m.UnderrunCount() != 0 || m.OverrunCount() != 0 {
		t.Fatalf("expected zeroed counters at start")
	}
	m.RecordUnderrun()
	m.RecordUnderrun()
	m.RecordOverrun()
	if m.UnderrunCount() != 2 || m.OverrunCount() != 1 {
		t.Fatalf("unexpected counts: underrun=%d overrun=%d", m.UnderrunCount(), m.OverrunCount())
	}
}

func TestSnapshotIndependentReads(t *testing.T) {
	m := New()
	m.SetFillLevel(0.75)
	m.RecordUnderrun()
	m.SetLatencyMs(50)
	m.SetState(Running)

	snap := m.Snapshot()
	if snap.FillLevel < 0.74 || snap.FillLevel > 0.76 {
		t.Errorf("unexpected fill level: %v", snap.FillLevel)
	}
	if snap.UnderrunCount != 1 {
		t.Errorf("unexpected underrun count: %d", snap.UnderrunCount)
	}
	if snap.LatencyMs != 50 {
		t.Errorf("unexpected latency: %d", snap.LatencyMs)
	}
	if snap.State != Running {
		t.Errorf("unexpected state: %v", snap.State)
	}
}

func TestResetZeroesEverythingAndReturnsToIdle(t *testing.T) {
	m := New()
	m.SetFillLevel(0.9)
	m.RecordUnderrun()
	m.RecordOverrun()
	m.SetLatencyMs(20)
	m.SetState(Paused)

	m.Reset()

	snap := m.Snapshot()
	if snap.FillLevel != 0 || snap.UnderrunCount != 0 || snap.OverrunCount != 0 || snap.LatencyMs != 0 || snap.State != Idle {
		t.Fatalf("expected fully zeroed snapshot at Idle, got %+v", snap)
	}
}
