package ducking

import "testing"

func streams(priorities ...uint8) []StreamInfo {
	out := make([]StreamInfo, len(priorities))
	for i, p := range priorities {
		out[i] = StreamInfo{Handle: uint32(i + 1), Priority: p, CurrentVolume: 1.0, TargetVolume: 1.0}
	}
	return out
}

func TestSimpleDuckerHighestPriorityFullVolume(t *testing.T) {
	d := NewSimpleDucker(0.3)
	v := d.CalculateVolumes(streams(50, 100, 50))
	if v[2] != 1.0 {
		t.Errorf("expected highest priority stream at full volume, got %v", v[2])
	}
	if v[1] != 0.3 || v[3] != 0.3 {
		t.Errorf("expected lower priority streams ducked to 0.3, got %v %v", v[1], v[3])
	}
}

func TestSimpleDuckerEmptyInput(t *testing.T) {
	d := NewSimpleDucker(0.3)
	v := d.CalculateVolumes(nil)
	if len(v) != 0 {
		t.Fatalf("expected empty map for empty input, got %v", v)
	}
}

func TestProportionalDuckerScalesLinearly(t *testing.T) {
	d := NewProportionalDucker(0.1)
	v := d.CalculateVolumes(streams(0, 50, 100))
	if v[3] != 1.0 {
		t.Errorf("expected highest priority at full volume, got %v", v[3])
	}
	if v[1] != 0.1 {
		t.Errorf("expected lowest priority at min_volume, got %v", v[1])
	}
	if v[2] < 0.5 || v[2] > 0.6 {
		t.Errorf("expected middle priority around 0.55, got %v", v[2])
	}
}

func TestProportionalDuckerSinglePriorityAvoidsDivideByZero(t *testing.T) {
	d := NewProportionalDucker(0.2)
	v := d.CalculateVolumes(streams(50, 50))
	// range is zero, clamped to 1; normalized = 0 for every stream, so
	// every stream lands at min_volume rather than dividing by zero.
	if v[1] != 0.2 || v[2] != 0.2 {
		t.Fatalf("expected all streams at min_volume when priorities are equal, got %v", v)
	}
}

func TestFadeDuckerDefaultsToTargetOnFirstObservation(t *testing.T) {
	d := NewFadeDucker(0.3, 200)
	s := []StreamInfo{{Handle: 1, Priority: 50, CurrentVolume: 0.8, TargetVolume: 1.0}}
	v := d.CalculateVolumes(s)
	// progress=0.0 on first sight means volume == target, not current_volume (0.8).
	// The lone stream is the highest priority, so its target is 1.0.
	if v[1] != 1.0 {
		t.Fatalf("expected fresh handle to start at target 1.0, got %v", v[1])
	}
}

func TestFadeDuckerUpdateAdvancesExistingProgressTowardTarget(t *testing.T) {
	d := NewFadeDucker(0.3, 200)
	s := []StreamInfo{{Handle: 1, Priority: 100, CurrentVolume: 0.3, TargetVolume: 1.0}}
	d.fadeProgress[1] = 1.0 // simulate an externally-seeded "freshly ducked" stream
	d.Update(100)           // halfway: progress 1.0 -> 0.5
	v := d.CalculateVolumes(s)
	want := 0.3*0.5 + 1.0*0.5
	if diff := v[1] - want; diff > 0.001 || diff < -0.001 {
		t.Fatalf("expected volume %v, got %v", want, v[1])
	}
}

func TestFadeDuckerProgressClampsAtZero(t *testing.T) {
	d := NewFadeDucker(0.3, 200)
	s := []StreamInfo{{Handle: 1, Priority: 100, CurrentVolume: 0.3, TargetVolume: 1.0}}
	d.fadeProgress[1] = 1.0
	d.Update(1000) // far more than fade duration
	v := d.CalculateVolumes(s)
	if v[1] != 1.0 {
		t.Fatalf("expected progress clamped to 0 (fully at target), got %v", v[1])
	}
}

func TestFadeDuckerEmptyInput(t *testing.T) {
	d := NewFadeDucker(0.3, 200)
	v := d.CalculateVolumes(nil)
	if len(v) != 0 {
		t.Fatalf("expected empty map for empty input, got %v", v)
	}
}
