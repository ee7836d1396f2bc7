// Package ducking implements the volume-ducking strategies of
// spec.md §4.9: pure functions from a snapshot of stream priorities to
// a volume matrix, grounded on original_source's ducking/mod.rs for
// the algorithms and on pgraph's internal/query.Reducer
// (one-exported-method-many-implementations) for the interface shape.
package ducking

// StreamInfo describes one active stream for a ducking calculation.
type StreamInfo struct {
	Handle        uint32
	Priority      uint8 // 0-100, higher = more important
	CurrentVolume float64
	TargetVolume  float64
}

// VolumeMatrix maps a stream handle to its newly computed volume.
type VolumeMatrix map[uint32]float64

// Strategy calculates new stream volumes from their relative priorities.
type Strategy interface {
	CalculateVolumes(streams []StreamInfo) VolumeMatrix
	Name() string
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxPriority(streams []StreamInfo) uint8 {
	var max uint8
	for i, s := range streams {
		if i == 0 || s.Priority > max {
			max = s.Priority
		}
	}
	return max
}

// SimpleDucker instantly drops every non-highest-priority stream to a
// fixed level.
type SimpleDucker struct {
	DuckLevel float64
}

// NewSimpleDucker clamps duckLevel to [0,1].
func NewSimpleDucker(duckLevel float64) *SimpleDucker {
	return &SimpleDucker{DuckLevel: clamp01(duckLevel)}
}

func (d *SimpleDucker) Name() string { return "simple" }

func (d *SimpleDucker) CalculateVolumes(streams []StreamInfo) VolumeMatrix {
	result := VolumeMatrix{}
	if len(streams) == 0 {
		return result
	}
	max := maxPriority(streams)
	for _, s := range streams {
		if s.Priority == max {
			result[s.Handle] = 1.0
		} else {
			result[s.Handle] = d.DuckLevel
		}
	}
	return result
}

// ProportionalDucker scales volume linearly between min_volume (lowest
// priority present) and 1.0 (highest priority present).
type ProportionalDucker struct {
	MinVolume float64
}

// NewProportionalDucker clamps minVolume to [0,1].
func NewProportionalDucker(minVolume float64) *ProportionalDucker {
	return &ProportionalDucker{MinVolume: clamp01(minVolume)}
}

func (d *ProportionalDucker) Name() string { return "proportional" }

func (d *ProportionalDucker) CalculateVolumes(streams []StreamInfo) VolumeMatrix {
	result := VolumeMatrix{}
	if len(streams) == 0 {
		return result
	}
	maxP := float64(streams[0].Priority)
	minP := float64(streams[0].Priority)
	for _, s := range streams[1:] {
		p := float64(s.Priority)
		if p > maxP {
			maxP = p
		}
		if p < minP {
			minP = p
		}
	}
	rangeP := maxP - minP
	if rangeP < 1 {
		rangeP = 1
	}
	for _, s := range streams {
		normalized := (float64(s.Priority) - minP) / rangeP
		result[s.Handle] = d.MinVolume + normalized*(1-d.MinVolume)
	}
	return result
}

// FadeDucker computes the Simple target but interpolates from each
// stream's current volume toward that target using a per-handle fade
// progress in [0,1] (1 = still at current, 0 = at target). A handle
// observed for the first time starts at progress 0.0 — already at
// target — matching fade_progress's default in the original backend.
type FadeDucker struct {
	DuckLevel   float64
	FadeMs      uint32
	fadeProgress map[uint32]float64
}

// NewFadeDucker clamps duckLevel to [0,1].
func NewFadeDucker(duckLevel float64, fadeMs uint32) *FadeDucker {
	return &FadeDucker{
		DuckLevel:    clamp01(duckLevel),
		FadeMs:       fadeMs,
		fadeProgress: make(map[uint32]float64),
	}
}

func (d *FadeDucker) Name() string { return "fade" }

// Update advances every tracked handle's fade progress by
// elapsed_ms/fade_ms, clamped at zero.
func (d *FadeDucker) Update(elapsedMs uint32) {
	step := float64(elapsedMs) / float64(d.FadeMs)
	for h, p := range d.fadeProgress {
		p -= step
		if p < 0 {
			p = 0
		}
		d.fadeProgress[h] = p
	}
}

func (d *FadeDucker) CalculateVolumes(streams []StreamInfo) VolumeMatrix {
	result := VolumeMatrix{}
	if len(streams) == 0 {
		return result
	}
	max := maxPriority(streams)
	for _, s := range streams {
		target := d.DuckLevel
		if s.Priority == max {
			target = 1.0
		}
		progress := d.fadeProgress[s.Handle] // zero value (0.0) if unseen
		result[s.Handle] = s.CurrentVolume*progress + target*(1-progress)
	}
	return result
}
