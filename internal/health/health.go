// Package health implements lock-free telemetry for a single audio
// stream: fill level, underrun/overrun counters, a latency gauge, and
// the stream's lifecycle state. Every field is an independent atomic;
// Snapshot makes no attempt at cross-field consistency, matching
// spec.md §4.6's "no cross-field atomicity is required".
package health

import "code.hybscloud.com/atomix"

// State is the stream lifecycle state, shared by internal/health and
// the audio package (health has no dependency on audio, so the audio
// package imports this type directly rather than duplicating it).
type State uint8

const (
	Idle State = iota
	Prebuffering
	Running
	Paused
	Draining
	Stopped
	Error
)

// Monitor is an atomic health telemetry block, safe to update from the
// realtime audio callback and read from the control thread.
type Monitor struct {
	fillLevel    atomix.Uint32 // fixed-point 0..1000
	underrunCnt  atomix.Uint64
	overrunCnt   atomix.Uint64
	latencyMs    atomix.Uint32
	state        atomix.Uint32 // encodes State
}

// New returns a Monitor in the Idle state with all counters zeroed.
func New() *Monitor {
	return &Monitor{}
}

// SetFillLevel records the buffer fill level (clamped to [0,1]).
func (m *Monitor) SetFillLevel(level float64) {
	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}
	m.fillLevel.StoreRelaxed(uint32(level * 1000))
}

// FillLevel returns the fill level as a fraction in [0,1].
func (m *Monitor) FillLevel() float64 {
	return float64(m.fillLevel.LoadRelaxed()) / 1000.0
}

// RecordUnderrun increments the underrun counter by one.
func (m *Monitor) RecordUnderrun() {
	m.underrunCnt.StoreRelaxed(m.underrunCnt.LoadRelaxed() + 1)
}

// UnderrunCount returns the total number of recorded underruns.
func (m *Monitor) UnderrunCount() uint64 {
	return m.underrunCnt.LoadRelaxed()
}

// RecordOverrun increments the overrun counter by one.
func (m *Monitor) RecordOverrun() {
	m.overrunCnt.StoreRelaxed(m.overrunCnt.LoadRelaxed() + 1)
}

// OverrunCount returns the total number of recorded overruns.
func (m *Monitor) OverrunCount() uint64 {
	return m.overrunCnt.LoadRelaxed()
}

// SetLatencyMs records an updated latency estimate.
func (m *Monitor) SetLatencyMs(ms uint32) {
	m.latencyMs.StoreRelaxed(ms)
}

// LatencyMs returns the current latency estimate in milliseconds.
func (m *Monitor) LatencyMs() uint32 {
	return m.latencyMs.LoadRelaxed()
}

// SetState publishes a new lifecycle state with Release ordering.
func (m *Monitor) SetState(s State) {
	m.state.StoreRelease(uint32(s))
}

// State returns the current lifecycle state with Acquire ordering.
func (m *Monitor) State() State {
	return State(m.state.LoadAcquire())
}

// Snapshot is a point-in-time, independently-sampled read of every
// metric; no atomicity is guaranteed across fields.
type Snapshot struct {
	FillLevel     float64
	UnderrunCount uint64
	OverrunCount  uint64
	LatencyMs     uint32
	State         State
}

// Snapshot takes an independent reading of each field.
func (m *Monitor) Snapshot() Snapshot {
	return Snapshot{
		FillLevel:     m.FillLevel(),
		UnderrunCount: m.UnderrunCount(),
		OverrunCount:  m.OverrunCount(),
		LatencyMs:     m.LatencyMs(),
		State:         m.State(),
	}
}

// Reset zeroes every counter and gauge and sets state back to Idle.
func (m *Monitor) Reset() {
	m.fillLevel.StoreRelaxed(0)
	m.underrunCnt.StoreRelaxed(0)
	m.overrunCnt.StoreRelaxed(0)
	m.latencyMs.StoreRelaxed(0)
	m.state.StoreRelease(uint32(Idle))
}
