package audio

import (
	"fmt"
	"sync"

	"github.com/claude-voice/engine/internal/health"
)

// Manager is a single-instance façade wrapping one Driver behind a
// mutex, grounded on pgraph.go's PGraph single-struct-facade shape
// (one graph + one parser generalized to one driver + N stream
// handles), per spec.md §4.8/§5.
//
// Every exported method except Write and Read serializes on mu; Write
// and Read, the realtime-thread calls, go straight to the driver
// without taking mu.
type Manager struct {
	mu     sync.Mutex
	driver Driver
}

// NewManager selects a driver by name: "auto" prefers a Hardware
// driver, falling back to Mock with a warning if Hardware is
// unavailable; "mock"/"hardware" request a specific driver explicitly;
// any other name is rejected.
func NewManager(driverName string) (*Manager, error) {
	var d Driver
	switch driverName {
	case "auto":
		hw := NewHardwareDriver()
		if hw.IsAvailable() {
			d = hw
		} else {
			fmt.Println("warning: hardware audio driver unavailable, falling back to mock")
			d = NewMockDriver()
		}
	case "mock":
		d = NewMockDriver()
	case "hardware":
		d = NewHardwareDriver()
	default:
		return nil, &InvalidConfigError{Message: fmt.Sprintf("unknown driver %q", driverName)}
	}
	return &Manager{driver: d}, nil
}

// Initialize connects the selected driver to its backing audio server.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.Initialize()
}

// Shutdown stops and drops every stream and disconnects the driver.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.Shutdown()
}

// DriverName returns the name of the driver currently in use.
func (m *Manager) DriverName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.Name()
}

// CreateStream validates config and allocates a new stream.
func (m *Manager) CreateStream(config StreamConfig) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.CreateStream(config)
}

// DestroyStream releases a stream's resources.
func (m *Manager) DestroyStream(handle Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.DestroyStream(handle)
}

// GetState returns a stream's current lifecycle state.
func (m *Manager) GetState(handle Handle) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.GetState(handle)
}

// Start begins playback/recording on a stream.
func (m *Manager) Start(handle Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.Start(handle)
}

// Stop halts a stream from any state and clears its buffer.
func (m *Manager) Stop(handle Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.Stop(handle)
}

// Pause suspends a Running stream.
func (m *Manager) Pause(handle Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.Pause(handle)
}

// Resume continues a Paused stream.
func (m *Manager) Resume(handle Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.Resume(handle)
}

// Write pushes interleaved float32 samples to a playback stream. This
// call does not take the manager mutex — it is meant to be invoked
// from the realtime thread directly against the driver's lock-free
// ring buffer, per spec.md §5's concurrency model.
func (m *Manager) Write(handle Handle, samples []float32) (int, error) {
	return m.driver.Write(handle, samples)
}

// Read pulls interleaved float32 samples from a recording stream. Like
// Write, this bypasses the manager mutex by design.
func (m *Manager) Read(handle Handle, buf []float32) (int, error) {
	return m.driver.Read(handle, buf)
}

// SetVolume clamps and stores a stream's volume.
func (m *Manager) SetVolume(handle Handle, volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.SetVolume(handle, volume)
}

// GetVolume returns a stream's current volume.
func (m *Manager) GetVolume(handle Handle) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.GetVolume(handle)
}

// GetHealth returns a stream's health telemetry snapshot, translated
// to the host boundary encoding of spec.md §6 (u32-truncated counters,
// fill_level as f64).
func (m *Manager) GetHealth(handle Handle) (Health, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, err := m.driver.GetHealth(handle)
	if err != nil {
		return Health{}, err
	}
	return toHealth(snap), nil
}

// Health is the host-boundary encoding of a health.Snapshot.
type Health struct {
	FillLevel     float64 `json:"fill_level"`
	UnderrunCount uint32  `json:"underrun_count"`
	OverrunCount  uint32  `json:"overrun_count"`
	LatencyMs     uint32  `json:"latency_ms"`
	State         string  `json:"state"`
}

func toHealth(s health.Snapshot) Health {
	return Health{
		FillLevel:     s.FillLevel,
		UnderrunCount: uint32(s.UnderrunCount),
		OverrunCount:  uint32(s.OverrunCount),
		LatencyMs:     s.LatencyMs,
		State:         StateName(s.State),
	}
}

// Drain waits until a stream's buffer empties or a 5-second timeout
// elapses.
func (m *Manager) Drain(handle Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.Drain(handle)
}

// ListPlaybackDevices enumerates available playback endpoints.
func (m *Manager) ListPlaybackDevices() ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.ListPlaybackDevices()
}

// ListRecordingDevices enumerates available recording endpoints.
func (m *Manager) ListRecordingDevices() ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.ListRecordingDevices()
}

// DefaultPlaybackDevice returns the system default playback device.
func (m *Manager) DefaultPlaybackDevice() (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.DefaultPlaybackDevice()
}

// DefaultRecordingDevice returns the system default recording device.
func (m *Manager) DefaultRecordingDevice() (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.driver.DefaultRecordingDevice()
}
