package audio

import (
	"sync"

	"github.com/claude-voice/engine/internal/health"
	"github.com/claude-voice/engine/internal/ring"
)

// mockStream has no plain state field: s.health (an atomic
// health.Monitor) is the single source of truth for lifecycle state,
// since Write/Read run on the realtime thread holding d.mu only in read
// mode for the stream lookup, while Start/Stop/Pause/Resume hold it for
// writing.
type mockStream struct {
	config StreamConfig
	buffer *ring.Buffer
	health *health.Monitor
	volume float64
}

// MockDriver is the spec's always-available reference driver. It
// simulates playback/recording entirely in memory, with no external
// audio server, per original_source's mock.rs MockBackend.
type MockDriver struct {
	mu          sync.RWMutex
	streams     map[Handle]*mockStream
	nextHandle  uint32
	initialized bool
}

// NewMockDriver returns an uninitialized MockDriver.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		streams:    make(map[Handle]*mockStream),
		nextHandle: 1,
	}
}

func (d *MockDriver) Name() string { return "mock" }

func (d *MockDriver) IsAvailable() bool { return true }

func (d *MockDriver) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = true
	return nil
}

func (d *MockDriver) Shutdown() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.streams = make(map[Handle]*mockStream)
	d.initialized = false
	return nil
}

func (d *MockDriver) getStream(handle Handle) (*mockStream, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.streams[handle]
	if !ok {
		return nil, &StreamNotFoundError{Handle: handle}
	}
	return s, nil
}

func (d *MockDriver) CreateStream(config StreamConfig) (Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return 0, &NotAvailableError{Message: "backend not initialized"}
	}
	if config.SampleRate < 8000 || config.SampleRate > 192000 {
		return 0, &InvalidConfigError{Message: "sample rate must be 8000-192000 Hz"}
	}
	if config.Channels == 0 || config.Channels > 8 {
		return 0, &InvalidConfigError{Message: "channels must be 1-8"}
	}

	handle := Handle(d.nextHandle)
	d.nextHandle++

	capacity := config.BufferSamples() + config.PrebufferSamples()
	d.streams[handle] = &mockStream{
		config: config,
		buffer: ring.New(capacity),
		health: health.New(),
		volume: 1.0,
	}
	return handle, nil
}

func (d *MockDriver) DestroyStream(handle Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.streams[handle]; !ok {
		return &StreamNotFoundError{Handle: handle}
	}
	delete(d.streams, handle)
	return nil
}

func (d *MockDriver) GetState(handle Handle) (State, error) {
	s, err := d.getStream(handle)
	if err != nil {
		return StateError, err
	}
	return s.health.State(), nil
}

func (d *MockDriver) Start(handle Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.streams[handle]
	if !ok {
		return &StreamNotFoundError{Handle: handle}
	}
	switch s.health.State() {
	case StateIdle, StatePaused:
		if s.buffer.AvailableRead() >= s.config.PrebufferSamples() {
			s.health.SetState(health.Running)
		} else {
			s.health.SetState(health.Prebuffering)
		}
		return nil
	default:
		return &InvalidStateError{Expected: StateIdle, Actual: s.health.State()}
	}
}

func (d *MockDriver) Stop(handle Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.streams[handle]
	if !ok {
		return &StreamNotFoundError{Handle: handle}
	}
	s.health.SetState(health.Stopped)
	s.buffer.Clear()
	return nil
}

func (d *MockDriver) Pause(handle Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.streams[handle]
	if !ok {
		return &StreamNotFoundError{Handle: handle}
	}
	if s.health.State() != StateRunning {
		return &InvalidStateError{Expected: StateRunning, Actual: s.health.State()}
	}
	s.health.SetState(health.Paused)
	return nil
}

func (d *MockDriver) Resume(handle Handle) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.streams[handle]
	if !ok {
		return &StreamNotFoundError{Handle: handle}
	}
	if s.health.State() != StatePaused {
		return &InvalidStateError{Expected: StatePaused, Actual: s.health.State()}
	}
	s.health.SetState(health.Running)
	return nil
}

func (d *MockDriver) Write(handle Handle, samples []float32) (int, error) {
	s, err := d.getStream(handle)
	if err != nil {
		return 0, err
	}
	if s.config.Direction != DirectionPlayback {
		return 0, &InvalidConfigError{Message: "cannot write to a recording stream"}
	}
	written := s.buffer.Write(samples)
	s.health.SetFillLevel(s.buffer.FillPercent())
	if written < len(samples) {
		s.health.RecordOverrun()
	}
	if s.health.State() == StatePrebuffering && s.buffer.AvailableRead() >= s.config.PrebufferSamples() {
		s.health.SetState(health.Running)
	}
	return written, nil
}

func (d *MockDriver) Read(handle Handle, buf []float32) (int, error) {
	s, err := d.getStream(handle)
	if err != nil {
		return 0, err
	}
	if s.config.Direction != DirectionRecording {
		return 0, &InvalidConfigError{Message: "cannot read from a playback stream"}
	}
	read := s.buffer.Read(buf)
	s.health.SetFillLevel(s.buffer.FillPercent())
	if read < len(buf) {
		s.health.RecordUnderrun()
	}
	return read, nil
}

func (d *MockDriver) SetVolume(handle Handle, volume float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.streams[handle]
	if !ok {
		return &StreamNotFoundError{Handle: handle}
	}
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	s.volume = volume
	return nil
}

func (d *MockDriver) GetVolume(handle Handle) (float64, error) {
	s, err := d.getStream(handle)
	if err != nil {
		return 0, err
	}
	return s.volume, nil
}

func (d *MockDriver) GetHealth(handle Handle) (health.Snapshot, error) {
	s, err := d.getStream(handle)
	if err != nil {
		return health.Snapshot{}, err
	}
	return s.health.Snapshot(), nil
}

// Drain is synchronous in the mock: it clears the buffer immediately
// rather than waiting for a realtime callback to consume it.
func (d *MockDriver) Drain(handle Handle) error {
	s, err := d.getStream(handle)
	if err != nil {
		return err
	}
	if s.buffer.AvailableRead() != 0 {
		s.buffer.Clear()
	}
	s.health.SetState(health.Draining)
	return nil
}

func (d *MockDriver) ListPlaybackDevices() ([]Device, error) {
	return []Device{{
		ID:          "mock:playback:0",
		Name:        "Mock Playback",
		Description: "Mock audio output device",
		IsDefault:   true,
		SampleRate:  48000,
		Channels:    2,
	}}, nil
}

func (d *MockDriver) ListRecordingDevices() ([]Device, error) {
	return []Device{{
		ID:          "mock:recording:0",
		Name:        "Mock Recording",
		Description: "Mock audio input device",
		IsDefault:   true,
		SampleRate:  48000,
		Channels:    1,
	}}, nil
}

func (d *MockDriver) DefaultPlaybackDevice() (Device, error) {
	devs, _ := d.ListPlaybackDevices()
	return devs[0], nil
}

func (d *MockDriver) DefaultRecordingDevice() (Device, error) {
	devs, _ := d.ListRecordingDevices()
	return devs[0], nil
}
