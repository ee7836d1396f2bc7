package audio

import (
	"time"

	"github.com/claude-voice/engine/internal/health"
	"github.com/claude-voice/engine/internal/ring"
)

// hardwareStream has no plain state field: s.health (an atomic
// health.Monitor) is the single source of truth for lifecycle state,
// since Write/Read run on the realtime thread with no lock held while
// Start/Stop/Pause/Resume/GetState are control-thread calls.
type hardwareStream struct {
	config StreamConfig
	buffer *ring.Buffer
	health *health.Monitor
	volume float64
}

// HardwareDriver is the "pipewire-like" reference driver: it models a
// connection to an external realtime audio server, per
// original_source's pipewire_backend.rs PipeWireBackend. Stream
// bookkeeping is identical to MockDriver; what differs is Drain, which
// polls instead of completing synchronously, matching spec.md §4.7's
// distinction between the two reference drivers.
type HardwareDriver struct {
	streams     map[Handle]*hardwareStream
	nextHandle  uint32
	initialized bool
	connected   bool
}

// NewHardwareDriver returns a HardwareDriver not yet connected to an
// external audio server.
func NewHardwareDriver() *HardwareDriver {
	return &HardwareDriver{
		streams:    make(map[Handle]*hardwareStream),
		nextHandle: 1,
	}
}

func (d *HardwareDriver) Name() string { return "hardware" }

// IsAvailable reports whether a realtime audio server appears reachable.
// The reference implementation has no real server to probe and always
// reports true, matching pipewire_backend.rs's is_available stub.
func (d *HardwareDriver) IsAvailable() bool { return true }

func (d *HardwareDriver) Initialize() error {
	if d.initialized {
		return nil
	}
	d.connected = true
	d.initialized = true
	return nil
}

func (d *HardwareDriver) Shutdown() error {
	d.connected = false
	for handle := range d.streams {
		delete(d.streams, handle)
	}
	d.initialized = false
	return nil
}

func (d *HardwareDriver) getStream(handle Handle) (*hardwareStream, error) {
	s, ok := d.streams[handle]
	if !ok {
		return nil, &StreamNotFoundError{Handle: handle}
	}
	return s, nil
}

func (d *HardwareDriver) CreateStream(config StreamConfig) (Handle, error) {
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

	// Extra headroom over the mock's sizing, matching pipewire_backend.rs.
	capacity := config.BufferSamples() + config.PrebufferSamples() + 100
	d.streams[handle] = &hardwareStream{
		config: config,
		buffer: ring.New(capacity),
		health: health.New(),
		volume: 1.0,
	}
	return handle, nil
}

func (d *HardwareDriver) DestroyStream(handle Handle) error {
	if _, ok := d.streams[handle]; !ok {
		return &StreamNotFoundError{Handle: handle}
	}
	delete(d.streams, handle)
	return nil
}

func (d *HardwareDriver) GetState(handle Handle) (State, error) {
	s, err := d.getStream(handle)
	if err != nil {
		return StateError, err
	}
	return s.health.State(), nil
}

func (d *HardwareDriver) Start(handle Handle) error {
	s, err := d.getStream(handle)
	if err != nil {
		return err
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

func (d *HardwareDriver) Stop(handle Handle) error {
	s, err := d.getStream(handle)
	if err != nil {
		return err
	}
	s.health.SetState(health.Stopped)
	s.buffer.Clear()
	return nil
}

func (d *HardwareDriver) Pause(handle Handle) error {
	s, err := d.getStream(handle)
	if err != nil {
		return err
	}
	if s.health.State() != StateRunning {
		return &InvalidStateError{Expected: StateRunning, Actual: s.health.State()}
	}
	s.health.SetState(health.Paused)
	return nil
}

func (d *HardwareDriver) Resume(handle Handle) error {
	s, err := d.getStream(handle)
	if err != nil {
		return err
	}
	if s.health.State() != StatePaused {
		return &InvalidStateError{Expected: StatePaused, Actual: s.health.State()}
	}
	s.health.SetState(health.Running)
	return nil
}

func (d *HardwareDriver) Write(handle Handle, samples []float32) (int, error) {
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
	if s.health.State() == health.Prebuffering && s.buffer.AvailableRead() >= s.config.PrebufferSamples() {
		s.health.SetState(health.Running)
	}
	return written, nil
}

func (d *HardwareDriver) Read(handle Handle, buf []float32) (int, error) {
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

func (d *HardwareDriver) SetVolume(handle Handle, volume float64) error {
	s, err := d.getStream(handle)
	if err != nil {
		return err
	}
	if volume < 0 {
		volume = 0
	} else if volume > 1 {
		volume = 1
	}
	s.volume = volume
	return nil
}

func (d *HardwareDriver) GetVolume(handle Handle) (float64, error) {
	s, err := d.getStream(handle)
	if err != nil {
		return 0, err
	}
	return s.volume, nil
}

func (d *HardwareDriver) GetHealth(handle Handle) (health.Snapshot, error) {
	s, err := d.getStream(handle)
	if err != nil {
		return health.Snapshot{}, err
	}
	return s.health.Snapshot(), nil
}

// Drain polls available_read every 10ms up to a 5-second timeout,
// matching pipewire_backend.rs's drain loop exactly.
func (d *HardwareDriver) Drain(handle Handle) error {
	s, err := d.getStream(handle)
	if err != nil {
		return err
	}
	deadline := time.Now().Add(5 * time.Second)
	for s.buffer.AvailableRead() > 0 {
		if time.Now().After(deadline) {
			return &InternalError{Message: "drain timeout"}
		}
		time.Sleep(10 * time.Millisecond)
	}
	s.health.SetState(health.Draining)
	return nil
}

func (d *HardwareDriver) ListPlaybackDevices() ([]Device, error) {
	return []Device{{
		ID:          "@DEFAULT_SINK@",
		Name:        "Default",
		Description: "System default output",
		IsDefault:   true,
		SampleRate:  48000,
		Channels:    2,
	}}, nil
}

func (d *HardwareDriver) ListRecordingDevices() ([]Device, error) {
	return []Device{{
		ID:          "@DEFAULT_SOURCE@",
		Name:        "Default",
		Description: "System default input",
		IsDefault:   true,
		SampleRate:  48000,
		Channels:    1,
	}}, nil
}

func (d *HardwareDriver) DefaultPlaybackDevice() (Device, error) {
	devs, _ := d.ListPlaybackDevices()
	return devs[0], nil
}

func (d *HardwareDriver) DefaultRecordingDevice() (Device, error) {
	devs, _ := d.ListRecordingDevices()
	return devs[0], nil
}
