package audio

import "github.com/claude-voice/engine/internal/health"

// Driver is the capability set any audio backend (mock, hardware, or a
// future real implementation) must expose to the Manager. Lifecycle
// methods (Initialize/Shutdown/CreateStream/...) run on the control
// thread under the Manager's mutex; Write/Read are additionally called
// from the realtime audio callback and must not block or allocate.
type Driver interface {
	// Name is the driver's identifier, e.g. "mock" or "pipewire".
	Name() string

	// IsAvailable reports whether the driver can be initialized on
	// this host.
	IsAvailable() bool

	// Initialize connects to the external audio server.
	Initialize() error

	// Shutdown stops and drops every stream and releases the
	// connection to the external audio server.
	Shutdown() error

	// CreateStream validates config and allocates a new stream,
	// returning its handle.
	CreateStream(config StreamConfig) (Handle, error)

	// DestroyStream releases a stream's resources.
	DestroyStream(handle Handle) error

	// GetState returns a stream's current lifecycle state.
	GetState(handle Handle) (State, error)

	// Start transitions Idle/Paused to Running (or Prebuffering if the
	// prebuffer threshold has not yet been reached).
	Start(handle Handle) error

	// Stop transitions any state to Stopped and clears the buffer.
	Stop(handle Handle) error

	// Pause transitions Running to Paused.
	Pause(handle Handle) error

	// Resume transitions Paused to Running.
	Resume(handle Handle) error

	// Write pushes samples into a Playback stream's ring buffer,
	// returning the count actually accepted. Never fails for partial
	// transfer.
	Write(handle Handle, samples []float32) (int, error)

	// Read pulls samples from a Recording stream's ring buffer into
	// buf, returning the count actually read. Never fails for partial
	// transfer.
	Read(handle Handle, buf []float32) (int, error)

	// SetVolume clamps and stores a stream's output volume.
	SetVolume(handle Handle, volume float64) error

	// GetVolume returns a stream's current volume.
	GetVolume(handle Handle) (float64, error)

	// GetHealth returns a stream's health telemetry snapshot.
	GetHealth(handle Handle) (health.Snapshot, error)

	// Drain blocks until the stream's buffer empties or a 5-second
	// timeout elapses.
	Drain(handle Handle) error

	// ListPlaybackDevices enumerates available playback endpoints.
	ListPlaybackDevices() ([]Device, error)

	// ListRecordingDevices enumerates available recording endpoints.
	ListRecordingDevices() ([]Device, error)

	// DefaultPlaybackDevice returns the system default playback device.
	DefaultPlaybackDevice() (Device, error)

	// DefaultRecordingDevice returns the system default recording device.
	DefaultRecordingDevice() (Device, error)
}
