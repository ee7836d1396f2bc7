// Package audio implements the low-latency streaming engine: a
// pluggable backend driver abstraction, a mutex-guarded manager
// façade, and per-stream health/ducking support.
package audio

import (
	"encoding/json"
	"fmt"

	"github.com/claude-voice/engine/internal/health"
)

// Format is a sample encoding at the host boundary.
type Format int

const (
	FormatF32LE Format = iota
	FormatS16LE
	FormatS32LE
)

func (f Format) String() string {
	switch f {
	case FormatF32LE:
		return "f32le"
	case FormatS16LE:
		return "s16le"
	case FormatS32LE:
		return "s32le"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes a Format using spec.md §6's string values.
func (f Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON decodes a Format from spec.md §6's string values.
func (f *Format) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "f32le":
		*f = FormatF32LE
	case "s16le":
		*f = FormatS16LE
	case "s32le":
		*f = FormatS32LE
	default:
		return fmt.Errorf("audio: unknown format %q", s)
	}
	return nil
}

// BytesPerSample returns the byte width of one sample in this format.
func (f Format) BytesPerSample() int {
	switch f {
	case FormatF32LE, FormatS32LE:
		return 4
	case FormatS16LE:
		return 2
	default:
		return 0
	}
}

// Direction is the data-flow direction of a stream.
type Direction int

const (
	DirectionPlayback Direction = iota
	DirectionRecording
)

func (d Direction) String() string {
	if d == DirectionRecording {
		return "recording"
	}
	return "playback"
}

// MarshalJSON encodes a Direction using spec.md §6's string values.
func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a Direction from spec.md §6's string values.
func (d *Direction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "playback":
		*d = DirectionPlayback
	case "recording":
		*d = DirectionRecording
	default:
		return fmt.Errorf("audio: unknown direction %q", s)
	}
	return nil
}

// State is the stream lifecycle state, re-exported from internal/health
// so callers of the audio package never need to import it directly.
type State = health.State

const (
	StateIdle         = health.Idle
	StatePrebuffering = health.Prebuffering
	StateRunning      = health.Running
	StatePaused       = health.Paused
	StateDraining     = health.Draining
	StateStopped      = health.Stopped
	StateError        = health.Error
)

// StateName renders a State using spec.md §6's boundary encoding.
func StateName(s State) string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePrebuffering:
		return "prebuffering"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "error"
	}
}

// StreamConfig configures a stream at creation time.
type StreamConfig struct {
	SampleRate   uint32    `json:"sample_rate"`
	Channels     uint32    `json:"channels"`
	Format       Format    `json:"format"`
	BufferSizeMs uint32    `json:"buffer_size_ms"`
	PrebufferMs  uint32    `json:"prebuffer_ms"`
	Name         string    `json:"name"`
	Direction    Direction `json:"direction"`
}

// DefaultStreamConfig returns spec.md §6's default configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		SampleRate:   48000,
		Channels:     1,
		Format:       FormatF32LE,
		BufferSizeMs: 20,
		PrebufferMs:  50,
		Name:         "claude-voice",
		Direction:    DirectionPlayback,
	}
}

// PrebufferSamples is the number of interleaved samples that must be
// buffered before Prebuffering may transition to Running.
func (c StreamConfig) PrebufferSamples() int {
	return int(c.SampleRate) * int(c.PrebufferMs) / 1000 * int(c.Channels)
}

// BufferSamples is the steady-state ring buffer sizing target.
func (c StreamConfig) BufferSamples() int {
	return int(c.SampleRate) * int(c.BufferSizeMs) / 1000 * int(c.Channels)
}

// BytesPerMs is the byte throughput of this configuration.
func (c StreamConfig) BytesPerMs() int {
	return int(c.SampleRate) * int(c.Channels) * c.Format.BytesPerSample() / 1000
}

// Device describes one playback or recording endpoint.
type Device struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsDefault   bool   `json:"is_default"`
	SampleRate  uint32 `json:"sample_rate"`
	Channels    uint32 `json:"channels"`
}

// Handle identifies a stream within a driver.
type Handle uint32
