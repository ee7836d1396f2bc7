package audio

import "github.com/claude-voice/engine/internal/ducking"

// Re-exported so callers of the audio package never need to import
// internal/ducking directly.
type (
	DuckingStrategy     = ducking.Strategy
	DuckingStreamInfo   = ducking.StreamInfo
	DuckingVolumeMatrix = ducking.VolumeMatrix
	SimpleDucker        = ducking.SimpleDucker
	ProportionalDucker  = ducking.ProportionalDucker
	FadeDucker          = ducking.FadeDucker
)

var (
	NewSimpleDucker       = ducking.NewSimpleDucker
	NewProportionalDucker = ducking.NewProportionalDucker
	NewFadeDucker         = ducking.NewFadeDucker
)
