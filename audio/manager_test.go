package audio

import "testing"

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("mock")
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := m.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return m
}

func TestUnknownDriverNameRejected(t *testing.T) {
	if _, err := NewManager("bogus"); err == nil {
		t.Fatal("expected an error for an unknown driver name")
	}
}

func TestCreateStreamRejectsInvalidSampleRate(t *testing.T) {
	m := newTestManager(t)
	cfg := DefaultStreamConfig()
	cfg.SampleRate = 1000
	if _, err := m.CreateStream(cfg); err == nil {
		t.Fatal("expected InvalidConfigError for out-of-range sample rate")
	}
}

func TestCreateStreamRejectsInvalidChannels(t *testing.T) {
	m := newTestManager(t)
	cfg := DefaultStreamConfig()
	cfg.Channels = 9
	if _, err := m.CreateStream(cfg); err == nil {
		t.Fatal("expected InvalidConfigError for out-of-range channel count")
	}
}

func TestStreamStartsIdleThenPrebufferingWithoutEnoughData(t *testing.T) {
	m := newTestManager(t)
	handle, err := m.CreateStream(DefaultStreamConfig())
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	state, err := m.GetState(handle)
	if err != nil || state != StateIdle {
		t.Fatalf("expected Idle, got %v (err %v)", state, err)
	}
	if err := m.Start(handle); err != nil {
		t.Fatalf("Start: %v", err)
	}
	state, _ = m.GetState(handle)
	if state != StatePrebuffering {
		t.Fatalf("expected Prebuffering (no samples written yet), got %v", state)
	}
}

func TestWriteOverThresholdTransitionsPrebufferingToRunning(t *testing.T) {
	m := newTestManager(t)
	cfg := DefaultStreamConfig()
	handle, err := m.CreateStream(cfg)
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	if err := m.Start(handle); err != nil {
		t.Fatalf("Start: %v", err)
	}
	samples := make([]float32, cfg.PrebufferSamples())
	if _, err := m.Write(handle, samples); err != nil {
		t.Fatalf("Write: %v", err)
	}
	state, _ := m.GetState(handle)
	if state != StateRunning {
		t.Fatalf("expected Running after crossing prebuffer threshold, got %v", state)
	}
}

func TestPauseOnlyLegalFromRunning(t *testing.T) {
	m := newTestManager(t)
	handle, _ := m.CreateStream(DefaultStreamConfig())
	err := m.Pause(handle)
	if err == nil {
		t.Fatal("expected InvalidStateError pausing an Idle stream")
	}
	ise, ok := err.(*InvalidStateError)
	if !ok {
		t.Fatalf("expected *InvalidStateError, got %T", err)
	}
	if ise.Expected != StateRunning || ise.Actual != StateIdle {
		t.Fatalf("expected Expected=Running Actual=Idle, got %+v", ise)
	}
}

func TestResumeOnlyLegalFromPaused(t *testing.T) {
	m := newTestManager(t)
	handle, _ := m.CreateStream(DefaultStreamConfig())
	if err := m.Resume(handle); err == nil {
		t.Fatal("expected InvalidStateError resuming an Idle stream")
	}
}

func TestStopFromIdleSetsStopped(t *testing.T) {
	m := newTestManager(t)
	cfg := DefaultStreamConfig()
	handle, _ := m.CreateStream(cfg)
	m.Write(handle, make([]float32, 10))
	if err := m.Stop(handle); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	state, _ := m.GetState(handle)
	if state != StateStopped {
		t.Fatalf("expected Stopped, got %v", state)
	}
}

func TestWriteToRecordingStreamRejected(t *testing.T) {
	m := newTestManager(t)
	cfg := DefaultStreamConfig()
	cfg.Direction = DirectionRecording
	handle, _ := m.CreateStream(cfg)
	if _, err := m.Write(handle, []float32{1, 2, 3}); err == nil {
		t.Fatal("expected InvalidConfigError writing to a recording stream")
	}
}

func TestReadFromPlaybackStreamRejected(t *testing.T) {
	m := newTestManager(t)
	handle, _ := m.CreateStream(DefaultStreamConfig())
	if _, err := m.Read(handle, make([]float32, 3)); err == nil {
		t.Fatal("expected InvalidConfigError reading from a playback stream")
	}
}

func TestPartialWriteRecordsOverrun(t *testing.T) {
	m := newTestManager(t)
	cfg := DefaultStreamConfig()
	handle, _ := m.CreateStream(cfg)
	huge := make([]float32, cfg.BufferSamples()+cfg.PrebufferSamples()+10000)
	n, err := m.Write(handle, huge)
	if err != nil {
		t.Fatalf("Write must never fail for partial transfer: %v", err)
	}
	if n >= len(huge) {
		t.Fatalf("expected a partial write, got full %d", n)
	}
	h, err := m.GetHealth(handle)
	if err != nil {
		t.Fatalf("GetHealth: %v", err)
	}
	if h.OverrunCount == 0 {
		t.Fatalf("expected overrun to be recorded for a partial write")
	}
}

func TestVolumeClampedToUnitRange(t *testing.T) {
	m := newTestManager(t)
	handle, _ := m.CreateStream(DefaultStreamConfig())
	m.SetVolume(handle, 2.0)
	v, _ := m.GetVolume(handle)
	if v != 1.0 {
		t.Fatalf("expected volume clamped to 1.0, got %v", v)
	}
	m.SetVolume(handle, -1.0)
	v, _ = m.GetVolume(handle)
	if v != 0.0 {
		t.Fatalf("expected volume clamped to 0.0, got %v", v)
	}
}

func TestDestroyThenOperationsFailWithStreamNotFound(t *testing.T) {
	m := newTestManager(t)
	handle, _ := m.CreateStream(DefaultStreamConfig())
	if err := m.DestroyStream(handle); err != nil {
		t.Fatalf("DestroyStream: %v", err)
	}
	if _, err := m.GetState(handle); err == nil {
		t.Fatal("expected StreamNotFoundError after destroy")
	}
}

func TestDrainOnEmptyStreamSucceedsImmediately(t *testing.T) {
	m := newTestManager(t)
	handle, _ := m.CreateStream(DefaultStreamConfig())
	if err := m.Drain(handle); err != nil {
		t.Fatalf("Drain on an empty stream should succeed, got %v", err)
	}
}

func TestMockDeviceLists(t *testing.T) {
	m := newTestManager(t)
	playback, err := m.ListPlaybackDevices()
	if err != nil || len(playback) != 1 || playback[0].Channels != 2 {
		t.Fatalf("expected exactly one stereo playback device, got %+v (err %v)", playback, err)
	}
	recording, err := m.ListRecordingDevices()
	if err != nil || len(recording) != 1 || recording[0].Channels != 1 {
		t.Fatalf("expected exactly one mono recording device, got %+v (err %v)", recording, err)
	}
}
