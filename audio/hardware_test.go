package audio

import "testing"

func newHardwareDriver(t *testing.T) *HardwareDriver {
	t.Helper()
	d := NewHardwareDriver()
	if err := d.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return d
}

func TestHardwareDriverCreateAndDestroyStream(t *testing.T) {
	d := newHardwareDriver(t)
	handle, err := d.CreateStream(DefaultStreamConfig())
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	state, err := d.GetState(handle)
	if err != nil || state != StateIdle {
		t.Fatalf("expected Idle, got %v (err %v)", state, err)
	}
	if err := d.DestroyStream(handle); err != nil {
		t.Fatalf("DestroyStream: %v", err)
	}
	if _, err := d.GetState(handle); err == nil {
		t.Fatal("expected StreamNotFoundError after destroy")
	}
}

func TestHardwareDriverDrainOnEmptyBufferReturnsImmediately(t *testing.T) {
	d := newHardwareDriver(t)
	handle, err := d.CreateStream(DefaultStreamConfig())
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	// Buffer starts empty, so drain must not enter its polling loop.
	if err := d.Drain(handle); err != nil {
		t.Fatalf("Drain on empty buffer: %v", err)
	}
	state, _ := d.GetState(handle)
	_ = state // Drain sets internal state to Draining regardless of prior state.
}

func TestHardwareDriverDeviceEnumeration(t *testing.T) {
	d := newHardwareDriver(t)
	pb, err := d.ListPlaybackDevices()
	if err != nil || len(pb) != 1 || pb[0].ID != "@DEFAULT_SINK@" {
		t.Fatalf("unexpected playback devices: %+v (err %v)", pb, err)
	}
	rec, err := d.ListRecordingDevices()
	if err != nil || len(rec) != 1 || rec[0].ID != "@DEFAULT_SOURCE@" {
		t.Fatalf("unexpected recording devices: %+v (err %v)", rec, err)
	}
}

func TestHardwareDriverRejectsUninitializedCreateStream(t *testing.T) {
	d := NewHardwareDriver()
	if _, err := d.CreateStream(DefaultStreamConfig()); err == nil {
		t.Fatal("expected NotAvailableError before Initialize")
	}
}
