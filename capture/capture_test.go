package capture

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"

	"murmur/audio"
)

type scriptedDev struct {
	format   audio.CaptureConfig
	cb       audio.DataCallback
	startErr error
	started  bool
	stopped  bool
	closed   bool
}

func (d *scriptedDev) Start() error {
	if d.startErr != nil {
		return d.startErr
	}
	d.started = true
	return nil
}
func (d *scriptedDev) Stop()  { d.stopped = true }
func (d *scriptedDev) Close() { d.closed = true }

func (d *scriptedDev) SetCallback(cb audio.DataCallback) { d.cb = cb }
func (d *scriptedDev) ClearCallback()                    { d.cb = nil }
func (d *scriptedDev) Format() audio.CaptureConfig       { return d.format }

// emit feeds int16 samples through the registered callback the way a
// backend audio thread would.
func (d *scriptedDev) emit(samples []int16) {
	if d.cb == nil {
		return
	}
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	d.cb(data, uint32(len(samples)))
}

type scriptedCtx struct {
	dev    *scriptedDev
	newErr error
}

func (c *scriptedCtx) Devices() ([]audio.DeviceInfo, error) { return nil, nil }
func (c *scriptedCtx) Close()                               {}

func (c *scriptedCtx) NewCapture(_ *audio.DeviceInfo, cfg audio.CaptureConfig) (audio.CaptureDevice, error) {
	if c.newErr != nil {
		return nil, c.newErr
	}
	if c.dev.format.SampleRate == 0 {
		c.dev.format = cfg
	}
	return c.dev, nil
}

func newTestRecorder(ctx audio.Context) *Recorder {
	return NewRecorder(ctx, nil, zerolog.Nop())
}

func TestArmFailureIsCaptureUnavailable(t *testing.T) {
	ctx := &scriptedCtx{newErr: errors.New("no such device")}
	r := newTestRecorder(ctx)
	defer r.Close()

	err := r.Arm()
	if !errors.Is(err, ErrCaptureUnavailable) {
		t.Fatalf("expected ErrCaptureUnavailable, got %v", err)
	}
	if r.Armed() {
		t.Fatal("recorder must stay idle after a failed arm")
	}
}

func TestStartFailureIsCaptureUnavailable(t *testing.T) {
	dev := &scriptedDev{startErr: errors.New("device busy")}
	ctx := &scriptedCtx{dev: dev}
	r := newTestRecorder(ctx)
	defer r.Close()

	err := r.Arm()
	if !errors.Is(err, ErrCaptureUnavailable) {
		t.Fatalf("expected ErrCaptureUnavailable, got %v", err)
	}
	if !dev.closed {
		t.Fatal("device must be closed after a failed start")
	}
}

func TestCaptureBuffersConvertedSamples(t *testing.T) {
	dev := &scriptedDev{}
	ctx := &scriptedCtx{dev: dev}
	r := newTestRecorder(ctx)
	defer r.Close()

	if err := r.Arm(); err != nil {
		t.Fatalf("arm: %v", err)
	}
	dev.emit([]int16{0, 16384, -16384})
	dev.emit([]int16{8192})

	got := r.Disarm()
	want := []float32{0, 0.5, -0.5, 0.25}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if !dev.stopped || !dev.closed {
		t.Fatal("disarm must stop and close the device")
	}
}

func TestDisarmWithoutAudioReturnsEmpty(t *testing.T) {
	dev := &scriptedDev{}
	ctx := &scriptedCtx{dev: dev}
	r := newTestRecorder(ctx)
	defer r.Close()

	if err := r.Arm(); err != nil {
		t.Fatalf("arm: %v", err)
	}
	got := r.Disarm()
	if len(got) != 0 {
		t.Fatalf("expected empty capture, got %d samples", len(got))
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	dev := &scriptedDev{}
	ctx := &scriptedCtx{dev: dev}
	r := newTestRecorder(ctx)
	defer r.Close()

	if err := r.Arm(); err != nil {
		t.Fatalf("arm: %v", err)
	}
	dev.emit([]int16{16384, 16384})

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(snap))
	}
	snap[0] = -1

	again := r.Snapshot()
	if again[0] != 0.5 {
		t.Fatalf("snapshot aliased the buffer: got %v", again[0])
	}
	r.Disarm()
}

func TestRearmAfterDisarm(t *testing.T) {
	dev := &scriptedDev{}
	ctx := &scriptedCtx{dev: dev}
	r := newTestRecorder(ctx)
	defer r.Close()

	if err := r.Arm(); err != nil {
		t.Fatalf("first arm: %v", err)
	}
	dev.emit([]int16{100})
	r.Disarm()

	dev.stopped, dev.closed = false, false
	if err := r.Arm(); err != nil {
		t.Fatalf("second arm: %v", err)
	}
	dev.emit([]int16{16384})
	got := r.Disarm()
	if len(got) != 1 || got[0] != 0.5 {
		t.Fatalf("second session polluted by the first: %v", got)
	}
}

func TestLevelScalesAndClamps(t *testing.T) {
	quiet := make([]float32, 64)
	for i := range quiet {
		quiet[i] = 0.1
	}
	if lvl := level(quiet); math.Abs(float64(lvl)-0.5) > 1e-3 {
		t.Fatalf("expected ~0.5, got %v", lvl)
	}

	loud := make([]float32, 64)
	for i := range loud {
		loud[i] = 0.9
	}
	if lvl := level(loud); lvl != 1 {
		t.Fatalf("expected clamp to 1, got %v", lvl)
	}

	if lvl := level(nil); lvl != 0 {
		t.Fatalf("expected 0 for empty chunk, got %v", lvl)
	}
}

func TestConverterIdentity(t *testing.T) {
	c := newConverter(audio.CaptureConfig{SampleRate: audio.SampleRate, Channels: 1})
	data := pcmBytes([]int16{0, 32767, -32768})
	got := c.convert(data)
	if len(got) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got))
	}
	if got[0] != 0 || got[2] != -1 {
		t.Fatalf("unexpected conversion: %v", got)
	}
}

func TestConverterDownsamplesAcrossChunks(t *testing.T) {
	// 32 kHz source, exact 2:1 ratio: output is every other input
	// sample, with continuity across chunk boundaries.
	c := newConverter(audio.CaptureConfig{SampleRate: 32000, Channels: 1})

	got := c.convert(pcmBytes([]int16{0, 1000, 2000, 3000, 4000}))
	got = append(got, c.convert(pcmBytes([]int16{5000, 6000, 7000, 8000}))...)

	// The trailing input sample stays buffered as interpolation state
	// for the next chunk, so 8000 is not emitted yet.
	want := []float32{0, 2000.0 / 32768, 4000.0 / 32768, 6000.0 / 32768}
	if len(got) != len(want) {
		t.Fatalf("expected %d samples, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Fatalf("sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestConverterDownmixesStereo(t *testing.T) {
	c := newConverter(audio.CaptureConfig{SampleRate: audio.SampleRate, Channels: 2})
	data := pcmBytes([]int16{16384, 0, -16384, -16384})
	got := c.convert(data)
	want := []float32{0.25, -0.5}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func pcmBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}
