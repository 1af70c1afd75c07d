// Package capture buffers microphone audio for one recording session.
//
// A Recorder is armed when a session begins and disarmed when it ends.
// While armed, backend callbacks append converted samples to an in-memory
// buffer that downstream consumers read via Snapshot (mid-session) or
// Disarm (final). Level values for the UI are computed off the audio
// callback so it never blocks.
package capture

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"murmur/audio"
)

// ErrCaptureUnavailable reports that the microphone could not be opened
// or started. The session is abandoned but the app keeps running.
var ErrCaptureUnavailable = errors.New("audio capture unavailable")

// preSizeSeconds pre-allocates the session buffer so a typical dictation
// never reallocates. Longer holds grow it transparently.
const preSizeSeconds = 30

const (
	levelStride = 4
	levelScale  = 5
)

type Recorder struct {
	ctx    audio.Context
	device *audio.DeviceInfo
	log    zerolog.Logger

	raw    chan []float32
	levels chan float32
	once   sync.Once

	mu    sync.Mutex
	dev   audio.CaptureDevice
	conv  *converter
	buf   []float32
	armed bool
	obs   func([]float32)
}

func NewRecorder(ctx audio.Context, device *audio.DeviceInfo, log zerolog.Logger) *Recorder {
	r := &Recorder{
		ctx:    ctx,
		device: device,
		log:    log,
		raw:    make(chan []float32, 4),
		levels: make(chan float32, 8),
	}
	go r.pumpLevels()
	return r
}

// Levels carries UI meter values in [0, 1]. Sends are lossy; a slow
// consumer only misses meter frames, never audio.
func (r *Recorder) Levels() <-chan float32 { return r.levels }

// Observe registers a callback fed each captured chunk off the audio
// thread. Chunks are lossy under load, which advisory consumers like
// voice detection can tolerate.
func (r *Recorder) Observe(fn func([]float32)) {
	r.mu.Lock()
	r.obs = fn
	r.mu.Unlock()
}

// SetDevice changes the device future Arm calls open. An armed session
// keeps the device it started with.
func (r *Recorder) SetDevice(dev *audio.DeviceInfo) {
	r.mu.Lock()
	r.device = dev
	r.mu.Unlock()
}

// Arm opens the device and starts buffering. A failure maps to
// ErrCaptureUnavailable and leaves the recorder idle.
func (r *Recorder) Arm() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.armed {
		return errors.New("capture already armed")
	}

	dev, err := r.ctx.NewCapture(r.device, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	// One converter per session, sized to whatever format the device
	// actually delivers.
	r.conv = newConverter(dev.Format())
	r.buf = make([]float32, 0, preSizeSeconds*audio.SampleRate)
	dev.SetCallback(r.onData)

	if err := dev.Start(); err != nil {
		dev.ClearCallback()
		dev.Close()
		r.conv = nil
		r.buf = nil
		return fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	r.dev = dev
	r.armed = true
	r.log.Debug().Uint32("rate", dev.Format().SampleRate).Msg("capture armed")
	return nil
}

func (r *Recorder) Armed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.armed
}

// onData runs on the backend's audio thread. It converts, appends and
// hands the chunk to the level pump without blocking.
func (r *Recorder) onData(data []byte, _ uint32) {
	r.mu.Lock()
	if !r.armed {
		r.mu.Unlock()
		return
	}
	samples := r.conv.convert(data)
	r.buf = append(r.buf, samples...)
	r.mu.Unlock()

	if len(samples) == 0 {
		return
	}
	select {
	case r.raw <- samples:
	default:
	}
}

// Snapshot copies the samples buffered so far. Safe to call at any
// cadence while armed; used for partial transcription.
func (r *Recorder) Snapshot() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float32, len(r.buf))
	copy(out, r.buf)
	return out
}

// Disarm stops the device and returns everything captured. An empty
// result is not an error: the user released before any audio arrived.
func (r *Recorder) Disarm() []float32 {
	r.mu.Lock()
	if !r.armed {
		r.mu.Unlock()
		return nil
	}
	dev := r.dev
	r.armed = false
	r.dev = nil
	r.mu.Unlock()

	// Stop blocks until the backend delivers no more callbacks, so the
	// buffer is final afterwards.
	dev.Stop()
	dev.ClearCallback()
	dev.Close()

	r.mu.Lock()
	buf := r.buf
	r.buf = nil
	r.conv = nil
	r.mu.Unlock()

	r.log.Debug().Int("samples", len(buf)).Msg("capture disarmed")
	return buf
}

// Close releases the level pump. The recorder must be disarmed.
func (r *Recorder) Close() {
	r.once.Do(func() { close(r.raw) })
}

func (r *Recorder) pumpLevels() {
	for chunk := range r.raw {
		lvl := level(chunk)
		select {
		case r.levels <- lvl:
		default:
		}
		r.mu.Lock()
		obs := r.obs
		r.mu.Unlock()
		if obs != nil {
			obs(chunk)
		}
	}
}

// level is a strided RMS scaled for a 0..1 meter. Striding keeps the
// pump cheap; speech energy varies far slower than the sample rate.
func level(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	n := 0
	for i := 0; i < len(samples); i += levelStride {
		s := float64(samples[i])
		sum += s * s
		n++
	}
	rms := math.Sqrt(sum / float64(n))
	lvl := float32(rms * levelScale)
	if lvl > 1 {
		lvl = 1
	}
	return lvl
}
