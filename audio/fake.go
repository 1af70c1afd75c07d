package audio

import (
	"os"
	"sync"
	"time"
)

const (
	fakeChunkFrames = 1024
	fakeChunkBytes  = fakeChunkFrames * 2 // 16-bit mono
)

// FakeContext replays a WAV file as if it were a microphone. Used by the
// stdin test harness and the integration tests.
type FakeContext struct {
	pcm      []byte
	realtime bool

	mu   sync.Mutex
	last *FakeCapture
}

func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return &FakeContext{pcm: data, realtime: realtime}, nil
}

// NewSilentContext is a fake with no recorded audio; every capture
// produces silence until stopped.
func NewSilentContext(realtime bool) *FakeContext {
	return &FakeContext{realtime: realtime}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return nil, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	c := &FakeCapture{pcm: f.pcm, config: config, realtime: f.realtime, audioDone: make(chan struct{})}
	f.mu.Lock()
	f.last = c
	f.mu.Unlock()
	return c, nil
}

// AudioDone reports when the WAV behind the most recently opened capture
// has been fully fed. Closed from the start when nothing was opened yet,
// so waiting on it never hangs.
func (f *FakeContext) AudioDone() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return f.last.AudioDone()
}

type FakeCapture struct {
	pcm      []byte
	config   CaptureConfig
	realtime bool

	mu        sync.Mutex
	cb        DataCallback
	audioDone chan struct{}
	doneOnce  sync.Once
	stopCh    chan struct{}
	pumpDone  chan struct{}
}

func (f *FakeCapture) AudioDone() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.audioDone
}

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) Format() CaptureConfig { return f.config }

func (f *FakeCapture) currentCallback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) markAudioDone() {
	f.doneOnce.Do(func() { close(f.audioDone) })
}

// deliver hands pcm[pos:] to the callback one chunk and returns the new
// position. The chunk is copied so consumers may retain it.
func (f *FakeCapture) deliver(cb DataCallback, pos int) int {
	end := min(pos+fakeChunkBytes, len(f.pcm))
	chunk := make([]byte, end-pos)
	copy(chunk, f.pcm[pos:end])
	cb(chunk, uint32(len(chunk)/2))
	return end
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.pumpDone = make(chan struct{})
	// audioDone is NOT recreated here -- callers may already be waiting
	// on it. Stop resets it for replay.

	pos := 0
	if !f.realtime {
		// Push the whole recording up front so tests see it instantly.
		if cb := f.currentCallback(); cb != nil {
			for pos < len(f.pcm) {
				pos = f.deliver(cb, pos)
			}
		}
		pos = len(f.pcm)
	}
	go f.pump(pos, f.stopCh, f.pumpDone)
	return nil
}

// pump paces recorded chunks at the capture rate, then keeps the stream
// alive with silence until stopped. In non-realtime mode the recording
// was already flushed and only silence remains, ticking every
// millisecond so level observers stay fed.
func (f *FakeCapture) pump(pos int, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	pace := time.Duration(fakeChunkFrames) * time.Second / SampleRate
	if !f.realtime {
		pace = time.Millisecond
	}
	silence := make([]byte, fakeChunkBytes)

	for {
		if pos >= len(f.pcm) {
			f.markAudioDone()
		}
		cb := f.currentCallback()
		switch {
		case cb == nil:
			// Nothing armed yet; poll until a consumer appears.
		case pos < len(f.pcm):
			pos = f.deliver(cb, pos)
		default:
			cb(silence, fakeChunkFrames)
		}
		select {
		case <-stop:
			return
		case <-time.After(pace):
		}
	}
}

func (f *FakeCapture) Stop() {
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	if f.pumpDone != nil {
		<-f.pumpDone
	}
	f.mu.Lock()
	f.audioDone = make(chan struct{}) // reset for replay
	f.doneOnce = sync.Once{}
	f.mu.Unlock()
}

func (f *FakeCapture) Close() {}
