package transcriber

import (
	"context"
	"sync"
	"time"
)

// FakeEngine is a scriptable engine for tests and the stdin harness. It
// tracks concurrency so tests can assert calls were serialized.
type FakeEngine struct {
	Text     string
	Err      error
	Delay    time.Duration
	TextFunc func(samples []float32) string

	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int
	closed      bool
}

func NewFakeEngine(text string) *FakeEngine {
	return &FakeEngine{Text: text}
}

func (f *FakeEngine) Transcribe(ctx context.Context, samples []float32) (string, error) {
	f.mu.Lock()
	f.calls++
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	delay := f.Delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	f.inFlight--
	err := f.Err
	text := f.Text
	fn := f.TextFunc
	f.mu.Unlock()

	if err != nil {
		return "", err
	}
	if fn != nil {
		return fn(samples), nil
	}
	return text, nil
}

func (f *FakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *FakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeEngine) MaxInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

func (f *FakeEngine) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// FakeFactory hands out engines and counts loads, for idle-unload and
// reload tests.
type FakeFactory struct {
	Err  error
	Make func() *FakeEngine

	mu      sync.Mutex
	loads   int
	engines []*FakeEngine
}

func (f *FakeFactory) New(_ Options) (Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.loads++
	var eng *FakeEngine
	if f.Make != nil {
		eng = f.Make()
	} else {
		eng = NewFakeEngine("")
	}
	f.engines = append(f.engines, eng)
	return eng, nil
}

func (f *FakeFactory) Loads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

func (f *FakeFactory) Engine(i int) *FakeEngine {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.engines) {
		return nil
	}
	return f.engines[i]
}
