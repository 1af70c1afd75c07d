package transcriber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestManager(f *FakeFactory, cfg Config) *Manager {
	cfg.Factory = f.New
	return NewManager(cfg, zerolog.Nop())
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEmptyBufferIsInvalidAudio(t *testing.T) {
	f := &FakeFactory{}
	m := newTestManager(f, Config{})
	defer m.Close()

	_, err := m.Transcribe(context.Background(), nil)
	if !errors.Is(err, ErrInvalidAudio) {
		t.Fatalf("expected ErrInvalidAudio, got %v", err)
	}
	// The engine must not be touched, not even loaded.
	if f.Loads() != 0 {
		t.Fatalf("expected no loads, got %d", f.Loads())
	}
}

func TestTranscribeBeforeLoadRejected(t *testing.T) {
	f := &FakeFactory{}
	m := newTestManager(f, Config{})
	defer m.Close()

	_, err := m.Transcribe(context.Background(), []float32{0.1})
	if !errors.Is(err, ErrEngineNotLoaded) {
		t.Fatalf("expected ErrEngineNotLoaded, got %v", err)
	}
}

func TestLoadFailureIsReported(t *testing.T) {
	f := &FakeFactory{Err: errors.New("model file corrupt")}
	m := newTestManager(f, Config{})
	defer m.Close()

	err := m.Load()
	if !errors.Is(err, ErrEngineLoadFailed) {
		t.Fatalf("expected ErrEngineLoadFailed, got %v", err)
	}
	if m.State() != StateUnloaded {
		t.Fatalf("expected unloaded after failure, got %s", m.State())
	}
}

func TestRedundantLoadAndUnload(t *testing.T) {
	f := &FakeFactory{}
	m := newTestManager(f, Config{})
	defer m.Close()

	if err := m.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := m.Load(); err != nil {
		t.Fatalf("redundant load: %v", err)
	}
	if f.Loads() != 1 {
		t.Fatalf("expected one factory call, got %d", f.Loads())
	}

	m.Unload()
	m.Unload()
	if m.State() != StateUnloaded {
		t.Fatalf("expected unloaded, got %s", m.State())
	}
	if !f.Engine(0).Closed() {
		t.Fatal("engine must be closed on unload")
	}
}

func TestEngineCallsAreSerialized(t *testing.T) {
	f := &FakeFactory{Make: func() *FakeEngine {
		e := NewFakeEngine("ok")
		e.Delay = 20 * time.Millisecond
		return e
	}}
	m := newTestManager(f, Config{})
	defer m.Close()

	if err := m.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Transcribe(context.Background(), []float32{0.1}); err != nil {
				t.Errorf("transcribe: %v", err)
			}
		}()
	}
	wg.Wait()

	eng := f.Engine(0)
	if eng.Calls() != 8 {
		t.Fatalf("expected 8 calls, got %d", eng.Calls())
	}
	if eng.MaxInFlight() != 1 {
		t.Fatalf("engine saw %d concurrent calls, want 1", eng.MaxInFlight())
	}
}

func TestIdleUnloadThenTransparentReload(t *testing.T) {
	f := &FakeFactory{Make: func() *FakeEngine { return NewFakeEngine("after reload") }}
	m := newTestManager(f, Config{
		Options:        Options{ModelPath: "fake.bin"},
		IdleTimeout:    30 * time.Millisecond,
		IdleCheckEvery: 10 * time.Millisecond,
	})
	defer m.Close()

	if err := m.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	waitFor(t, "idle unload", func() bool { return m.State() == StateUnloaded })
	if !f.Engine(0).Closed() {
		t.Fatal("idle unload must close the engine")
	}

	// The next call reloads transparently and still succeeds.
	text, err := m.Transcribe(context.Background(), []float32{0.1})
	if err != nil {
		t.Fatalf("transcribe after idle unload: %v", err)
	}
	if text != "after reload" {
		t.Fatalf("unexpected text %q", text)
	}
	if f.Loads() != 2 {
		t.Fatalf("expected reload, loads = %d", f.Loads())
	}
}

func TestTranscriptionFailureWrapped(t *testing.T) {
	f := &FakeFactory{Make: func() *FakeEngine {
		e := NewFakeEngine("")
		e.Err = errors.New("decode blew up")
		return e
	}}
	m := newTestManager(f, Config{})
	defer m.Close()

	if err := m.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	_, err := m.Transcribe(context.Background(), []float32{0.1})
	if !errors.Is(err, ErrTranscriptionFailed) {
		t.Fatalf("expected ErrTranscriptionFailed, got %v", err)
	}
}

func TestStateCallbackSeesTransitions(t *testing.T) {
	var mu sync.Mutex
	var seen []State
	f := &FakeFactory{}
	m := newTestManager(f, Config{OnState: func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}})

	if err := m.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	m.Close()

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateLoading, StateLoaded, StateUnloading, StateUnloaded}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("transition %d: expected %s, got %s", i, want[i], seen[i])
		}
	}
}

func TestLiveReportsGrowingPartials(t *testing.T) {
	f := &FakeFactory{Make: func() *FakeEngine {
		e := NewFakeEngine("")
		e.TextFunc = func(samples []float32) string {
			return fmt.Sprintf("heard %d", len(samples))
		}
		return e
	}}
	m := newTestManager(f, Config{})
	defer m.Close()
	if err := m.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	var bufMu sync.Mutex
	buf := []float32{0.1}
	snapshot := func() []float32 {
		bufMu.Lock()
		defer bufMu.Unlock()
		out := make([]float32, len(buf))
		copy(out, buf)
		return out
	}

	var partialMu sync.Mutex
	var partials []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Live(ctx, 5*time.Millisecond, snapshot, func(text string) {
			partialMu.Lock()
			partials = append(partials, text)
			partialMu.Unlock()
		})
	}()

	waitFor(t, "first partial", func() bool {
		partialMu.Lock()
		defer partialMu.Unlock()
		return len(partials) >= 1
	})

	bufMu.Lock()
	buf = append(buf, 0.2, 0.3)
	bufMu.Unlock()

	waitFor(t, "partial for grown buffer", func() bool {
		partialMu.Lock()
		defer partialMu.Unlock()
		return len(partials) >= 2 && partials[len(partials)-1] == "heard 3"
	})

	cancel()
	<-done

	// Advisory decoding must never tear the engine down.
	if m.State() != StateLoaded {
		t.Fatalf("expected engine loaded after live loop, got %s", m.State())
	}
}

func TestLiveSuppressesFailures(t *testing.T) {
	f := &FakeFactory{Make: func() *FakeEngine {
		e := NewFakeEngine("")
		e.Err = errors.New("decode failed")
		return e
	}}
	m := newTestManager(f, Config{})
	defer m.Close()
	if err := m.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var called atomic.Bool
	go func() {
		defer close(done)
		m.Live(ctx, 5*time.Millisecond, func() []float32 { return []float32{0.1} }, func(string) {
			called.Store(true)
		})
	}()

	waitFor(t, "a few live ticks", func() bool { return f.Engine(0).Calls() >= 3 })
	cancel()
	<-done

	if called.Load() {
		t.Fatal("failed partials must not reach the callback")
	}
}

func TestNonSpeechFilter(t *testing.T) {
	for _, tt := range []struct {
		text string
		want bool
	}{
		{"[BLANK_AUDIO]", true},
		{"(coughs)", true},
		{"♪ la la la ♪", true},
		{"hello world", false},
		{"[sic] noted", false},
	} {
		if got := nonSpeech(tt.text); got != tt.want {
			t.Errorf("nonSpeech(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
