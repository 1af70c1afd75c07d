package gesture

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeSource struct {
	keydown chan struct{}
	keyup   chan struct{}

	mu       sync.Mutex
	healthy  bool
	reopened int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		keydown: make(chan struct{}, 8),
		keyup:   make(chan struct{}, 8),
		healthy: true,
	}
}

func (f *fakeSource) Keydown() <-chan struct{} { return f.keydown }
func (f *fakeSource) Keyup() <-chan struct{}   { return f.keyup }

func (f *fakeSource) Healthy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.healthy {
		return errors.New("device gone")
	}
	return nil
}

func (f *fakeSource) Reopen() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reopened++
	f.healthy = true
	return nil
}

func (f *fakeSource) setHealthy(v bool) {
	f.mu.Lock()
	f.healthy = v
	f.mu.Unlock()
}

func (f *fakeSource) reopenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reopened
}

func (f *fakeSource) press()   { f.keydown <- struct{}{} }
func (f *fakeSource) release() { f.keyup <- struct{}{} }

func waitIntent(t *testing.T, ch <-chan Intent, kind Kind) Intent {
	t.Helper()
	select {
	case it := <-ch:
		if it.Kind != kind {
			t.Fatalf("expected %s, got %s", kind, it.Kind)
		}
		return it
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", kind)
		return Intent{}
	}
}

func waitNoIntent(t *testing.T, ch <-chan Intent, d time.Duration) {
	t.Helper()
	select {
	case it := <-ch:
		t.Fatalf("expected no intent, got %s", it.Kind)
	case <-time.After(d):
	}
}

func TestRunnerDoubleTapHold(t *testing.T) {
	src := newFakeSource()
	r := NewRunner(Config{DoubleTapThreshold: 200 * time.Millisecond}, src, zerolog.Nop())
	r.Start()
	defer r.Stop()

	src.press()
	src.release()
	src.press() // second tap, then hold

	begin := waitIntent(t, r.Intents(), BeginCapture)
	src.release()
	end := waitIntent(t, r.Intents(), EndCapture)

	if end.At.Before(begin.At) {
		t.Fatalf("end %v precedes begin %v", end.At, begin.At)
	}
	if end.Forced {
		t.Fatal("regular release must not be forced")
	}
}

func TestRunnerTripleTap(t *testing.T) {
	src := newFakeSource()
	r := NewRunner(Config{DoubleTapThreshold: 200 * time.Millisecond}, src, zerolog.Nop())
	r.Start()
	defer r.Stop()

	for i := 0; i < 3; i++ {
		src.press()
		src.release()
	}

	waitIntent(t, r.Intents(), QuickRepeat)
	waitNoIntent(t, r.Intents(), 500*time.Millisecond)
}

func TestRunnerReopensUnhealthySource(t *testing.T) {
	src := newFakeSource()
	src.setHealthy(false)
	r := NewRunner(Config{
		DoubleTapThreshold: 200 * time.Millisecond,
		HealthInterval:     20 * time.Millisecond,
	}, src, zerolog.Nop())
	r.Start()
	defer r.Stop()

	deadline := time.Now().Add(3 * time.Second)
	for src.reopenCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("runner never reopened the source")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunnerStopIsIdempotent(t *testing.T) {
	src := newFakeSource()
	r := NewRunner(Config{}, src, zerolog.Nop())
	r.Start()
	r.Stop()
	r.Stop()
}
