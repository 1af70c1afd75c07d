package hotkey

import (
	"errors"
	"sync"
)

// FakeHotkey simulates trigger-key events for tests and for the stdin
// test harness.
type FakeHotkey struct {
	keydown chan struct{}
	keyup   chan struct{}

	mu       sync.Mutex
	healthy  bool
	reopened int
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{
		keydown: make(chan struct{}, 8),
		keyup:   make(chan struct{}, 8),
		healthy: true,
	}
}

func (f *FakeHotkey) Register() error          { return nil }
func (f *FakeHotkey) Unregister()              {}
func (f *FakeHotkey) Keydown() <-chan struct{} { return f.keydown }
func (f *FakeHotkey) Keyup() <-chan struct{}   { return f.keyup }

func (f *FakeHotkey) Healthy() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.healthy {
		return errors.New("fake source disabled")
	}
	return nil
}

func (f *FakeHotkey) Reopen() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reopened++
	f.healthy = true
	return nil
}

func (f *FakeHotkey) SetHealthy(v bool) {
	f.mu.Lock()
	f.healthy = v
	f.mu.Unlock()
}

func (f *FakeHotkey) ReopenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reopened
}

func (f *FakeHotkey) SimKeydown() { f.keydown <- struct{}{} }
func (f *FakeHotkey) SimKeyup()   { f.keyup <- struct{}{} }

// SimTap is one full press and release.
func (f *FakeHotkey) SimTap() {
	f.SimKeydown()
	f.SimKeyup()
}
