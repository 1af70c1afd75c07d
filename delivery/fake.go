package delivery

import (
	"maps"
	"sync"
)

// FakeClipboard holds multi-type payloads in memory, so tests can prove
// the snapshot/restore round-trip preserves types the real text-only
// backend cannot carry.
type FakeClipboard struct {
	mu       sync.Mutex
	contents map[string][]byte
	writes   []string
	SnapErr  error
	WriteErr error
}

func NewFakeClipboard() *FakeClipboard {
	return &FakeClipboard{contents: map[string][]byte{}}
}

// Set seeds the clipboard with one payload, replacing nothing else.
func (f *FakeClipboard) Set(typ string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents[typ] = append([]byte(nil), data...)
}

func (f *FakeClipboard) Snapshot() (map[string][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SnapErr != nil {
		return nil, f.SnapErr
	}
	out := make(map[string][]byte, len(f.contents))
	for typ, data := range f.contents {
		out[typ] = append([]byte(nil), data...)
	}
	return out, nil
}

// WriteText replaces the whole clipboard with one text/plain payload,
// the way a real clipboard write drops all other types.
func (f *FakeClipboard) WriteText(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.contents = map[string][]byte{"text/plain": []byte(text)}
	f.writes = append(f.writes, text)
	return nil
}

func (f *FakeClipboard) Restore(snap map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contents = make(map[string][]byte, len(snap))
	for typ, data := range snap {
		f.contents[typ] = append([]byte(nil), data...)
	}
	return nil
}

// Contents returns a copy of the current clipboard state.
func (f *FakeClipboard) Contents() map[string][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string][]byte, len(f.contents))
	maps.Copy(out, f.contents)
	return out
}

// Text returns the current text/plain payload.
func (f *FakeClipboard) Text() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return string(f.contents["text/plain"])
}

// Writes lists every text written, in order.
func (f *FakeClipboard) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

// FakeInjector records paste chords instead of sending them.
type FakeInjector struct {
	mu       sync.Mutex
	pastes   int
	AvailErr error
	PasteErr error
}

func (f *FakeInjector) Available() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.AvailErr
}

func (f *FakeInjector) Paste() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PasteErr != nil {
		return f.PasteErr
	}
	f.pastes++
	return nil
}

func (f *FakeInjector) Pastes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pastes
}
