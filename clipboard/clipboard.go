// Package clipboard wraps the system clipboard for borrow-and-restore
// delivery. The atotto backend is text-only, so snapshots carry a
// single text/plain payload; anything richer on the clipboard is out of
// reach and cannot be preserved.
package clipboard

import cb "github.com/atotto/clipboard"

// TextType is the sole payload type this backend can carry.
const TextType = "text/plain"

// System is the real clipboard behind the delivery stage's Clipboard
// interface.
type System struct{}

// Snapshot captures the current contents. An unreadable clipboard
// (empty selection owners on X11 report an error) snapshots as empty,
// which restores as a no-op instead of planting garbage.
func (System) Snapshot() (map[string][]byte, error) {
	text, err := cb.ReadAll()
	if err != nil {
		return map[string][]byte{}, nil
	}
	return map[string][]byte{TextType: []byte(text)}, nil
}

func (System) WriteText(text string) error {
	return cb.WriteAll(text)
}

// Restore puts a snapshot back. Snapshots without a text payload leave
// the clipboard alone.
func (System) Restore(snap map[string][]byte) error {
	data, ok := snap[TextType]
	if !ok {
		return nil
	}
	return cb.WriteAll(string(data))
}

func Read() (string, error) {
	return cb.ReadAll()
}

func Write(text string) error {
	return cb.WriteAll(text)
}
