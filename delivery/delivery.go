// Package delivery places finalized text at the user's cursor.
//
// The system clipboard is borrowed, never taken: the stage snapshots
// whatever is on it, writes the transcript, synthesizes a paste chord
// into the focused application, then puts the original contents back.
// When input injection is not permitted the text stays on the clipboard
// for a manual paste and the delivery still counts as a partial success.
package delivery

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Clipboard is the byte-level view of the system clipboard, one payload
// per data type. The atotto backend carries a single text/plain entry;
// the fake carries arbitrary types so restore can be checked exactly.
type Clipboard interface {
	Snapshot() (map[string][]byte, error)
	WriteText(text string) error
	Restore(snap map[string][]byte) error
}

// Injector synthesizes the platform paste chord in the focused
// application.
type Injector interface {
	// Available reports nil when the OS grants input injection.
	Available() error
	Paste() error
}

// Options select the post-processing and delivery mode for one
// transcript. The orchestrator assembles them from the active profile.
type Options struct {
	// ClipboardOnly copies without pasting; the clipboard is not
	// restored, since the copy is the delivery.
	ClipboardOnly bool
	// Punctuate capitalizes the first letter and closes the text with a
	// period when terminal punctuation is missing.
	Punctuate bool
	// Bullets reflows multi-sentence text into a dashed list.
	Bullets bool
}

// Outcome reports how far a delivery got.
type Outcome struct {
	Text     string // text as written to the clipboard
	Pasted   bool
	Restored bool
	// PermissionMissing means the paste was skipped because input
	// injection is not granted. The text stays on the clipboard.
	PermissionMissing bool
}

const (
	// DefaultSettleDelay lets the clipboard write propagate before the
	// paste chord fires; clipboard owners react asynchronously.
	DefaultSettleDelay = 150 * time.Millisecond
	// DefaultRestoreDelay keeps the transcript on the clipboard long
	// enough for the focused application to service the paste.
	DefaultRestoreDelay = 600 * time.Millisecond
)

type Config struct {
	SettleDelay  time.Duration
	RestoreDelay time.Duration
}

// Stage owns the snapshot-write-paste-restore cycle. Deliveries are
// serialized; the clipboard is a machine-global resource and
// interleaved snapshots would restore each other's garbage.
type Stage struct {
	clip    Clipboard
	inj     Injector
	settle  time.Duration
	restore time.Duration
	log     zerolog.Logger

	mu sync.Mutex
}

func NewStage(clip Clipboard, inj Injector, cfg Config, log zerolog.Logger) *Stage {
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.RestoreDelay == 0 {
		cfg.RestoreDelay = DefaultRestoreDelay
	}
	return &Stage{
		clip:    clip,
		inj:     inj,
		settle:  cfg.SettleDelay,
		restore: cfg.RestoreDelay,
		log:     log,
	}
}

// Deliver runs one full delivery. It blocks through the settle and
// restore delays, so callers run it off the intent loop.
func (s *Stage) Deliver(text string, opts Options) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Outcome{Text: Format(text, opts)}

	var snap map[string][]byte
	if !opts.ClipboardOnly {
		var err error
		snap, err = s.clip.Snapshot()
		if err != nil {
			// Deliver anyway; losing the old clipboard is better than
			// losing the dictation.
			s.log.Warn().Err(err).Msg("clipboard snapshot failed")
			snap = nil
		}
	}

	if err := s.clip.WriteText(out.Text); err != nil {
		return out, fmt.Errorf("writing clipboard: %w", err)
	}

	if opts.ClipboardOnly {
		s.log.Debug().Int("chars", len(out.Text)).Msg("delivered to clipboard")
		return out, nil
	}

	if err := s.inj.Available(); err != nil {
		out.PermissionMissing = true
		s.log.Warn().Err(err).Msg("paste skipped, text left on clipboard")
		return out, nil
	}

	time.Sleep(s.settle)
	if err := s.inj.Paste(); err != nil {
		// Leave the text on the clipboard so the user can paste by
		// hand; restoring now would destroy it.
		return out, fmt.Errorf("synthesizing paste: %w", err)
	}
	out.Pasted = true

	time.Sleep(s.restore)
	if err := s.clip.Restore(snap); err != nil {
		return out, fmt.Errorf("restoring clipboard: %w", err)
	}
	out.Restored = true

	s.log.Debug().Int("chars", len(out.Text)).Msg("delivered and pasted")
	return out, nil
}
