//go:build !linux

package paste

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

// Init builds the keyboard event binding. On macOS the binding only
// works once the app holds the Accessibility grant; a missing grant
// surfaces as an error from Launching, not here.
func Init() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

// Available reports whether keystrokes can be injected at all.
func Available() error {
	if err := Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionMissing, err)
	}
	return nil
}

// Send is one paste chord: Cmd+V on macOS, Ctrl+V elsewhere.
func Send() error {
	if err := Init(); err != nil {
		return err
	}
	kb.Clear()
	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	return kb.Launching()
}

// Type is unsupported here; the clipboard path covers these platforms.
func Type(string) error {
	return ErrTypingUnsupported
}

// Verify checks that the binding initializes; actual key delivery can
// only be confirmed by the user watching their editor.
func Verify() (string, error) {
	if err := Init(); err != nil {
		return "", err
	}
	if runtime.GOOS == "darwin" {
		return "keyboard event binding OK (Cmd+V)", nil
	}
	return "keyboard event binding OK (Ctrl+V)", nil
}
