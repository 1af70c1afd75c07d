//go:build !linux

package hotkey

import (
	"sync"

	"golang.design/x/hotkey"
)

// Bare-modifier taps need raw key events, which golang.design/x/hotkey
// cannot deliver. Off Linux the trigger is the Ctrl+Shift+Space chord
// instead; each chord press and release feeds the same tap machine.
type xHotkey struct {
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
	forward sync.Once
}

func New(trigger Modifier) Hotkey {
	_ = trigger
	return &xHotkey{
		hk:      hotkey.New([]hotkey.Modifier{hotkey.ModCtrl, hotkey.ModShift}, hotkey.KeySpace),
		keydown: make(chan struct{}, 8),
		keyup:   make(chan struct{}, 8),
	}
}

func (h *xHotkey) Register() error {
	if err := h.hk.Register(); err != nil {
		return err
	}
	h.forward.Do(func() {
		go func() {
			for {
				<-h.hk.Keydown()
				select {
				case h.keydown <- struct{}{}:
				default:
				}
			}
		}()
		go func() {
			for {
				<-h.hk.Keyup()
				select {
				case h.keyup <- struct{}{}:
				default:
				}
			}
		}()
	})
	return nil
}

func (h *xHotkey) Unregister() {
	h.hk.Unregister()
}

// The registration either holds or the process never started; there is
// no silent revocation to detect on these platforms.
func (h *xHotkey) Healthy() error { return nil }

func (h *xHotkey) Reopen() error {
	h.hk.Unregister()
	return h.hk.Register()
}

func (h *xHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *xHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func Diagnose() (string, error) {
	return "hotkey support available (Ctrl+Shift+Space)", nil
}
