//go:build linux

package hotkey

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

const (
	evKey      = 1
	keyPress   = 1
	keyRelease = 0

	keyLCtrl  = 29
	keyLShift = 42
	keyLAlt   = 56
	keyRShift = 54
	keyRCtrl  = 97
	keyRAlt   = 100
	keyLMeta  = 125
	keyRMeta  = 126
)

var modifierCodes = map[Modifier]uint16{
	ModLeftAlt:    keyLAlt,
	ModRightAlt:   keyRAlt,
	ModLeftCtrl:   keyLCtrl,
	ModRightCtrl:  keyRCtrl,
	ModLeftSuper:  keyLMeta,
	ModRightSuper: keyRMeta,
}

// Every modifier we track for combination rejection, not just the trigger.
var allModifiers = []uint16{
	keyLCtrl, keyRCtrl, keyLShift, keyRShift,
	keyLAlt, keyRAlt, keyLMeta, keyRMeta,
}

const inputEventSize = 24

type linuxHotkey struct {
	trigger uint16
	keydown chan struct{}
	keyup   chan struct{}
	stop    chan struct{}
	once    sync.Once
	readers atomic.Int32

	mu       sync.Mutex
	files    []*os.File
	held     map[uint16]bool
	trigDown bool
}

func New(trigger Modifier) Hotkey {
	code, ok := modifierCodes[trigger]
	if !ok {
		code = modifierCodes[DefaultModifier]
	}
	return &linuxHotkey{
		trigger: code,
		keydown: make(chan struct{}, 8),
		keyup:   make(chan struct{}, 8),
		held:    map[uint16]bool{},
	}
}

func (h *linuxHotkey) Register() error {
	h.stop = make(chan struct{})
	return h.open()
}

func (h *linuxHotkey) open() error {
	keyboards, err := findKeyboards()
	if err != nil {
		return fmt.Errorf("finding keyboards: %w", err)
	}
	if len(keyboards) == 0 {
		return fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		h.files = append(h.files, f)
		h.readers.Add(1)
		go h.readEvents(f)
	}

	if len(h.files) == 0 {
		return fmt.Errorf("could not open any keyboard device (run: sudo usermod -aG input $USER, then re-login)")
	}
	return nil
}

func (h *linuxHotkey) readEvents(f *os.File) {
	defer h.readers.Add(-1)
	buf := make([]byte, inputEventSize*16)

	for {
		select {
		case <-h.stop:
			return
		default:
		}

		n, err := f.Read(buf)
		if err != nil {
			return
		}

		for i := 0; i+inputEventSize <= n; i += inputEventSize {
			evType := binary.LittleEndian.Uint16(buf[i+16:])
			evCode := binary.LittleEndian.Uint16(buf[i+18:])
			evValue := int32(binary.LittleEndian.Uint32(buf[i+20:]))

			if evType != evKey {
				continue
			}
			// evValue 2 is key repeat; held state is unchanged.
			if evValue != keyPress && evValue != keyRelease {
				continue
			}
			h.handleKey(evCode, evValue == keyPress)
		}
	}
}

// handleKey tracks held modifiers across all keyboards and forwards
// trigger transitions. A rising edge is suppressed when any other
// modifier is down at that instant, so chorded shortcuts never register
// as taps. Falling edges always pass; suppressing one could leave a
// session open forever.
func (h *linuxHotkey) handleKey(code uint16, pressed bool) {
	h.mu.Lock()
	if code == h.trigger {
		if pressed {
			if h.trigDown {
				h.mu.Unlock()
				return
			}
			h.trigDown = true
			clean := !h.otherModifierHeld()
			h.held[code] = true
			h.mu.Unlock()
			if clean {
				select {
				case h.keydown <- struct{}{}:
				default:
				}
			}
			return
		}
		wasDown := h.trigDown
		h.trigDown = false
		h.held[code] = false
		h.mu.Unlock()
		if wasDown {
			select {
			case h.keyup <- struct{}{}:
			default:
			}
		}
		return
	}

	for _, m := range allModifiers {
		if code == m {
			h.held[code] = pressed
			break
		}
	}
	h.mu.Unlock()
}

func (h *linuxHotkey) otherModifierHeld() bool {
	for _, m := range allModifiers {
		if m != h.trigger && h.held[m] {
			return true
		}
	}
	return false
}

func (h *linuxHotkey) Unregister() {
	h.once.Do(func() {
		if h.stop != nil {
			close(h.stop)
		}
		h.closeFiles()
	})
}

// Healthy fails once every reader goroutine has exited, which happens
// when the kernel revokes the devices (suspend, permission change,
// keyboard unplug).
func (h *linuxHotkey) Healthy() error {
	if h.readers.Load() == 0 {
		return fmt.Errorf("no live keyboard readers")
	}
	return nil
}

// Reopen rescans /dev/input and restarts readers. Existing readers exit
// through their closed files.
func (h *linuxHotkey) Reopen() error {
	h.closeFiles()
	return h.open()
}

func (h *linuxHotkey) closeFiles() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, f := range h.files {
		f.Close()
	}
	h.files = nil
	h.trigDown = false
	for k := range h.held {
		delete(h.held, k)
	}
}

func (h *linuxHotkey) Keydown() <-chan struct{} {
	return h.keydown
}

func (h *linuxHotkey) Keyup() <-chan struct{} {
	return h.keyup
}

func findKeyboards() ([]string, error) {
	entries, err := os.ReadDir("/dev/input")
	if err != nil {
		return nil, err
	}

	var keyboards []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "event") {
			continue
		}
		path := filepath.Join("/dev/input", e.Name())
		if isKeyboard(e.Name()) {
			keyboards = append(keyboards, path)
		}
	}
	return keyboards, nil
}

func isKeyboard(eventName string) bool {
	capsPath := filepath.Join("/sys/class/input", eventName, "device", "capabilities", "key")
	data, err := os.ReadFile(capsPath)
	if err != nil {
		return false
	}
	caps := strings.TrimSpace(string(data))
	return len(caps) > 10
}

func Diagnose() (string, error) {
	keyboards, err := findKeyboards()
	if err != nil {
		return "", fmt.Errorf("cannot scan input devices: %w", err)
	}
	if len(keyboards) == 0 {
		return "", fmt.Errorf("no keyboard devices found (is user in 'input' group?)")
	}

	var opened string
	for _, path := range keyboards {
		f, err := os.Open(path)
		if err == nil {
			f.Close()
			opened = path
			break
		}
	}
	if opened == "" {
		return "", fmt.Errorf("found %d keyboard(s) but cannot open any (run: sudo usermod -aG input $USER)", len(keyboards))
	}

	return fmt.Sprintf("%d keyboard(s) found, opened %s", len(keyboards), opened), nil
}
