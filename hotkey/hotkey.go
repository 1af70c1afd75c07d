// Package hotkey delivers trigger-key transitions from the platform input
// layer as keydown/keyup channel events.
package hotkey

import "fmt"

type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
	// Healthy reports whether the source still delivers events; Reopen
	// rebuilds it after the OS tore it down.
	Healthy() error
	Reopen() error
}

// Modifier names the key whose taps drive the gesture machine.
type Modifier string

const (
	ModLeftAlt    Modifier = "left-alt"
	ModRightAlt   Modifier = "right-alt"
	ModLeftCtrl   Modifier = "left-ctrl"
	ModRightCtrl  Modifier = "right-ctrl"
	ModLeftSuper  Modifier = "left-super"
	ModRightSuper Modifier = "right-super"
)

// DefaultModifier is rarely used for typing, so stray taps are unlikely.
const DefaultModifier = ModRightCtrl

func ParseModifier(s string) (Modifier, error) {
	switch Modifier(s) {
	case ModLeftAlt, ModRightAlt, ModLeftCtrl, ModRightCtrl, ModLeftSuper, ModRightSuper:
		return Modifier(s), nil
	case "":
		return DefaultModifier, nil
	}
	return "", fmt.Errorf("unknown trigger modifier %q (want one of left-alt, right-alt, left-ctrl, right-ctrl, left-super, right-super)", s)
}
