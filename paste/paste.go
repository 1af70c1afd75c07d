// Package paste injects a paste keystroke (or whole keystroke
// sequences) into the focused application.
package paste

import "errors"

// ErrPermissionMissing means the OS will not let us synthesize input.
// Delivery degrades to clipboard-only when it sees this; the user can
// still paste by hand.
var ErrPermissionMissing = errors.New("input injection permission missing")

// ErrTypingUnsupported is returned by Type on platforms without direct
// keystroke synthesis per character.
var ErrTypingUnsupported = errors.New("direct typing not supported on this platform")

// Injector adapts the platform functions to the delivery stage's
// injector interface.
type Injector struct{}

func (Injector) Available() error { return Available() }
func (Injector) Paste() error     { return Send() }
