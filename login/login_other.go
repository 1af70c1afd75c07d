//go:build !darwin

// Package login registers the binary to start at login. Only macOS
// LaunchAgents are supported; other platforms report that plainly.
package login

import "errors"

var errUnsupported = errors.New("start-at-login is only supported on macOS")

func Enabled() bool { return false }

func Enable() error { return errUnsupported }

func Disable() error { return errUnsupported }
