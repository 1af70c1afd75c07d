package main

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

var frontAppMu sync.Mutex
var frontAppOverride string

// setFrontAppOverride pins the focused-application id. The stdin test
// harness uses it since no real window system is around.
func setFrontAppOverride(id string) {
	frontAppMu.Lock()
	frontAppOverride = id
	frontAppMu.Unlock()
}

// frontApp resolves an identifier for the focused application; it
// selects the delivery profile and is recorded with the transcript.
// Best effort: empty means the global settings apply.
func frontApp() string {
	frontAppMu.Lock()
	override := frontAppOverride
	frontAppMu.Unlock()
	if override != "" {
		return override
	}

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	switch runtime.GOOS {
	case "linux":
		out, err := exec.CommandContext(ctx, "xdotool", "getactivewindow", "getwindowclassname").Output()
		if err != nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(string(out)))
	case "darwin":
		script := `tell application "System Events" to get bundle identifier of first application process whose frontmost is true`
		out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))
	}
	return ""
}
