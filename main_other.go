//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// Check for -gui early; run() parses flags much later.
	for _, arg := range os.Args[1:] {
		if arg == "-gui" {
			initGUI() // takes the main thread, calls run() in a goroutine
			return
		}
	}
	mainthread.Init(run)
}
