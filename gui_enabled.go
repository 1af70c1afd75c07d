//go:build gui

package main

import (
	"fmt"
	"os"
	"runtime"

	"murmur/audio"
	"murmur/gui"
)

var guiApp *gui.App

// Opened on the main thread before Fyne claims it. macOS Core Audio
// wants its first context created there; run() adopts it.
var guiAudioCtx audio.Context

func initGUI() {
	guiMode = true

	var err error
	guiAudioCtx, err = audio.NewContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}

	// Fyne/GLFW needs the event loop pinned to the OS thread.
	runtime.LockOSThread()

	guiApp = gui.NewApp(func() {
		run()
	})
	sink = guiApp
	if err := gui.Run(guiApp); err != nil {
		guiAudioCtx.Close()
		panic(err)
	}
}
