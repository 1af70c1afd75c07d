//go:build !gui

package main

import "murmur/audio"

// guiAudioCtx stays nil without the gui tag; run() opens its own context.
var guiAudioCtx audio.Context

func initGUI() {
	panic("murmur: built without GUI support (rebuild with -tags gui)")
}
