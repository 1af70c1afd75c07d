package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"murmur/audio"
	"murmur/capture"
	"murmur/clipboard"
	"murmur/delivery"
	"murmur/gesture"
	"murmur/hotkey"
	"murmur/log"
	"murmur/paste"
	"murmur/transcriber"
)

// runTestMode drives the full pipeline from stdin commands against a WAV
// file standing in for the microphone. Delivery is forced clipboard-only
// so a test run never pastes into whatever terminal hosts it.
func runTestMode(wavPath string) {
	cfg := currentSettings()
	cfg.ClipboardOnly = true
	for name, p := range cfg.Profiles {
		p.ClipboardOnly = nil
		cfg.Profiles[name] = p
	}
	applySettings(cfg)

	fakeCtx, err := audio.NewFakeContext(wavPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	recorder = capture.NewRecorder(fakeCtx, nil, log.Logger())
	defer recorder.Close()

	engine = transcriber.NewManager(transcriber.Config{
		Options: transcriber.Options{ModelPath: cfg.ModelPath, Language: cfg.Language},
	}, log.Logger())
	defer engine.Close()

	stage = delivery.NewStage(clipboard.System{}, paste.Injector{}, delivery.Config{}, log.Logger())

	hk := hotkey.NewFake()
	runner := gesture.NewRunner(gesture.Config{DoubleTapThreshold: cfg.Threshold()}, hk, log.Logger())
	runner.Start()
	defer runner.Stop()

	// Stdin driver in background -- simulated key edges plus waits
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
			switch cmd {
			case "DOWN":
				hk.SimKeydown()
			case "UP":
				hk.SimKeyup()
			case "TAP":
				hk.SimTap()
			case "APP":
				setFrontAppOverride(arg)
			case "SLEEP":
				if ms, err := strconv.Atoi(arg); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			case "WAIT":
				<-sessionDone
			case "WAIT_AUDIO_DONE":
				<-fakeCtx.AudioDone()
			case "QUIT":
				log.Close()
				os.Exit(0)
			}
		}
		os.Exit(0)
	}()

	intentLoop(runner.Intents())
}
