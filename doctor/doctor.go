// Package doctor runs interactive diagnostics over every stage the
// dictation pipeline depends on: trigger key, microphone, speech
// engine, clipboard and paste injection.
package doctor

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"murmur/audio"
	"murmur/capture"
	"murmur/hotkey"
	"murmur/transcriber"
)

type Config struct {
	ModelPath string
	Language  string
	Trigger   hotkey.Modifier
	// WAVFile replaces the live microphone for the capture and engine
	// checks, for machines without input hardware.
	WAVFile string
}

// Run executes the checks in pipeline order and returns an exit code
// (0=all pass, 1=any fail). Later checks are skipped once one fails.
func Run(cfg Config) int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("murmur doctor - interactive system diagnostics")
	fmt.Println("==============================================")

	allPass := true

	if !checkTrigger(cfg.Trigger) {
		allPass = false
	}
	var samples []float32
	if allPass {
		var ok bool
		if samples, ok = checkCapture(cfg.WAVFile); !ok {
			allPass = false
		}
	}
	if allPass && !checkEngine(cfg, samples) {
		allPass = false
	}
	if allPass && !checkClipboardCopy() {
		allPass = false
	}
	if allPass && !checkPaste() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkTrigger(trigger hotkey.Modifier) bool {
	fmt.Println()
	fmt.Println("[1/5] Trigger key detection")
	fmt.Printf("Tap %s...\n", trigger)

	hk := hotkey.New(trigger)
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register trigger key: %v\n", err)
		if hint, herr := hotkey.Diagnose(); herr == nil && hint != "" {
			fmt.Println("  " + hint)
		}
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: trigger key detected")
		// Wait for keyup so the release doesn't leak into later prompts
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		// The key grab may leave the terminal in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for trigger key")
		return false
	}
}

func checkCapture(wavFile string) ([]float32, bool) {
	fmt.Println()
	fmt.Println("[2/5] Microphone capture")

	if wavFile != "" {
		samples, err := loadWAV(wavFile)
		if err != nil {
			fmt.Printf("  FAIL: %v\n", err)
			return nil, false
		}
		fmt.Printf("  PASS: loaded %.1fs from %s\n", float64(len(samples))/audio.SampleRate, wavFile)
		return samples, true
	}

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return nil, false
	}
	defer ctx.Close()

	rec := capture.NewRecorder(ctx, nil, zerolog.Nop())
	defer rec.Close()

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Press Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	if err := rec.Arm(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return nil, false
	}
	fmt.Print("  Recording")
	for i := 0; i < 6; i++ {
		time.Sleep(500 * time.Millisecond)
		fmt.Print(".")
	}
	fmt.Println(" done")
	samples := rec.Disarm()

	if len(samples) < audio.SampleRate/2 {
		fmt.Printf("  FAIL: captured only %d samples\n", len(samples))
		return nil, false
	}
	var peak float32
	for _, s := range samples {
		if s > peak {
			peak = s
		}
		if -s > peak {
			peak = -s
		}
	}
	if peak < 0.01 {
		fmt.Println("  FAIL: captured audio is flat (muted microphone?)")
		return nil, false
	}
	fmt.Printf("  PASS: %.1fs captured, peak level %.2f\n", float64(len(samples))/audio.SampleRate, peak)
	return samples, true
}

func checkEngine(cfg Config, samples []float32) bool {
	fmt.Println()
	fmt.Println("[3/5] Speech engine")

	if cfg.ModelPath == "" {
		fmt.Println("  FAIL: no model configured (set model_path in the config or pass -model)")
		return false
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		fmt.Printf("  FAIL: model not readable: %v\n", err)
		return false
	}

	start := time.Now()
	eng, err := transcriber.NewWhisperEngine(transcriber.Options{ModelPath: cfg.ModelPath, Language: cfg.Language})
	if err != nil {
		fmt.Printf("  FAIL: engine load: %v\n", err)
		return false
	}
	defer eng.Close()
	fmt.Printf("  Model loaded in %.1fs, transcribing...\n", time.Since(start).Seconds())

	text, err := eng.Transcribe(context.Background(), samples)
	if err != nil {
		fmt.Printf("  FAIL: transcription: %v\n", err)
		return false
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = "(no speech detected)"
	}

	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	// Fresh reader to clear any buffered input
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))

	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func loadWAV(path string) ([]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) <= audio.WAVHeaderSize {
		return nil, fmt.Errorf("%s: too short for a WAV file", path)
	}
	pcm := data[audio.WAVHeaderSize:]
	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768
	}
	return samples, nil
}
