package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"murmur/audio"
	"murmur/capture"
	"murmur/clipboard"
	"murmur/config"
	"murmur/delivery"
	"murmur/doctor"
	"murmur/encoder"
	"murmur/gesture"
	"murmur/history"
	"murmur/hotkey"
	"murmur/log"
	"murmur/login"
	"murmur/paste"
	"murmur/shutdown"
	"murmur/transcriber"
	"murmur/update"
)

var version = "dev"

var guiMode bool

// sink receives pipeline events; swapped for the TUI forwarder (or the
// GUI's) before the intent loop starts.
var sink EventSink = nopSink{}

var settingsMu sync.Mutex
var settings config.Settings

var recorder *capture.Recorder
var engine *transcriber.Manager
var stage *delivery.Stage
var store *history.Store // nil when the history db could not open

var trigger hotkey.Modifier
var saveAudio bool

var lastMu sync.Mutex
var lastText string

// sessionDone pulses when a session fully resolves (delivered, empty or
// failed); the stdin test harness waits on it.
var sessionDone = make(chan struct{}, 1)

var shutdownOnce sync.Once

func gracefulShutdown() {
	shutdownOnce.Do(func() {
		if recorder != nil {
			recorder.Disarm()
			recorder.Close()
		}
		if engine != nil {
			engine.Close()
		}
		if store != nil {
			store.Close()
		}
		log.Info("shutdown")
		log.Close()
		if tuiProgram != nil {
			tuiProgram.Quit()
		}
		os.Exit(0)
	})
}

func currentSettings() config.Settings {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	return settings
}

func applySettings(s config.Settings) {
	settingsMu.Lock()
	settings = s
	settingsMu.Unlock()
}

func setLastText(text string) {
	lastMu.Lock()
	lastText = text
	lastMu.Unlock()
}

func getLastText() string {
	lastMu.Lock()
	defer lastMu.Unlock()
	return lastText
}

func signalSessionDone() {
	select {
	case sessionDone <- struct{}{}:
	default:
	}
}

// loads measures model load time across the Loading->Loaded transition
// so session metrics can report it. OnState runs under the manager
// lock, so observe must not call back into the engine.
var loads loadTimer

type loadTimer struct {
	mu      sync.Mutex
	started time.Time
	lastMs  float64
}

func (t *loadTimer) observe(st transcriber.State) {
	t.mu.Lock()
	switch st {
	case transcriber.StateLoading:
		t.started = time.Now()
	case transcriber.StateLoaded:
		if !t.started.IsZero() {
			t.lastMs = float64(time.Since(t.started).Milliseconds())
			t.started = time.Time{}
		}
	}
	t.mu.Unlock()
}

// takeMs returns the most recent load duration and zeroes it, so only
// the session that triggered the load reports it.
func (t *loadTimer) takeMs() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	ms := t.lastMs
	t.lastMs = 0
	return ms
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT: lower quality)"
		}
	}
	return "mic: " + name + suffix
}

func triggerHelp() string {
	name := string(trigger)
	if runtime.GOOS != "linux" {
		name = "ctrl+shift+space"
	}
	return fmt.Sprintf("double-tap %s and hold to dictate, triple-tap to repeat", name)
}

func runUpdate() {
	if version == "dev" {
		fmt.Println("Dev build: cannot check for updates.")
		os.Exit(0)
	}
	fmt.Printf("murmur %s: checking for updates...\n", version)
	checker := update.NewChecker()
	rel, err := checker.Latest(version)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if rel == nil {
		fmt.Println("Already up to date.")
		os.Exit(0)
	}
	fmt.Printf("Update available: %s -> %s\n", version, rel.Tag)
	fmt.Print("Continue? [y/N] ")
	var answer string
	fmt.Scanln(&answer)
	if answer != "y" && answer != "Y" {
		fmt.Println("Aborted.")
		os.Exit(0)
	}
	fmt.Printf("Downloading %s...\n", rel.Tag)
	err = checker.Install(rel, func(done, total int64) {
		fmt.Fprintf(os.Stderr, "\r  %d%% (%d / %d KB)", done*100/total, done/1024, total/1024)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated to %s\n", rel.Tag)
	os.Exit(0)
}

func runLogin(args []string) {
	if len(args) == 0 {
		state := "off"
		if login.Enabled() {
			state = "on"
		}
		fmt.Printf("start at login: %s\n", state)
		fmt.Println("Usage: murmur login on|off")
		return
	}
	switch args[0] {
	case "on":
		if err := login.Enable(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("murmur will start at login.")
	case "off":
		if err := login.Disable(); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("murmur will not start at login.")
	default:
		fmt.Println("Usage: murmur login on|off")
		os.Exit(1)
	}
}

func runHistory(n int) {
	path, err := history.DefaultPath()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	s, err := history.Open(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	entries, err := s.Recent(context.Background(), n)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("No transcripts yet.")
		return
	}
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		app := e.App
		if app == "" {
			app = "-"
		}
		fmt.Printf("%s  %-16s  %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), app, e.Text)
	}
}

func run() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "update":
			runUpdate()
			return
		case "login":
			runLogin(os.Args[2:])
			return
		}
	}

	setupFlag := flag.Bool("setup", false, "Select microphone device and save the choice to the config")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	modelFlag := flag.String("model", "", "Path to ggml speech model file")
	langFlag := flag.String("lang", "", "Language hint for transcription (e.g., en, de). Empty = auto-detect")
	modifierFlag := flag.String("modifier", "", "Trigger key: left-alt, right-alt, left-ctrl, right-ctrl, left-super, right-super")
	thresholdFlag := flag.Float64("threshold", 0, "Double-tap window in seconds (clamped to 0.2..0.5)")
	clipboardOnlyFlag := flag.Bool("clipboard-only", false, "Copy transcripts without pasting or restoring the clipboard")
	punctuateFlag := flag.Bool("punctuate", true, "Capitalize and terminate transcripts")
	bulletsFlag := flag.Bool("bullets", false, "Reflow multi-sentence transcripts into a dashed list")
	historyFlag := flag.Int("history", 0, "Print the N most recent transcripts and exit")
	configFlag := flag.String("config", "", "Config file path (default: OS config dir)")
	saveAudioFlag := flag.Bool("save-audio", false, "Archive each session as FLAC under the log directory")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	// -gui is consumed by main() before run(); declared so Parse accepts it.
	flag.Bool("gui", false, "Run with graphical level window (requires a -tags gui build)")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("murmur %s\n", version)
		os.Exit(0)
	}

	// Settings resolve in order: defaults, .env, config file, real
	// environment. Flags the user actually passed win over all of it,
	// including later hot reloads.
	_ = godotenv.Load()

	cfgPath := *configFlag
	if cfgPath == "" {
		if cfgPath, err = config.DefaultPath(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: no config dir: %v\n", err)
			cfgPath = ""
		}
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}
	applyFlags := func(s *config.Settings) {
		flag.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "device":
				s.Device = *deviceFlag
			case "model":
				s.ModelPath = *modelFlag
			case "lang":
				s.Language = *langFlag
			case "modifier":
				s.TriggerModifier = *modifierFlag
			case "threshold":
				s.DoubleTapThreshold = *thresholdFlag
			case "clipboard-only":
				s.ClipboardOnly = *clipboardOnlyFlag
			case "punctuate":
				s.Punctuate = *punctuateFlag
			case "bullets":
				s.Bullets = *bulletsFlag
			}
		})
	}
	applyFlags(&cfg)

	trigger, err = hotkey.ParseModifier(cfg.TriggerModifier)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *historyFlag > 0 {
		runHistory(*historyFlag)
		return
	}

	if *doctorFlag {
		wavFile := ""
		if len(flag.Args()) > 0 {
			wavFile = flag.Args()[0]
		}
		os.Exit(doctor.Run(doctor.Config{
			ModelPath: cfg.ModelPath,
			Language:  cfg.Language,
			Trigger:   trigger,
			WAVFile:   wavFile,
		}))
	}

	saveAudio = *saveAudioFlag

	// Resolve -setup before daemonization so the picker has a terminal.
	if *setupFlag {
		actx, err := audio.NewContext()
		if err != nil {
			fmt.Printf("Error initializing audio: %v\n", err)
			os.Exit(1)
		}
		dev, err := audio.SelectDevice(actx)
		actx.Close()
		if err != nil {
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
		} else if dev != nil {
			cfg.Device = dev.Name
			if cfgPath != "" {
				if err := config.Save(cfgPath, cfg); err != nil {
					fmt.Printf("Warning: could not save config: %v\n", err)
				} else {
					fmt.Printf("Saved device %q to %s\n", dev.Name, cfgPath)
				}
			}
		}
	}

	// Daemonize in non-TUI mode: re-exec in background, return shell prompt
	if !guiMode && !*tuiFlag && !*testFlag && os.Getenv("_MURMUR_BG") == "" {
		exe, _ := os.Executable()
		cmd := exec.Command(exe, os.Args[1:]...)
		cmd.Env = append(os.Environ(), "_MURMUR_BG=1")
		devnull, _ := os.Open(os.DevNull)
		cmd.Stdin, cmd.Stdout, cmd.Stderr = devnull, devnull, devnull
		if err := cmd.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	applySettings(cfg)

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: murmur -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(args[0])
		return
	}

	if cfg.ModelPath == "" {
		fmt.Fprintln(os.Stderr, "Warning: no speech model configured; set model_path in the config or pass -model")
	}

	if !cfg.ClipboardOnly {
		if err := paste.Init(); err != nil {
			fmt.Printf("Warning: paste init failed: %v\n", err)
			if runtime.GOOS == "linux" {
				fmt.Println("Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
			}
		}
	}

	// The -gui path opens the audio context on the main thread before
	// run() starts; Core Audio on macOS wants its first touch there.
	actx := guiAudioCtx
	if actx == nil {
		actx, err = audio.NewContext()
		if err != nil {
			log.Errorf("audio context init error: %v", err)
			fmt.Printf("Error initializing audio context: %v\n", err)
			os.Exit(1)
		}
	}
	defer actx.Close()

	var selectedDevice *audio.DeviceInfo
	if cfg.Device != "" {
		selectedDevice, err = audio.FindDevice(actx, cfg.Device)
		if err != nil {
			log.Warnf("device lookup failed: %v", err)
			fmt.Printf("Warning: %v, falling back to system default\n", err)
		}
	}

	recorder = capture.NewRecorder(actx, selectedDevice, log.Logger())
	defer recorder.Close()

	engine = transcriber.NewManager(transcriber.Config{
		Options: transcriber.Options{ModelPath: cfg.ModelPath, Language: cfg.Language},
		OnState: func(st transcriber.State) {
			loads.observe(st)
			sink.EngineState(st.String())
		},
	}, log.Logger())
	defer engine.Close()

	stage = delivery.NewStage(clipboard.System{}, paste.Injector{}, delivery.Config{}, log.Logger())

	if histPath, err := history.DefaultPath(); err == nil {
		if s, err := history.Open(histPath); err == nil {
			store = s
			defer store.Close()
			if e, err := s.Last(context.Background()); err == nil {
				setLastText(e.Text)
			}
		} else {
			log.Warnf("history store unavailable: %v", err)
		}
	}

	if cfgPath != "" {
		stopWatch, err := config.Watch(cfgPath, log.Logger(), func(next config.Settings) {
			applyFlags(&next)
			prev := currentSettings()
			applySettings(next)
			if next.TriggerModifier != prev.TriggerModifier || next.ModelPath != prev.ModelPath ||
				next.Language != prev.Language || next.Device != prev.Device ||
				next.DoubleTapThreshold != prev.DoubleTapThreshold {
				sink.Notice("config reloaded (trigger, model and device changes apply on restart)")
				return
			}
			sink.Notice("config reloaded")
		})
		if err != nil {
			log.Warnf("config watch unavailable: %v", err)
		} else {
			defer stopWatch()
		}
	}

	hk := hotkey.New(trigger)
	if err := hk.Register(); err != nil {
		log.Errorf("trigger key register error: %v", err)
		fmt.Printf("Error registering trigger key: %v\n", err)
		os.Exit(1)
	}
	defer hk.Unregister()

	runner := gesture.NewRunner(gesture.Config{DoubleTapThreshold: cfg.Threshold()}, hk, log.Logger())
	runner.Start()
	defer runner.Stop()

	// Start TUI. In GUI mode the window is the surface and sink is
	// already the GUI forwarder.
	if guiMode || !*tuiFlag {
		tuiReadyOnce.Do(func() { close(tuiReady) })
	} else {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(triggerHelp())
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown()
		}()

		<-tuiReady
		sink = tuiSink{}
	}

	go func() {
		for lvl := range recorder.Levels() {
			sink.AudioLevel(float64(lvl))
		}
	}()

	sink.EngineState(engine.State().String())
	sink.DeviceLine(deviceLineText(selectedDevice))

	go watchDevices(actx, cfg.Device, selectedDevice)

	update.NewChecker().Watch(version, log.Dir(), func(rel update.Release) {
		log.Info("update available: " + rel.Tag)
		sink.Notice(fmt.Sprintf("murmur %s is available (run `murmur update`)", rel.Tag))
	})

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)
	go func() {
		<-sigChan
		gracefulShutdown()
	}()

	log.Info("murmur started")
	intentLoop(runner.Intents())
}

// intentLoop owns session lifetime. Begin and end run inline so their
// order matches the gesture stream; the decode after end runs in its
// own goroutine so a long transcription never delays the next session.
func intentLoop(intents <-chan gesture.Intent) {
	var current *session
	for it := range intents {
		switch it.Kind {
		case gesture.BeginCapture:
			if current == nil {
				current = beginSession(it.At)
			}
		case gesture.EndCapture:
			if current != nil {
				endSession(current, it)
				current = nil
			}
		case gesture.QuickRepeat:
			go repeatLast()
		}
	}
}

type session struct {
	id          string
	app         string
	modes       config.Modes
	started     time.Time
	cancelLive  context.CancelFunc
	monitorStop chan struct{}
}

func beginSession(at time.Time) *session {
	s := &session{id: uuid.NewString()[:8], started: at}

	if err := recorder.Arm(); err != nil {
		log.Errorf("capture arm failed: %v", err)
		sink.Notice(fmt.Sprintf("Microphone unavailable: %v", err))
		signalSessionDone()
		return nil
	}

	// Bring the engine up while audio accumulates. The decode after
	// release waits on the same lock if the load is still running.
	go func() {
		if err := engine.Load(); err != nil {
			log.Errorf("engine load failed: %v", err)
			sink.Notice("Speech model failed to load, check model_path")
		}
	}()

	s.app = frontApp()
	s.modes = currentSettings().ModesFor(s.app)

	vp, err := newVADProcessor()
	if err != nil {
		log.Warnf("voice detection unavailable: %v", err)
	} else {
		recorder.Observe(vp.Process)
	}

	liveCtx, cancel := context.WithCancel(context.Background())
	s.cancelLive = cancel
	go engine.Live(liveCtx, 0, recorder.Snapshot, sink.Partial)

	s.monitorStop = make(chan struct{})
	go monitorSession(s, vp)

	sink.RecordingStart()
	log.SessionStart(s.id, string(trigger), s.app, s.modes.ClipboardOnly)
	return s
}

// monitorSession drives the elapsed readout and the no-voice warning
// while the key is held.
func monitorSession(s *session, vp *vadProcessor) {
	mon := newSilenceMonitor()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.monitorStop:
			return
		case <-ticker.C:
			sink.RecordingTick(time.Since(s.started).Seconds())
			if vp == nil {
				continue
			}
			switch mon.Tick(vp.HasSpeechTick()) {
			case SilenceWarn:
				log.Info("no_voice_warning")
				sink.NoVoiceWarning(true)
			case SilenceWarnClear:
				sink.NoVoiceWarning(false)
			case SilenceRepeat:
				log.Info("still_silent")
			}
		}
	}
}

func endSession(s *session, it gesture.Intent) {
	close(s.monitorStop)
	s.cancelLive()
	recorder.Observe(nil)
	samples := recorder.Disarm()
	sink.NoVoiceWarning(false)
	sink.RecordingStop()
	if it.Forced {
		log.SessionAborted(s.id, "forced_close")
	}
	go finishSession(s, samples)
}

func finishSession(s *session, samples []float32) {
	defer signalSessionDone()

	audioLen := time.Duration(float64(len(samples)) / audio.SampleRate * float64(time.Second))
	if len(samples) < audio.SampleRate/10 {
		// Double tap without a hold, or the device produced nothing.
		log.SessionAborted(s.id, "no_audio")
		sink.Transcript("(no audio)", "", true)
		return
	}

	if saveAudio {
		go archiveSession(s.id, samples)
	}

	decodeStart := time.Now()
	text, err := engine.Transcribe(context.Background(), samples)
	decodeMs := float64(time.Since(decodeStart).Milliseconds())
	if err != nil {
		log.Errorf("transcription error: %v", err)
		sink.Notice(fmt.Sprintf("Transcription failed: %v", err))
		return
	}
	if text == "" {
		log.SessionAborted(s.id, "no_speech")
		sink.Transcript("(no speech detected)", "", true)
		return
	}

	out, err := stage.Deliver(text, delivery.Options{
		ClipboardOnly: s.modes.ClipboardOnly,
		Punctuate:     s.modes.Punctuate,
		Bullets:       s.modes.Bullets,
	})
	if err != nil {
		log.Errorf("delivery error: %v", err)
		sink.Notice(fmt.Sprintf("Delivery failed: %v", err))
	}
	log.Delivery(s.id, out.Pasted, out.Restored, s.modes.ClipboardOnly, len(out.Text))
	if out.PermissionMissing {
		sink.Notice("Paste not permitted, transcript left on clipboard")
	}

	setLastText(text)
	log.TranscriptionText(out.Text)
	sink.Transcript(out.Text, deliveredBadge(out, err), false)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	log.SessionEnd(s.id, log.SessionMetrics{
		AudioLengthS:  audioLen.Seconds(),
		DecodeTimeMs:  decodeMs,
		LoadTimeMs:    loads.takeMs(),
		Chars:         len(out.Text),
		MemoryAllocMB: float64(mem.Alloc) / (1 << 20),
		MemoryPeakMB:  float64(mem.Sys) / (1 << 20),
	})

	if store != nil {
		if _, err := store.Add(context.Background(), text, s.app, audioLen); err != nil {
			log.Warnf("history add failed: %v", err)
		}
	}
}

// watchDevices polls for hotplug changes (3s, matching how slowly
// humans re-seat a USB mic). The device binds at arm time, so a swap
// takes effect on the next session. Only runs when a device is named;
// the system default follows the OS on its own.
func watchDevices(actx audio.Context, preferred string, current *audio.DeviceInfo) {
	if preferred == "" {
		return
	}
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()
	var lastNames []string
	for range ticker.C {
		devices, err := actx.Devices()
		if err != nil {
			continue
		}
		names := make([]string, len(devices))
		for i := range devices {
			names[i] = devices[i].Name
		}
		if slices.Equal(lastNames, names) {
			continue
		}
		lastNames = names

		if current != nil && !slices.Contains(names, current.Name) {
			log.Info("device_disconnected: " + current.Name)
			current = nil
			recorder.SetDevice(nil)
			sink.DeviceLine(deviceLineText(nil))
			sink.Notice("Microphone disconnected, using system default")
		} else if current == nil && slices.Contains(names, preferred) {
			for i := range devices {
				if devices[i].Name == preferred {
					d := devices[i]
					log.Info("device_reconnected: " + preferred)
					current = &d
					recorder.SetDevice(current)
					sink.DeviceLine(deviceLineText(current))
					sink.Notice("Microphone reconnected: " + preferred)
					break
				}
			}
		}
	}
}

func deliveredBadge(out delivery.Outcome, err error) string {
	switch {
	case err != nil:
		return ""
	case out.Pasted:
		return "pasted"
	default:
		return "copied"
	}
}

// repeatLast re-delivers the last transcript under the modes of the
// currently focused application. The raw text is kept, so a repeat
// into a bullets profile reflows it.
func repeatLast() {
	text := getLastText()
	if text == "" && store != nil {
		if e, err := store.Last(context.Background()); err == nil {
			text = e.Text
		}
	}
	if text == "" {
		sink.Notice("Nothing to repeat yet")
		return
	}

	modes := currentSettings().ModesFor(frontApp())
	out, err := stage.Deliver(text, delivery.Options{
		ClipboardOnly: modes.ClipboardOnly,
		Punctuate:     modes.Punctuate,
		Bullets:       modes.Bullets,
	})
	if err != nil {
		log.Errorf("quick repeat delivery error: %v", err)
		sink.Notice(fmt.Sprintf("Repeat failed: %v", err))
		return
	}
	log.QuickRepeat(len(out.Text))
	sink.Transcript(out.Text, deliveredBadge(out, nil), false)
}

func archiveSession(id string, samples []float32) {
	data, err := encoder.EncodeFLAC(samples)
	if err != nil {
		log.Warnf("session archive failed: %v", err)
		return
	}
	dir := filepath.Join(log.Dir(), "sessions")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Warnf("session archive failed: %v", err)
		return
	}
	name := fmt.Sprintf("%s-%s.flac", time.Now().Format("20060102-150405"), id)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
		log.Warnf("session archive failed: %v", err)
		return
	}
	log.Info("session_archived: " + name)
}
