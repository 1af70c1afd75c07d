package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog        zerolog.Logger
	diagFile       *os.File
	transcriptFile *os.File
	logMu          sync.Mutex
	logReady       bool
	pid            int
	dir            string
)

// SessionMetrics summarizes one finished dictation session.
type SessionMetrics struct {
	AudioLengthS  float64
	DecodeTimeMs  float64
	LoadTimeMs    float64 // model load triggered by this session, 0 if already resident
	Chars         int
	MemoryAllocMB float64
	MemoryPeakMB  float64
}

// ResolveDir picks the log directory: the -logpath flag wins, then
// MURMUR_LOG_PATH, then the OS default. Relative paths are anchored to
// the working directory.
func ResolveDir(flagPath string) (string, error) {
	for _, p := range []string{flagPath, os.Getenv("MURMUR_LOG_PATH")} {
		if p == "" {
			continue
		}
		if filepath.IsAbs(p) {
			return p, nil
		}
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, p), nil
	}
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func openAppend(name string) (*os.File, error) {
	return os.OpenFile(filepath.Join(dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}
	pid = os.Getpid()

	var err error
	if diagFile, err = openAppend("diagnostics_log.txt"); err != nil {
		return err
	}
	if transcriptFile, err = openAppend("transcript_log.txt"); err != nil {
		diagFile.Close()
		return err
	}

	diagLog = zerolog.New(zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

// Logger hands the diagnostics logger to packages that take one.
// Before Init it is a no-op logger.
func Logger() zerolog.Logger {
	if !logReady {
		return zerolog.Nop()
	}
	return diagLog
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if transcriptFile != nil {
		transcriptFile.Close()
		transcriptFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	Warn(fmt.Sprintf(format, args...))
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	Error(fmt.Sprintf(format, args...))
}

func SessionStart(session, trigger, app string, clipboardOnly bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", session).
		Str("trigger", trigger).
		Str("app", app).
		Bool("clipboard_only", clipboardOnly).
		Msg("session_start")
}

func SessionEnd(session string, m SessionMetrics) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", session).
		Float64("audio_s", m.AudioLengthS).
		Float64("decode_ms", m.DecodeTimeMs).
		Float64("load_ms", m.LoadTimeMs).
		Int("chars", m.Chars).
		Float64("mem_mb", m.MemoryAllocMB).
		Float64("peak_mb", m.MemoryPeakMB).
		Msg("session_end")
}

func SessionAborted(session, reason string) {
	if !logReady {
		return
	}
	diagLog.Warn().
		Str("session", session).
		Str("reason", reason).
		Msg("session_aborted")
}

func Delivery(session string, pasted, restored, clipboardOnly bool, chars int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", session).
		Bool("pasted", pasted).
		Bool("restored", restored).
		Bool("clipboard_only", clipboardOnly).
		Int("chars", chars).
		Msg("delivery")
}

func QuickRepeat(chars int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("chars", chars).
		Msg("quick_repeat")
}

// TranscriptionText appends finished text to the transcript file,
// tab-separated so it greps cleanly.
func TranscriptionText(text string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, text)
	transcriptFile.WriteString(line)
}
