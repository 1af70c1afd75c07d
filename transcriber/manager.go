// Package transcriber owns the speech engine: loading, serialized
// decoding, idle unloading and transparent reloading.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"murmur/audio"
)

type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateUnloading
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateUnloading:
		return "unloading"
	default:
		return "unloaded"
	}
}

const (
	DefaultIdleTimeout    = 300 * time.Second
	DefaultIdleCheckEvery = 60 * time.Second
)

type Config struct {
	Factory EngineFactory // default NewWhisperEngine
	Options Options
	// IdleTimeout unloads the engine after this much disuse; the check
	// wakes every IdleCheckEvery.
	IdleTimeout    time.Duration
	IdleCheckEvery time.Duration
	// OnState observes transitions for the UI. Called with the manager
	// lock held; must not call back in.
	OnState func(State)
}

// Manager holds at most one live engine and serializes every call into
// it. All exported methods are safe for concurrent use.
type Manager struct {
	factory  EngineFactory
	opts     Options
	idleMax  time.Duration
	idleTick time.Duration
	onState  func(State)
	log      zerolog.Logger

	state atomic.Int32

	mu         sync.Mutex
	engine     Engine
	loadedOnce bool
	lastUsed   time.Time
	idleStop   chan struct{}
}

func NewManager(cfg Config, log zerolog.Logger) *Manager {
	if cfg.Factory == nil {
		cfg.Factory = NewWhisperEngine
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.IdleCheckEvery == 0 {
		cfg.IdleCheckEvery = DefaultIdleCheckEvery
	}
	return &Manager{
		factory:  cfg.Factory,
		opts:     cfg.Options,
		idleMax:  cfg.IdleTimeout,
		idleTick: cfg.IdleCheckEvery,
		onState:  cfg.OnState,
		log:      log,
	}
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

// Load brings the engine up. Redundant calls while loaded are no-ops.
// A failure leaves the manager unloaded and is reported, not fatal.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.engine != nil {
		return nil
	}
	return m.loadLocked()
}

// Unload releases the engine. Safe to call redundantly.
func (m *Manager) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unloadLocked("requested")
}

// Close is Unload for process shutdown.
func (m *Manager) Close() {
	m.Unload()
}

// Transcribe runs one serialized decode over the full buffer. An
// idle-unloaded engine reloads transparently first. Empty input is
// rejected as ErrInvalidAudio without touching the engine.
func (m *Manager) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if len(samples) == 0 {
		return "", ErrInvalidAudio
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.engine == nil {
		if m.opts.ModelPath == "" {
			return "", ErrEngineNotLoaded
		}
		if m.loadedOnce {
			m.log.Info().Msg("engine was idle-unloaded, reloading")
		}
		if err := m.loadLocked(); err != nil {
			return "", err
		}
	}

	m.lastUsed = time.Now()
	start := time.Now()
	text, err := m.engine.Transcribe(ctx, samples)
	m.lastUsed = time.Now()
	if err != nil {
		if errors.Is(err, ErrTranscriptionFailed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	m.log.Debug().
		Dur("took", time.Since(start)).
		Float64("audio_s", float64(len(samples))/audio.SampleRate).
		Msg("transcribed")
	return strings.TrimSpace(text), nil
}

func (m *Manager) loadLocked() error {
	m.setState(StateLoading)
	start := time.Now()
	eng, err := m.factory(m.opts)
	if err != nil {
		m.setState(StateUnloaded)
		if errors.Is(err, ErrEngineLoadFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrEngineLoadFailed, err)
	}
	m.engine = eng
	m.loadedOnce = true
	m.lastUsed = time.Now()
	m.setState(StateLoaded)
	m.log.Info().Dur("took", time.Since(start)).Str("model", m.opts.ModelPath).Msg("engine loaded")

	// Each load gets its own idle watcher; a reload cancels the old one.
	if m.idleStop != nil {
		close(m.idleStop)
	}
	m.idleStop = make(chan struct{})
	go m.idleLoop(m.idleStop)
	return nil
}

func (m *Manager) unloadLocked(reason string) {
	if m.idleStop != nil {
		close(m.idleStop)
		m.idleStop = nil
	}
	if m.engine == nil {
		return
	}
	m.setState(StateUnloading)
	if err := m.engine.Close(); err != nil {
		m.log.Warn().Err(err).Msg("engine close failed")
	}
	m.engine = nil
	m.setState(StateUnloaded)
	m.log.Info().Str("reason", reason).Msg("engine unloaded")
}

// idleLoop frees the model's memory after a stretch of disuse. Holding
// the manager lock for the check means it can never unload mid-decode.
func (m *Manager) idleLoop(stop chan struct{}) {
	t := time.NewTicker(m.idleTick)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			m.mu.Lock()
			if m.engine == nil {
				m.mu.Unlock()
				return
			}
			if time.Since(m.lastUsed) > m.idleMax {
				m.unloadLocked("idle")
				m.mu.Unlock()
				return
			}
			m.mu.Unlock()
		}
	}
}

func (m *Manager) setState(s State) {
	m.state.Store(int32(s))
	if m.onState != nil {
		m.onState(s)
	}
}
