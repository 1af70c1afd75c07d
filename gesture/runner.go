package gesture

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Source is the stream of trigger-key transitions the runner consumes.
// murmur/hotkey implementations satisfy it.
type Source interface {
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
	Healthy() error
	Reopen() error
}

// Runner owns a Machine on a single goroutine, so state transitions are
// serialized without locks. Intents come out in order on one channel.
type Runner struct {
	cfg     Config
	src     Source
	log     zerolog.Logger
	intents chan Intent
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once

	now func() time.Time
}

func NewRunner(cfg Config, src Source, log zerolog.Logger) *Runner {
	return &Runner{
		cfg:     cfg.withDefaults(),
		src:     src,
		log:     log,
		intents: make(chan Intent, 8),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

func (r *Runner) Intents() <-chan Intent { return r.intents }

func (r *Runner) Start() {
	go r.loop()
}

// Stop halts the runner and waits for the loop to exit. Safe to call
// more than once.
func (r *Runner) Stop() {
	r.once.Do(func() { close(r.stop) })
	<-r.done
}

func (r *Runner) loop() {
	defer close(r.done)

	m := NewMachine(r.cfg)
	health := time.NewTicker(r.cfg.HealthInterval)
	defer health.Stop()

	// Fires when a held-back tap pair must be resolved.
	pending := time.NewTimer(time.Hour)
	pending.Stop()
	defer pending.Stop()

	for {
		now := r.now()
		if dl, ok := m.Deadline(); ok {
			if !now.Before(dl) {
				if !r.emit(m.Tick(now)) {
					return
				}
				continue
			}
			pending.Reset(dl.Sub(now))
		} else {
			pending.Stop()
		}

		select {
		case <-r.src.Keydown():
			if !r.emit(m.Press(r.now())) {
				return
			}
		case <-r.src.Keyup():
			if !r.emit(m.Release(r.now())) {
				return
			}
		case <-pending.C:
			if !r.emit(m.Tick(r.now())) {
				return
			}
		case <-health.C:
			now := r.now()
			if !r.emit(m.Tick(now)) {
				return
			}
			if err := r.src.Healthy(); err != nil {
				r.log.Warn().Err(err).Msg("tap source unhealthy, reopening")
				if !r.emit(m.SourceLost(now)) {
					return
				}
				if err := r.src.Reopen(); err != nil {
					r.log.Error().Err(err).Msg("tap source reopen failed")
				} else {
					r.log.Info().Msg("tap source re-enabled")
				}
			}
		case <-r.stop:
			return
		}
	}
}

// emit forwards intents in order. The send blocks so a slow consumer
// backpressures the runner instead of losing an EndCapture.
func (r *Runner) emit(ints []Intent) bool {
	for _, it := range ints {
		if it.Kind == None {
			continue
		}
		select {
		case r.intents <- it:
		case <-r.stop:
			return false
		}
	}
	return true
}
