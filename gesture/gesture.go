// Package gesture turns modifier-key transitions into recording intents.
//
// A double tap followed by a hold begins a capture session that ends on
// release. A triple tap requests a repeat of the last result and never
// opens a session. The core is pure and driven by explicit timestamps so
// tests can replay exact tap sequences.
package gesture

import (
	"time"
)

type Kind int

const (
	None Kind = iota
	BeginCapture
	EndCapture
	QuickRepeat
)

func (k Kind) String() string {
	switch k {
	case BeginCapture:
		return "begin_capture"
	case EndCapture:
		return "end_capture"
	case QuickRepeat:
		return "quick_repeat"
	default:
		return "none"
	}
}

// Intent is a recognized gesture. At is the press or release that decided
// it, not the wall-clock moment it was emitted: a BeginCapture may surface
// slightly after its second tap, once a third tap can no longer arrive.
type Intent struct {
	Kind   Kind
	At     time.Time
	Forced bool // EndCapture synthesized by the ceiling or a lost source
}

type Config struct {
	// DoubleTapThreshold is the window two taps must share. Values are
	// clamped to [200ms, 500ms].
	DoubleTapThreshold time.Duration
	// HoldCeiling force-closes a session that somehow never saw its
	// release.
	HoldCeiling time.Duration
	// HealthInterval is how often the runner checks the event source and
	// the ceiling.
	HealthInterval time.Duration
}

const (
	DefaultDoubleTapThreshold = 300 * time.Millisecond
	MinDoubleTapThreshold     = 200 * time.Millisecond
	MaxDoubleTapThreshold     = 500 * time.Millisecond
	DefaultHoldCeiling        = 300 * time.Second
	DefaultHealthInterval     = 5 * time.Second
)

func (c Config) withDefaults() Config {
	if c.DoubleTapThreshold == 0 {
		c.DoubleTapThreshold = DefaultDoubleTapThreshold
	}
	if c.DoubleTapThreshold < MinDoubleTapThreshold {
		c.DoubleTapThreshold = MinDoubleTapThreshold
	}
	if c.DoubleTapThreshold > MaxDoubleTapThreshold {
		c.DoubleTapThreshold = MaxDoubleTapThreshold
	}
	if c.HoldCeiling == 0 {
		c.HoldCeiling = DefaultHoldCeiling
	}
	if c.HealthInterval == 0 {
		c.HealthInterval = DefaultHealthInterval
	}
	return c
}

type state int

const (
	stIdle state = iota
	stHolding
)

// Machine is the tap/hold core. Not safe for concurrent use; the Runner
// owns one and serializes all calls.
type Machine struct {
	cfg   Config
	st    state
	taps  []time.Time
	since time.Time // session start while holding

	// A recognized pair is held back until pendingAt, the last instant a
	// third tap could still turn it into a QuickRepeat.
	pendingPair bool
	pairAt      time.Time // second tap of the pair
	pendingAt   time.Time
	released    bool // key came back up while the pair was pending
	releasedAt  time.Time
}

func NewMachine(cfg Config) *Machine {
	return &Machine{cfg: cfg.withDefaults()}
}

func (m *Machine) Holding() bool { return m.st == stHolding }

// Deadline reports when Tick must next run to resolve a held-back pair.
func (m *Machine) Deadline() (time.Time, bool) {
	return m.pendingAt, m.pendingPair
}

// Press handles a rising edge of the trigger modifier.
func (m *Machine) Press(at time.Time) []Intent {
	if m.st == stHolding {
		// Key repeat from the OS while the session runs.
		return nil
	}
	m.taps = append(m.taps, at)
	m.prune(at)

	recent := 0
	for _, t := range m.taps {
		if at.Sub(t) <= m.cfg.DoubleTapThreshold {
			recent++
		}
	}

	switch {
	case recent >= 3:
		m.clearTaps()
		return []Intent{{Kind: QuickRepeat, At: at}}
	case recent == 2:
		// Third-tap window closes one threshold after the tap that
		// opened the pair.
		first := m.taps[len(m.taps)-2]
		m.pendingPair = true
		m.pairAt = at
		m.pendingAt = first.Add(m.cfg.DoubleTapThreshold)
		m.released = false
		if !m.pendingAt.After(at) {
			return m.resolvePending(at)
		}
	}
	return nil
}

// Release handles a falling edge of the trigger modifier.
func (m *Machine) Release(at time.Time) []Intent {
	if m.st == stHolding {
		m.st = stIdle
		m.pendingPair = false
		return []Intent{{Kind: EndCapture, At: at}}
	}
	if m.pendingPair {
		m.released = true
		m.releasedAt = at
	}
	return nil
}

// Tick resolves held-back pairs, prunes stale taps and enforces the hold
// ceiling. The runner calls it on pending deadlines and health intervals.
func (m *Machine) Tick(now time.Time) []Intent {
	m.prune(now)
	if m.st == stHolding && now.Sub(m.since) > m.cfg.HoldCeiling {
		m.st = stIdle
		m.clearTaps()
		return []Intent{{Kind: EndCapture, At: now, Forced: true}}
	}
	if m.pendingPair && !now.Before(m.pendingAt) {
		return m.resolvePending(now)
	}
	return nil
}

// SourceLost clears in-flight state after the event source was disabled.
// An open session is closed so downstream never sees a stuck recording.
func (m *Machine) SourceLost(now time.Time) []Intent {
	m.clearTaps()
	if m.st == stHolding {
		m.st = stIdle
		return []Intent{{Kind: EndCapture, At: now, Forced: true}}
	}
	return nil
}

func (m *Machine) resolvePending(now time.Time) []Intent {
	m.pendingPair = false
	m.clearTaps()
	begin := Intent{Kind: BeginCapture, At: m.pairAt}
	if m.released {
		// Double tap without a hold: the session opens and closes in
		// one step and the capture comes back empty downstream.
		return []Intent{begin, {Kind: EndCapture, At: m.releasedAt}}
	}
	m.st = stHolding
	m.since = m.pairAt
	return []Intent{begin}
}

func (m *Machine) prune(now time.Time) {
	cutoff := now.Add(-2 * m.cfg.DoubleTapThreshold)
	i := 0
	for ; i < len(m.taps); i++ {
		if m.taps[i].After(cutoff) {
			break
		}
	}
	if i > 0 {
		m.taps = append(m.taps[:0], m.taps[i:]...)
	}
}

func (m *Machine) clearTaps() {
	m.taps = m.taps[:0]
	m.pendingPair = false
}
