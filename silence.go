package main

import "time"

const (
	tickInterval     = 100 * time.Millisecond
	silenceWarnEvery = 8 * time.Second
	speechMinRatio   = 0.10
	speechClearRatio = 0.25 // higher threshold to clear warning (hysteresis)
)

type SilenceEvent int

const (
	SilenceNone      SilenceEvent = iota
	SilenceWarn                   // no voice detected
	SilenceWarnClear              // speech resumed after warning
	SilenceRepeat                 // warning still standing (every 8s)
)

// silenceMonitor watches per-tick speech flags and raises a warning
// when a whole warn window passes without voice. The warning is
// advisory; the session keeps recording until the user releases the
// trigger or the hold ceiling fires.
type silenceMonitor struct {
	warnAt int // ticks per warn window

	window      []bool
	speechTicks int // speech count across the live window
	ticks       int
	warned      bool
	lastWarning int
}

func newSilenceMonitor() *silenceMonitor {
	warnAt := int(silenceWarnEvery / tickInterval)
	return &silenceMonitor{
		warnAt: warnAt,
		window: make([]bool, warnAt),
	}
}

// speechRatio is the fraction of recent ticks carrying voice. Before a
// full window has elapsed it is computed over what exists, and an empty
// history counts as all-speech so a fresh session never warns.
func (m *silenceMonitor) speechRatio() float64 {
	n := min(m.ticks, m.warnAt)
	if n == 0 {
		return 1.0
	}
	return float64(m.speechTicks) / float64(n)
}

func (m *silenceMonitor) Tick(hasSpeech bool) SilenceEvent {
	slot := m.ticks % m.warnAt
	if m.ticks >= m.warnAt && m.window[slot] {
		m.speechTicks--
	}
	m.window[slot] = hasSpeech
	if hasSpeech {
		m.speechTicks++
	}
	m.ticks++

	r := m.speechRatio()
	switch {
	case !m.warned && m.ticks >= m.warnAt && r < speechMinRatio:
		m.warned = true
		m.lastWarning = m.ticks
		return SilenceWarn
	case m.warned && r >= speechClearRatio:
		m.warned = false
		return SilenceWarnClear
	case m.warned && m.ticks-m.lastWarning >= m.warnAt:
		m.lastWarning = m.ticks
		return SilenceRepeat
	}
	return SilenceNone
}
