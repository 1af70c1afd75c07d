package gesture

import (
	"testing"
	"time"
)

var base = time.Unix(0, 0)

func at(ms int) time.Time {
	return base.Add(time.Duration(ms) * time.Millisecond)
}

func wantNone(t *testing.T, ints []Intent) {
	t.Helper()
	if len(ints) != 0 {
		t.Fatalf("expected no intent, got %v", ints)
	}
}

func wantOne(t *testing.T, ints []Intent, kind Kind, ts time.Time) {
	t.Helper()
	if len(ints) != 1 {
		t.Fatalf("expected one %s intent, got %v", kind, ints)
	}
	if ints[0].Kind != kind {
		t.Fatalf("expected %s, got %s", kind, ints[0].Kind)
	}
	if !ints[0].At.Equal(ts) {
		t.Fatalf("expected %s at %v, got %v", kind, ts, ints[0].At)
	}
}

func TestDoubleTapHoldBeginsSession(t *testing.T) {
	m := NewMachine(Config{DoubleTapThreshold: 300 * time.Millisecond})

	wantNone(t, m.Press(at(0)))
	wantNone(t, m.Press(at(100)))

	dl, ok := m.Deadline()
	if !ok || !dl.Equal(at(300)) {
		t.Fatalf("expected pending deadline at 300ms, got %v %v", dl, ok)
	}

	wantOne(t, m.Tick(at(300)), BeginCapture, at(100))
	if !m.Holding() {
		t.Fatal("expected machine to be holding")
	}

	wantOne(t, m.Release(at(2000)), EndCapture, at(2000))
	if m.Holding() {
		t.Fatal("expected machine to be idle after release")
	}
}

func TestTripleTapIsQuickRepeat(t *testing.T) {
	m := NewMachine(Config{DoubleTapThreshold: 300 * time.Millisecond})

	wantNone(t, m.Press(at(0)))
	wantNone(t, m.Press(at(100)))
	wantOne(t, m.Press(at(180)), QuickRepeat, at(180))

	if m.Holding() {
		t.Fatal("quick repeat must not open a session")
	}
	// No BeginCapture may surface later either.
	wantNone(t, m.Tick(at(1000)))
	wantNone(t, m.Release(at(250)))
}

func TestSpacedTapsDoNotPair(t *testing.T) {
	m := NewMachine(Config{DoubleTapThreshold: 300 * time.Millisecond})

	wantNone(t, m.Press(at(0)))
	wantNone(t, m.Release(at(50)))
	wantNone(t, m.Press(at(600)))
	wantNone(t, m.Tick(at(1500)))
	if m.Holding() {
		t.Fatal("spaced taps must not open a session")
	}
}

func TestDoubleTapWithoutHoldOpensAndCloses(t *testing.T) {
	m := NewMachine(Config{DoubleTapThreshold: 300 * time.Millisecond})

	wantNone(t, m.Press(at(0)))
	wantNone(t, m.Press(at(100)))
	wantNone(t, m.Release(at(150)))

	ints := m.Tick(at(300))
	if len(ints) != 2 {
		t.Fatalf("expected begin and end, got %v", ints)
	}
	if ints[0].Kind != BeginCapture || !ints[0].At.Equal(at(100)) {
		t.Fatalf("expected begin at 100ms, got %v", ints[0])
	}
	if ints[1].Kind != EndCapture || !ints[1].At.Equal(at(150)) {
		t.Fatalf("expected end at 150ms, got %v", ints[1])
	}
	if m.Holding() {
		t.Fatal("expected machine to be idle")
	}
}

func TestFourRapidTapsYieldOneQuickRepeat(t *testing.T) {
	m := NewMachine(Config{DoubleTapThreshold: 300 * time.Millisecond})

	wantNone(t, m.Press(at(0)))
	wantNone(t, m.Press(at(80)))
	wantOne(t, m.Press(at(160)), QuickRepeat, at(160))
	wantNone(t, m.Press(at(240)))
	wantNone(t, m.Tick(at(1000)))
	if m.Holding() {
		t.Fatal("expected no session")
	}
}

func TestPressWhileHoldingIgnored(t *testing.T) {
	m := NewMachine(Config{DoubleTapThreshold: 300 * time.Millisecond})

	m.Press(at(0))
	m.Press(at(100))
	m.Tick(at(300))
	if !m.Holding() {
		t.Fatal("expected holding")
	}

	// OS key repeat while the modifier stays down.
	wantNone(t, m.Press(at(400)))
	wantNone(t, m.Press(at(450)))
	wantOne(t, m.Release(at(900)), EndCapture, at(900))
}

func TestHoldCeilingForcesEnd(t *testing.T) {
	m := NewMachine(Config{
		DoubleTapThreshold: 300 * time.Millisecond,
		HoldCeiling:        2 * time.Second,
	})

	m.Press(at(0))
	m.Press(at(100))
	m.Tick(at(300))

	wantNone(t, m.Tick(at(2000)))

	ints := m.Tick(at(2200))
	if len(ints) != 1 || ints[0].Kind != EndCapture || !ints[0].Forced {
		t.Fatalf("expected forced end, got %v", ints)
	}
	if m.Holding() {
		t.Fatal("expected idle after forced end")
	}
}

func TestSourceLostClosesSession(t *testing.T) {
	m := NewMachine(Config{DoubleTapThreshold: 300 * time.Millisecond})

	m.Press(at(0))
	m.Press(at(100))
	m.Tick(at(300))

	ints := m.SourceLost(at(500))
	if len(ints) != 1 || ints[0].Kind != EndCapture || !ints[0].Forced {
		t.Fatalf("expected forced end, got %v", ints)
	}

	// Stale taps must not leak into the next gesture.
	wantNone(t, m.Press(at(600)))
	wantNone(t, m.Tick(at(2000)))
}

func TestThresholdClampLow(t *testing.T) {
	// 50ms is below the floor and clamps to 200ms, so taps 150ms apart
	// still pair.
	m := NewMachine(Config{DoubleTapThreshold: 50 * time.Millisecond})

	wantNone(t, m.Press(at(0)))
	wantNone(t, m.Press(at(150)))
	wantOne(t, m.Tick(at(200)), BeginCapture, at(150))
}

func TestThresholdClampHigh(t *testing.T) {
	// 2s clamps to 500ms, so taps 600ms apart never pair.
	m := NewMachine(Config{DoubleTapThreshold: 2 * time.Second})

	wantNone(t, m.Press(at(0)))
	wantNone(t, m.Press(at(600)))
	wantNone(t, m.Tick(at(2000)))
	if m.Holding() {
		t.Fatal("expected no session")
	}
}

func TestEverySessionEndsOnce(t *testing.T) {
	m := NewMachine(Config{DoubleTapThreshold: 300 * time.Millisecond})

	begins, ends := 0, 0
	count := func(ints []Intent) {
		for _, it := range ints {
			switch it.Kind {
			case BeginCapture:
				begins++
			case EndCapture:
				ends++
			}
		}
	}

	// Three full sessions, one quick repeat and one abandoned single tap.
	clock := 0
	session := func(holdMs int) {
		count(m.Press(at(clock)))
		count(m.Press(at(clock + 100)))
		count(m.Tick(at(clock + 300)))
		count(m.Release(at(clock + 300 + holdMs)))
		clock += 300 + holdMs + 1000
	}
	session(1500)
	session(40)

	count(m.Press(at(clock)))
	count(m.Press(at(clock + 90)))
	count(m.Press(at(clock + 170)))
	clock += 2000

	count(m.Press(at(clock)))
	clock += 2000
	count(m.Tick(at(clock)))

	session(700)

	if begins != 3 || ends != 3 {
		t.Fatalf("expected 3 begins and 3 ends, got %d/%d", begins, ends)
	}
}
