package main

import "testing"

func feedN(m *silenceMonitor, speech bool, n int) SilenceEvent {
	var last SilenceEvent
	for i := 0; i < n; i++ {
		last = m.Tick(speech)
	}
	return last
}

func TestSilenceWarnAfter8s(t *testing.T) {
	m := newSilenceMonitor()
	// 79 ticks of silence, no warning yet
	for i := 0; i < 79; i++ {
		if ev := m.Tick(false); ev != SilenceNone {
			t.Fatalf("unexpected event at tick %d: %d", i, ev)
		}
	}
	// 80th tick triggers the warning (8s)
	if ev := m.Tick(false); ev != SilenceWarn {
		t.Fatalf("expected SilenceWarn at tick 80, got %d", ev)
	}
}

func TestSilenceWarnClearsOnSpeech(t *testing.T) {
	m := newSilenceMonitor()
	feedN(m, false, 80) // triggers warn

	// Sustained speech clears the warning (needs 25% of the 80-tick window)
	for i := 0; i < 80; i++ {
		if ev := m.Tick(true); ev == SilenceWarnClear {
			return
		}
	}
	t.Fatal("expected SilenceWarnClear after speech")
}

func TestNoWarnDuringSpeech(t *testing.T) {
	m := newSilenceMonitor()
	for i := 0; i < 200; i++ {
		if ev := m.Tick(true); ev == SilenceWarn {
			t.Fatalf("unexpected warn during speech at tick %d", i)
		}
	}
}

func TestRepeatWhileSilent(t *testing.T) {
	m := newSilenceMonitor()
	feedN(m, false, 80) // warn at tick 80
	// Next repeat at tick 80 + 80 = 160
	for i := 0; i < 100; i++ {
		if ev := m.Tick(false); ev == SilenceRepeat {
			return
		}
	}
	t.Fatal("expected SilenceRepeat while silence continues")
}

func TestWarnOnlyOncePerStretch(t *testing.T) {
	m := newSilenceMonitor()
	warns := 0
	for i := 0; i < 300; i++ {
		if ev := m.Tick(false); ev == SilenceWarn {
			warns++
		}
	}
	if warns != 1 {
		t.Fatalf("expected exactly 1 SilenceWarn in one silent stretch, got %d", warns)
	}
}

func TestWarnStaysDuringNoise(t *testing.T) {
	m := newSilenceMonitor()
	feedN(m, false, 80) // triggers warn

	// Occasional VAD false positives (< 25% speech) should NOT clear
	for i := 0; i < 80; i++ {
		speech := i%10 == 0 // 10% speech, below the clear threshold
		if ev := m.Tick(speech); ev == SilenceWarnClear {
			t.Fatalf("expected warning to stay with 10%% speech, cleared at tick %d", i)
		}
	}
}

func TestWarnRearmsAfterClear(t *testing.T) {
	m := newSilenceMonitor()
	feedN(m, false, 80) // warn

	cleared := false
	for i := 0; i < 30; i++ {
		if ev := m.Tick(true); ev == SilenceWarnClear {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected SilenceWarnClear during sustained speech")
	}

	for i := 0; i < 120; i++ {
		if ev := m.Tick(false); ev == SilenceWarn {
			return
		}
	}
	t.Fatal("expected a second SilenceWarn after silence resumed")
}
