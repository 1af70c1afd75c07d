package delivery

import "testing"

func TestPunctuate(t *testing.T) {
	for _, tt := range []struct {
		in, want string
	}{
		{"", ""},
		{"hello world", "Hello world."},
		{"hello world.", "Hello world."},
		{"already done!", "Already done!"},
		{"is it time?", "Is it time?"},
		{"Éclair for breakfast", "Éclair for breakfast."},
		{"x", "X."},
	} {
		if got := Punctuate(tt.in); got != tt.want {
			t.Errorf("Punctuate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBulletize(t *testing.T) {
	for _, tt := range []struct {
		name, in, want string
	}{
		{"single sentence untouched", "Just one thought.", "Just one thought."},
		{"no punctuation untouched", "stream of words with no ending", "stream of words with no ending"},
		{
			"two sentences",
			"First point. Second point.",
			"- First point.\n- Second point.",
		},
		{
			"mixed punctuation",
			"Does it work? It does! Ship it.",
			"- Does it work?\n- It does!\n- Ship it.",
		},
		{
			"decimals do not split",
			"Version 3.5 ships today. Release notes follow.",
			"- Version 3.5 ships today.\n- Release notes follow.",
		},
		{
			"ellipsis run splits once",
			"Wait... what? Never mind.",
			"- Wait...\n- what?\n- Never mind.",
		},
		{
			"unterminated tail becomes a bullet",
			"Done with one. and the rest",
			"- Done with one.\n- and the rest",
		},
	} {
		if got := Bulletize(tt.in); got != tt.want {
			t.Errorf("%s: Bulletize(%q) = %q, want %q", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestFormatOrder(t *testing.T) {
	// Punctuation runs before the reflow, so the final period added to
	// the tail sentence gets its own bullet line.
	got := Format("first thing happened. then another", Options{Punctuate: true, Bullets: true})
	want := "- First thing happened.\n- then another."
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
}
