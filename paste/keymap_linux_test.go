//go:build linux

package paste

import "testing"

func TestCharToKeyLetters(t *testing.T) {
	code, shift, ok := charToKey('a')
	if !ok || shift || code != 30 {
		t.Errorf("a: got (%d, %v, %v), want (30, false, true)", code, shift, ok)
	}
	code, shift, ok = charToKey('Z')
	if !ok || !shift || code != 44 {
		t.Errorf("Z: got (%d, %v, %v), want (44, true, true)", code, shift, ok)
	}
}

func TestCharToKeyDigitsAndWhitespace(t *testing.T) {
	cases := []struct {
		c    byte
		code uint16
	}{
		{'0', 11},
		{'1', 2},
		{'9', 10},
		{' ', 57},
		{'\n', 28},
		{'\t', 15},
	}
	for _, tc := range cases {
		code, shift, ok := charToKey(tc.c)
		if !ok || shift || code != tc.code {
			t.Errorf("%q: got (%d, %v, %v), want (%d, false, true)", tc.c, code, shift, ok, tc.code)
		}
	}
}

func TestCharToKeyPunctuation(t *testing.T) {
	code, shift, ok := charToKey('.')
	if !ok || shift || code != 52 {
		t.Errorf(".: got (%d, %v, %v), want (52, false, true)", code, shift, ok)
	}
	code, shift, ok = charToKey('?')
	if !ok || !shift || code != 53 {
		t.Errorf("?: got (%d, %v, %v), want (53, true, true)", code, shift, ok)
	}
	code, shift, ok = charToKey('!')
	if !ok || !shift || code != 2 {
		t.Errorf("!: got (%d, %v, %v), want (2, true, true)", code, shift, ok)
	}
}

func TestCharToKeyUnsupported(t *testing.T) {
	if _, _, ok := charToKey(0xC3); ok {
		t.Error("expected non-ASCII byte to be unsupported")
	}
	if _, _, ok := charToKey(0x07); ok {
		t.Error("expected control byte to be unsupported")
	}
}
