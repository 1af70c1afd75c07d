package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func open(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLastOnEmptyStore(t *testing.T) {
	s := open(t, filepath.Join(t.TempDir(), "history.db"))
	if _, err := s.Last(context.Background()); !errors.Is(err, ErrEmpty) {
		t.Fatalf("Last on empty store = %v, want ErrEmpty", err)
	}
}

func TestAddAndLast(t *testing.T) {
	s := open(t, filepath.Join(t.TempDir(), "history.db"))
	ctx := context.Background()

	if _, err := s.Add(ctx, "first take", "org.gnu.emacs", 1200*time.Millisecond); err != nil {
		t.Fatalf("Add: %v", err)
	}
	want, err := s.Add(ctx, "second take", "org.mozilla.firefox", 2500*time.Millisecond)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := s.Last(ctx)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if got.ID != want.ID || got.Text != "second take" {
		t.Errorf("Last = %+v, want id %s", got, want.ID)
	}
	if got.App != "org.mozilla.firefox" || got.AudioMs != 2500 {
		t.Errorf("Last lost fields: %+v", got)
	}
}

func TestRecentOrdersNewestFirst(t *testing.T) {
	s := open(t, filepath.Join(t.TempDir(), "history.db"))
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		if _, err := s.Add(ctx, text, "", time.Second); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Recent returned %d entries, want 2", len(got))
	}
	if got[0].Text != "three" || got[1].Text != "two" {
		t.Errorf("order wrong: %q, %q", got[0].Text, got[1].Text)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Add(ctx, "durable", "app", time.Second); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s = open(t, path)
	got, err := s.Last(ctx)
	if err != nil {
		t.Fatalf("Last after reopen: %v", err)
	}
	if got.Text != "durable" {
		t.Errorf("Last after reopen = %q", got.Text)
	}
}
