//go:build nativeclipboard || darwin

package doctor

import (
	"fmt"
	"time"

	"murmur/clipboard"
	"murmur/paste"
)

// clipboardRoundtrip writes a probe string and reads it back. Runs in
// its own goroutine because a missing compositor can hang the clipboard
// tool indefinitely.
func clipboardRoundtrip(probe string) error {
	if err := clipboard.Write(probe); err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	got, err := clipboard.Read()
	if err != nil {
		return fmt.Errorf("clipboard read failed: %w", err)
	}
	if got != probe {
		return fmt.Errorf("clipboard mismatch: wrote %q, got %q", probe, got)
	}
	return nil
}

func checkClipboardCopy() bool {
	fmt.Println()
	fmt.Println("[4/5] Clipboard copy")

	probe := fmt.Sprintf("murmur-doctor-%d", time.Now().UnixNano())
	errCh := make(chan error, 1)
	go func() { errCh <- clipboardRoundtrip(probe) }()

	select {
	case err := <-errCh:
		if err != nil {
			fmt.Printf("  FAIL: %v\n", err)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (clipboard tool hung - compositor not accessible?)")
		return false
	}
}

func checkPaste() bool {
	fmt.Println()
	fmt.Println("[5/5] Paste chord")

	msg, err := paste.Verify()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: %s\n", msg)
	return true
}
