//go:build !darwin && !nativeclipboard

package doctor

import (
	"fmt"
	"runtime"

	"murmur/paste"
)

func checkClipboardCopy() bool {
	fmt.Println()
	fmt.Println("[4/5] Keystroke output (injector init)")

	if err := paste.Init(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		if runtime.GOOS == "linux" {
			fmt.Println("  Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		}
		return false
	}

	fmt.Println("  PASS: keystroke injector initialized")
	return true
}

func checkPaste() bool {
	fmt.Println()
	fmt.Println("[5/5] Keystroke output (paste chord)")

	msg, err := paste.Verify()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}

	fmt.Printf("  PASS: %s\n", msg)
	return true
}
