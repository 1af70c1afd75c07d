package audio

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// FindDevice resolves a configured device ID or name. Exact ID and
// case-insensitive name matches win over substring matches.
func FindDevice(ctx Context, idOrName string) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	for i, d := range devices {
		if d.ID == idOrName || strings.EqualFold(d.Name, idOrName) {
			return &devices[i], nil
		}
	}
	needle := strings.ToLower(idOrName)
	for i, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), needle) {
			return &devices[i], nil
		}
	}
	return nil, fmt.Errorf("no capture device matching %q", idOrName)
}

type pickerKey int

const (
	keyNone pickerKey = iota
	keyUp
	keyDown
	keyEnter
	keyInterrupt
)

// decodeKey maps a raw-mode stdin read onto picker actions. Arrows
// arrive as 3-byte CSI sequences; j/k work as vim-style fallbacks.
func decodeKey(buf []byte) pickerKey {
	if len(buf) == 1 {
		switch buf[0] {
		case 13:
			return keyEnter
		case 3:
			return keyInterrupt
		case 'j':
			return keyDown
		case 'k':
			return keyUp
		}
	}
	if len(buf) == 3 && buf[0] == 0x1b && buf[1] == '[' {
		switch buf[2] {
		case 'A':
			return keyUp
		case 'B':
			return keyDown
		}
	}
	return keyNone
}

type devicePicker struct {
	devices []DeviceInfo
	cursor  int
}

func (p *devicePicker) render() {
	fmt.Print("\r\x1b[J")
	fmt.Print("Select input device (↑/↓, Enter to confirm):\r\n\r\n")
	for i, d := range p.devices {
		warn := ""
		if IsBluetooth(d.Name) {
			warn = " \x1b[33m[⚠ Lower audio quality]\x1b[0m"
		}
		if i == p.cursor {
			fmt.Printf("  \x1b[1;36m▶ %s%s\x1b[0m\r\n", d.Name, warn)
		} else {
			fmt.Printf("    %s%s\r\n", d.Name, warn)
		}
	}
}

func (p *devicePicker) move(delta int) {
	next := p.cursor + delta
	if next >= 0 && next < len(p.devices) {
		p.cursor = next
	}
}

// SelectDevice presents an interactive device picker and returns the
// selected device. A lone device is returned without prompting.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no capture devices found")
	}
	if len(devices) == 1 {
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	p := &devicePicker{devices: devices}
	p.render()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		switch decodeKey(buf[:n]) {
		case keyEnter:
			fmt.Print("\r\n")
			term.Restore(fd, oldState)
			return &devices[p.cursor], nil
		case keyInterrupt:
			fmt.Print("\r\n")
			term.Restore(fd, oldState)
			os.Exit(130)
		case keyUp:
			p.move(-1)
		case keyDown:
			p.move(1)
		}
		fmt.Printf("\x1b[%dA", len(devices)+2)
		p.render()
	}
}
