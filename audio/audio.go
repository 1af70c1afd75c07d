// Package audio abstracts platform capture backends behind a small
// context/device pair. Backends deliver signed 16-bit little-endian PCM
// to the registered callback.
package audio

import "strings"

// SampleRate and Channels are the capture contract for the whole
// pipeline. Backends are asked to deliver this format and resample at
// the source when the hardware runs at something else.
const (
	SampleRate = 16000
	Channels   = 1
)

const WAVHeaderSize = 44

var btKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"sony wh-", "sony wf-",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser momentum", "plantronics",
	"tozo", "anker soundcore", "skullcandy",
	"bluetooth", " bt ", " bt)", " bt]",
}

// IsBluetooth guesses from the device name. Bluetooth mics drop to a
// low-bitrate codec while capturing, which audibly hurts transcription.
func IsBluetooth(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range btKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	// Format reports the sample format actually in effect, which the
	// session converter consumes.
	Format() CaptureConfig
}
