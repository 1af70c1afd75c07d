//go:build !linux

package audio

import (
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

type malgoBackend struct {
	ctx *malgo.AllocatedContext
}

func NewContext() (Context, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, err
	}
	return &malgoBackend{ctx: ctx}, nil
}

func (b *malgoBackend) Devices() ([]DeviceInfo, error) {
	infos, err := b.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("malgo devices: %w", err)
	}
	devices := make([]DeviceInfo, 0, len(infos))
	for _, d := range infos {
		devices = append(devices, DeviceInfo{
			ID:   hex.EncodeToString(d.ID.Pointer()[:]),
			Name: d.Name(),
		})
	}
	return devices, nil
}

func decodeDeviceID(id string) (malgo.DeviceID, error) {
	var devID malgo.DeviceID
	raw, err := hex.DecodeString(id)
	if err != nil {
		return devID, fmt.Errorf("invalid device ID: %w", err)
	}
	copy(devID[:], raw)
	return devID, nil
}

func (b *malgoBackend) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = config.Channels
	deviceConfig.SampleRate = config.SampleRate
	if device != nil {
		devID, err := decodeDeviceID(device.ID)
		if err != nil {
			return nil, err
		}
		deviceConfig.Capture.DeviceID = devID.Pointer()
	}

	stream := &malgoStream{config: config}
	dev, err := malgo.InitDevice(b.ctx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: func(_, data []byte, frameCount uint32) {
			if cb := stream.callback.Load(); cb != nil {
				(*cb)(data, frameCount)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	stream.device = dev
	return stream, nil
}

func (b *malgoBackend) Close() {
	b.ctx.Uninit()
	b.ctx.Free()
}

// malgoStream wraps a miniaudio capture device. miniaudio resamples to
// the requested configuration, so Format always matches the config.
type malgoStream struct {
	device   *malgo.Device
	config   CaptureConfig
	callback atomic.Pointer[DataCallback]
}

func (s *malgoStream) Start() error {
	return s.device.Start()
}

func (s *malgoStream) Stop() {
	s.device.Stop()
}

func (s *malgoStream) Close() {
	s.device.Uninit()
}

func (s *malgoStream) SetCallback(cb DataCallback) {
	s.callback.Store(&cb)
}

func (s *malgoStream) ClearCallback() {
	s.callback.Store(nil)
}

func (s *malgoStream) Format() CaptureConfig {
	return s.config
}
