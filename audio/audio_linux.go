//go:build linux

package audio

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
)

type pulseBackend struct {
	client *pulse.Client
}

func NewContext() (Context, error) {
	c, err := pulse.NewClient()
	if err != nil {
		return nil, fmt.Errorf("pulse: %w", err)
	}
	return &pulseBackend{client: c}, nil
}

func (b *pulseBackend) Devices() ([]DeviceInfo, error) {
	sources, err := b.client.ListSources()
	if err != nil {
		return nil, fmt.Errorf("pulse list sources: %w", err)
	}
	devices := make([]DeviceInfo, 0, len(sources))
	for _, s := range sources {
		devices = append(devices, DeviceInfo{ID: s.ID(), Name: s.Name()})
	}
	return devices, nil
}

func (b *pulseBackend) NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error) {
	return &pulseStream{client: b.client, device: device, config: config}, nil
}

func (b *pulseBackend) Close() {
	b.client.Close()
}

// pulseStream opens a fresh record stream per Start. The pulse server
// resamples to the requested rate, so Format always matches the config.
type pulseStream struct {
	client   *pulse.Client
	device   *DeviceInfo
	config   CaptureConfig
	callback atomic.Pointer[DataCallback]

	mu     sync.Mutex
	stream *pulse.RecordStream
}

func int16LE(buf []int16) []byte {
	out := make([]byte, len(buf)*2)
	for i, s := range buf {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func (s *pulseStream) recordOptions() []pulse.RecordOption {
	opts := []pulse.RecordOption{
		pulse.RecordMono,
		pulse.RecordSampleRate(int(s.config.SampleRate)),
		pulse.RecordLatency(0.05),
	}
	if s.device != nil {
		if source, err := s.client.SourceByID(s.device.ID); err == nil && source != nil {
			opts = append(opts, pulse.RecordSource(source))
		}
	}
	return opts
}

func (s *pulseStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writer := pulse.Int16Writer(func(buf []int16) (int, error) {
		if len(buf) == 0 {
			return 0, nil
		}
		if cb := s.callback.Load(); cb != nil {
			(*cb)(int16LE(buf), uint32(len(buf)))
		}
		return len(buf), nil
	})

	stream, err := s.client.NewRecord(writer, s.recordOptions()...)
	if err != nil {
		return fmt.Errorf("pulse record: %w", err)
	}
	stream.Start()
	s.stream = stream
	return nil
}

func (s *pulseStream) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
		s.stream = nil
	}
}

func (s *pulseStream) Close() {
	s.Stop()
}

func (s *pulseStream) SetCallback(cb DataCallback) {
	s.callback.Store(&cb)
}

func (s *pulseStream) ClearCallback() {
	s.callback.Store(nil)
}

func (s *pulseStream) Format() CaptureConfig {
	return s.config
}
