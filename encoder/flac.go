// Package encoder compresses finished capture buffers to FLAC for the
// optional on-disk session archive.
package encoder

import (
	"bytes"
	"fmt"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"

	"murmur/audio"
)

const (
	BitsPerSample = 16
	BlockSize     = 4096
)

// FlacEncoder streams normalized float32 blocks into an in-memory FLAC
// file. Not safe for concurrent use; each session gets its own.
type FlacEncoder struct {
	buf     bytes.Buffer
	enc     *flac.Encoder
	samples uint64
}

func NewFlac() (*FlacEncoder, error) {
	e := &FlacEncoder{}
	enc, err := flac.NewEncoder(&e.buf, &meta.StreamInfo{
		BlockSizeMin:  BlockSize,
		BlockSizeMax:  BlockSize,
		SampleRate:    audio.SampleRate,
		NChannels:     audio.Channels,
		BitsPerSample: BitsPerSample,
	})
	if err != nil {
		return nil, fmt.Errorf("creating flac encoder: %w", err)
	}
	enc.EnablePredictionAnalysis(true)
	e.enc = enc
	return e, nil
}

// quantize maps a [-1, 1] sample onto int32 at 16-bit depth. Values
// outside the range clamp rather than wrap.
func quantize(s float32) int32 {
	switch {
	case s > 1:
		s = 1
	case s < -1:
		s = -1
	}
	return int32(int16(s * 32767))
}

// WriteBlock encodes one block of at most BlockSize samples.
func (e *FlacEncoder) WriteBlock(block []float32) error {
	quantized := make([]int32, len(block))
	for i, s := range block {
		quantized[i] = quantize(s)
	}

	f := &frame.Frame{
		Header: frame.Header{
			BlockSize:     uint16(len(block)),
			SampleRate:    audio.SampleRate,
			Channels:      frame.ChannelsMono,
			BitsPerSample: BitsPerSample,
		},
		Subframes: []*frame.Subframe{{
			SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
			Samples:   quantized,
			NSamples:  len(block),
		}},
	}
	if err := e.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("writing flac frame: %w", err)
	}
	e.samples += uint64(len(block))
	return nil
}

func (e *FlacEncoder) Close() error {
	return e.enc.Close()
}

func (e *FlacEncoder) Bytes() []byte {
	return e.buf.Bytes()
}

// SampleCount reports how many samples have been encoded so far.
func (e *FlacEncoder) SampleCount() uint64 {
	return e.samples
}

// EncodeFLAC compresses one session's capture buffer in one shot.
func EncodeFLAC(samples []float32) ([]byte, error) {
	enc, err := NewFlac()
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.WriteBlock(samples[i:end]); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}
