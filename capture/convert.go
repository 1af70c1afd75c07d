package capture

import (
	"encoding/binary"

	"murmur/audio"
)

// converter turns the device's signed 16-bit little-endian PCM into the
// pipeline format: mono float32 at audio.SampleRate. Resampling state
// carries across chunks so session audio stays continuous.
type converter struct {
	srcRate int
	srcCh   int

	pos  float64
	prev float32
}

func newConverter(f audio.CaptureConfig) *converter {
	c := &converter{srcRate: int(f.SampleRate), srcCh: int(f.Channels)}
	if c.srcRate <= 0 {
		c.srcRate = audio.SampleRate
	}
	if c.srcCh <= 0 {
		c.srcCh = 1
	}
	// Start one step in so the first output equals the first input.
	c.pos = 1
	return c
}

func (c *converter) convert(data []byte) []float32 {
	frameBytes := 2 * c.srcCh
	frames := len(data) / frameBytes
	mono := make([]float32, 0, frames)
	for i := 0; i+frameBytes <= len(data); i += frameBytes {
		var sum float32
		for ch := 0; ch < c.srcCh; ch++ {
			s := int16(binary.LittleEndian.Uint16(data[i+2*ch:]))
			sum += float32(s) / 32768
		}
		mono = append(mono, sum/float32(c.srcCh))
	}
	if c.srcRate == audio.SampleRate {
		return mono
	}
	return c.resample(mono)
}

// resample is linear interpolation over the virtual stream [prev, in...].
// pos is the fractional read index into that stream and the leftover
// fraction carries to the next chunk.
func (c *converter) resample(in []float32) []float32 {
	if len(in) == 0 {
		return nil
	}
	v := make([]float32, 0, len(in)+1)
	v = append(v, c.prev)
	v = append(v, in...)

	step := float64(c.srcRate) / float64(audio.SampleRate)
	out := make([]float32, 0, int(float64(len(in))/step)+2)

	pos := c.pos
	for int(pos)+1 < len(v) {
		i := int(pos)
		f := float32(pos - float64(i))
		out = append(out, v[i]*(1-f)+v[i+1]*f)
		pos += step
	}

	c.pos = pos - float64(len(v)-1)
	c.prev = v[len(v)-1]
	return out
}
