package encoder

import (
	"math"
	"testing"

	"murmur/audio"
)

func tone(freq float64, n int, amp float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = amp * float32(math.Sin(2*math.Pi*freq*float64(i)/audio.SampleRate))
	}
	return out
}

func TestFlacEncoder(t *testing.T) {
	samples := tone(440, audio.SampleRate/2, 0.5) // 500ms

	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}

	var fed uint64
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.WriteBlock(samples[i:end]); err != nil {
			t.Fatalf("WriteBlock at offset %d: %v", i, err)
		}
		fed += uint64(end - i)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if enc.SampleCount() != fed {
		t.Errorf("SampleCount = %d, want %d", enc.SampleCount(), fed)
	}

	data := enc.Bytes()
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
	rawSize := len(samples) * 2
	t.Logf("Raw: %d bytes, FLAC: %d bytes (%.1f%% compression)",
		rawSize, len(data), (1-float64(len(data))/float64(rawSize))*100)
}

func TestFlacEncoderEmpty(t *testing.T) {
	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close on empty encoder: %v", err)
	}
	if enc.SampleCount() != 0 {
		t.Errorf("SampleCount = %d, want 0", enc.SampleCount())
	}
	if len(enc.Bytes()) == 0 {
		t.Error("expected non-empty FLAC output (at least header)")
	}
}

func TestFlacEncoderPartialBlock(t *testing.T) {
	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	partial := tone(220, BlockSize/4, 0.3)
	if err := enc.WriteBlock(partial); err != nil {
		t.Fatalf("WriteBlock partial: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if enc.SampleCount() != uint64(len(partial)) {
		t.Errorf("SampleCount = %d, want %d", enc.SampleCount(), len(partial))
	}
}

func TestQuantizeClamps(t *testing.T) {
	tests := []struct {
		in   float32
		want int32
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{1.5, 32767},
		{-2, -32767},
		{0.5, 16383},
	}
	for _, tt := range tests {
		if got := quantize(tt.in); got != tt.want {
			t.Errorf("quantize(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestEncodeFLAC(t *testing.T) {
	// 300ms tone with a clipping stretch at the front
	samples := tone(220, audio.SampleRate*3/10, 0.4)
	for i := 0; i < 100; i++ {
		samples[i] = 1.5
	}

	data, err := EncodeFLAC(samples)
	if err != nil {
		t.Fatalf("EncodeFLAC: %v", err)
	}
	if len(data) < 4 || string(data[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestEncodeFLACEmpty(t *testing.T) {
	data, err := EncodeFLAC(nil)
	if err != nil {
		t.Fatalf("EncodeFLAC: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected header bytes for empty input")
	}
}
