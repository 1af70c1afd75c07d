package main

import (
	"encoding/binary"
	"sync"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"murmur/audio"
)

const (
	vadMode         = 3
	vadFrameMs      = 20
	vadFrameSamples = audio.SampleRate * vadFrameMs / 1000 // 320 samples
	vadDebounce     = 3                                    // consecutive speech frames to confirm voice
)

// vadProcessor frames captured audio for webrtcvad and aggregates
// speech ratios per monitor tick. The capture side hands it float32
// chunks; webrtcvad wants 16-bit PCM, so frames convert on the way in.
type vadProcessor struct {
	vad *webrtcvad.VAD

	mu           sync.Mutex
	buf          []float32
	frame        []byte
	voiced       bool
	speechRun    int
	totalFrames  int
	speechFrames int
	tickTotal    int
	tickSpeech   int
}

func newVADProcessor() (*vadProcessor, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, err
	}
	if err := v.SetMode(vadMode); err != nil {
		return nil, err
	}
	return &vadProcessor{vad: v, frame: make([]byte, vadFrameSamples*2)}, nil
}

func (p *vadProcessor) Process(samples []float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.buf = append(p.buf, samples...)
	for len(p.buf) >= vadFrameSamples {
		for i, s := range p.buf[:vadFrameSamples] {
			if s > 1 {
				s = 1
			} else if s < -1 {
				s = -1
			}
			binary.LittleEndian.PutUint16(p.frame[i*2:], uint16(int16(s*32767)))
		}
		p.buf = p.buf[vadFrameSamples:]

		active, err := p.vad.Process(audio.SampleRate, p.frame)
		if err != nil {
			continue
		}
		p.totalFrames++
		if active {
			p.speechFrames++
			p.speechRun++
			if !p.voiced && p.speechRun >= vadDebounce {
				p.voiced = true
			}
		} else {
			p.speechRun = 0
		}
	}
}

// VoiceDetected reports whether a debounced run of speech frames has
// been seen since the last Reset.
func (p *vadProcessor) VoiceDetected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.voiced
}

func (p *vadProcessor) Stats() (total, speech int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalFrames, p.speechFrames
}

const speechThreshold = 0.10 // 10% of frames must be speech to count as "speaking"

// HasSpeechTick reports whether speech dominated since the previous
// call. The silence monitor calls it once per tick.
func (p *vadProcessor) HasSpeechTick() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := p.totalFrames - p.tickTotal
	s := p.speechFrames - p.tickSpeech
	p.tickTotal, p.tickSpeech = p.totalFrames, p.speechFrames
	if t == 0 {
		return false
	}
	return float64(s)/float64(t) >= speechThreshold
}

func (p *vadProcessor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buf = p.buf[:0]
	p.voiced = false
	p.speechRun = 0
	p.totalFrames = 0
	p.speechFrames = 0
	p.tickTotal = 0
	p.tickSpeech = 0
}
