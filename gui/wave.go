//go:build gui

package gui

import (
	"image/color"
	"math"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

const (
	barCount   = 28
	cellWidth  = 9 // logical px per bar slot
	waveHeight = 48
)

// Same ANSI 256 approximations the terminal meter uses.
var (
	colorRec  = color.RGBA{135, 255, 135, 255} // green (120)
	colorHot  = color.RGBA{255, 0, 0, 255}     // red (196)
	colorWarn = color.RGBA{255, 135, 0, 255}   // orange (208)
	colorBusy = color.RGBA{255, 215, 0, 255}   // gold (220)
	colorDim  = color.RGBA{62, 62, 62, 255}
)

// WaveWidget renders a row of level-driven bars: dancing with the mic
// while recording, a traveling pulse while the decode runs.
type WaveWidget struct {
	widget.BaseWidget
	mu        sync.Mutex
	frame     int
	level     float64
	recording bool
	decoding  bool
	noVoice   bool
	stopCh    chan struct{}
}

func NewWaveWidget() *WaveWidget {
	w := &WaveWidget{stopCh: make(chan struct{})}
	w.ExtendBaseWidget(w)
	go w.animate()
	return w
}

func (w *WaveWidget) SetRecording(r bool) {
	w.mu.Lock()
	w.recording = r
	if r {
		w.decoding = false
		w.noVoice = false
	} else {
		w.level = 0
	}
	w.mu.Unlock()
}

// SetLevel smooths with fast attack and slow decay so short plosives
// stay visible for a few frames.
func (w *WaveWidget) SetLevel(l float64) {
	w.mu.Lock()
	if w.recording {
		if l > w.level {
			w.level = w.level*0.2 + l*0.8
		} else {
			w.level = w.level*0.7 + l*0.3
		}
	}
	w.mu.Unlock()
}

func (w *WaveWidget) SetDecoding(d bool) {
	w.mu.Lock()
	w.decoding = d
	w.mu.Unlock()
}

// stopDecode clears the decode animation and reports whether it was running.
func (w *WaveWidget) stopDecode() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	was := w.decoding
	w.decoding = false
	return was
}

func (w *WaveWidget) SetNoVoice(v bool) {
	w.mu.Lock()
	w.noVoice = v
	w.mu.Unlock()
}

func (w *WaveWidget) Stop() {
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
}

func (w *WaveWidget) animate() {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.mu.Lock()
			w.frame++
			w.mu.Unlock()
			fyne.Do(func() {
				w.Refresh()
			})
		}
	}
}

func (w *WaveWidget) MinSize() fyne.Size {
	return fyne.NewSize(float32(barCount*cellWidth), float32(waveHeight))
}

func (w *WaveWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &waveRenderer{wave: w}
	r.bars = make([]*canvas.Rectangle, barCount)
	for i := range r.bars {
		r.bars[i] = canvas.NewRectangle(colorDim)
	}
	return r
}

type waveRenderer struct {
	wave *WaveWidget
	bars []*canvas.Rectangle
	size fyne.Size
}

func (r *waveRenderer) Layout(size fyne.Size) {
	r.size = size
	r.Refresh()
}

func (r *waveRenderer) MinSize() fyne.Size {
	return r.wave.MinSize()
}

func (r *waveRenderer) Refresh() {
	r.wave.mu.Lock()
	frame := r.wave.frame
	level := r.wave.level
	recording := r.wave.recording
	decoding := r.wave.decoding
	noVoice := r.wave.noVoice
	r.wave.mu.Unlock()

	w, h := r.size.Width, r.size.Height
	if w == 0 || h == 0 {
		w, h = r.MinSize().Width, r.MinSize().Height
	}
	slot := w / float32(barCount)
	barW := slot * 0.7

	heights := barHeights(frame, level, recording, decoding)
	for i, bar := range r.bars {
		bh := float32(heights[i]) * (h - 4)
		if bh < 2 {
			bh = 2
		}
		bar.FillColor = barColor(heights[i], recording, decoding, noVoice)
		bar.Move(fyne.NewPos(float32(i)*slot+(slot-barW)/2, (h-bh)/2))
		bar.Resize(fyne.NewSize(barW, bh))
		bar.Refresh()
	}
}

// barHeights returns normalized [0, 1] heights for each bar.
func barHeights(frame int, level float64, recording, decoding bool) []float64 {
	hs := make([]float64, barCount)
	center := float64(barCount-1) / 2

	switch {
	case decoding:
		// Pulse sweeping left to right, wrapping past the edges.
		pos := math.Mod(float64(frame)*0.45, float64(barCount+8)) - 4
		for i := range hs {
			d := float64(i) - pos
			hs[i] = 0.08 + 0.6*math.Exp(-d*d/6)
		}
	case recording:
		for i := range hs {
			d := (float64(i) - center) / center
			env := 1 - 0.65*d*d
			ripple := 0.72 + 0.28*math.Sin(float64(frame)*0.35+float64(i)*0.9)
			hs[i] = level * 3.5 * env * ripple
			if hs[i] > 1 {
				hs[i] = 1
			}
			if hs[i] < 0.04 {
				hs[i] = 0.04
			}
		}
	default:
		// Faint breathing; the window is normally hidden in this state.
		for i := range hs {
			hs[i] = 0.05 + 0.02*math.Sin(float64(frame)*0.08+float64(i)*0.4)
		}
	}
	return hs
}

func barColor(h float64, recording, decoding, noVoice bool) color.Color {
	switch {
	case decoding:
		return colorBusy
	case !recording:
		return colorDim
	case noVoice:
		return colorWarn
	case h > 0.75:
		return colorHot
	default:
		return colorRec
	}
}

func (r *waveRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, len(r.bars))
	for i, b := range r.bars {
		objs[i] = b
	}
	return objs
}

func (r *waveRenderer) Destroy() {
	r.wave.Stop()
}
