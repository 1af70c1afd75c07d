package transcriber

import (
	"context"
	"time"
)

// DefaultLiveEvery is the partial-transcription cadence. Decoding from
// scratch each tick is wasteful but simple; partials are advisory and
// the final decode on session end is what gets delivered.
const DefaultLiveEvery = time.Second

// Live repeatedly transcribes snapshots of a growing buffer and reports
// changed text through onPartial. It returns when ctx is cancelled; at
// most the decode already in flight completes past that point. Failures
// are suppressed: a partial that never arrives costs nothing, and Live
// never unloads or otherwise disturbs the engine for the final call.
func (m *Manager) Live(ctx context.Context, every time.Duration, snapshot func() []float32, onPartial func(string)) {
	if every <= 0 {
		every = DefaultLiveEvery
	}
	t := time.NewTicker(every)
	defer t.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			samples := snapshot()
			if len(samples) == 0 {
				continue
			}
			text, err := m.Transcribe(ctx, samples)
			if err != nil {
				continue
			}
			if text != "" && text != last {
				last = text
				onPartial(text)
			}
		}
	}
}
