package main

// EventSink abstracts the display layer so the Bubble Tea TUI and the
// optional GUI receive the same pipeline events. Implementations must
// not block; senders fire from the intent loop and audio pumps.
type EventSink interface {
	RecordingStart()
	// RecordingStop fires when capture closes and the decode begins.
	RecordingStop()
	RecordingTick(seconds float64)
	AudioLevel(level float64)
	NoVoiceWarning(on bool)
	// Partial carries an advisory mid-session transcription.
	Partial(text string)
	// Transcript carries the finished text. delivered is "pasted",
	// "copied" or "" when delivery failed.
	Transcript(text string, delivered string, noSpeech bool)
	EngineState(state string)
	DeviceLine(text string)
	Notice(text string)
}

// nopSink keeps event sends safe before any UI starts and in headless
// test mode.
type nopSink struct{}

func (nopSink) RecordingStart()                 {}
func (nopSink) RecordingStop()                  {}
func (nopSink) RecordingTick(float64)           {}
func (nopSink) AudioLevel(float64)              {}
func (nopSink) NoVoiceWarning(bool)             {}
func (nopSink) Partial(string)                  {}
func (nopSink) Transcript(string, string, bool) {}
func (nopSink) EngineState(string)              {}
func (nopSink) DeviceLine(string)               {}
func (nopSink) Notice(string)                   {}
