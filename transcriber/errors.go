package transcriber

import "errors"

// Every failure here is recoverable; the app never exits over a bad
// transcription.
var (
	// ErrEngineNotLoaded rejects transcription before any successful
	// model load.
	ErrEngineNotLoaded = errors.New("speech engine not loaded")
	// ErrEngineLoadFailed reports a model that could not be initialized.
	ErrEngineLoadFailed = errors.New("speech engine load failed")
	// ErrInvalidAudio reports an empty sample buffer. Expected when the
	// user releases the trigger immediately.
	ErrInvalidAudio = errors.New("no audio captured")
	// ErrTranscriptionFailed reports a non-success from the engine.
	ErrTranscriptionFailed = errors.New("transcription failed")
)
