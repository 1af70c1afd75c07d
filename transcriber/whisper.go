package transcriber

import (
	"context"
	"fmt"
	"io"
	"strings"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
)

// NewWhisperEngine loads a ggml model from disk. Loading takes hundreds
// of milliseconds to seconds depending on model size.
func NewWhisperEngine(opts Options) (Engine, error) {
	model, err := whisper.New(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEngineLoadFailed, err)
	}
	return &whisperEngine{model: model, opts: opts}, nil
}

type whisperEngine struct {
	model whisper.Model
	opts  Options
}

func (e *whisperEngine) Transcribe(ctx context.Context, samples []float32) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// A fresh decode context per call; whisper contexts accumulate
	// state and the bindings default to greedy sampling.
	wctx, err := e.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	threads := e.opts.Threads
	if threads <= 0 {
		threads = DefaultThreads()
	}
	wctx.SetThreads(uint(threads))
	if e.opts.Language != "" && e.model.IsMultilingual() {
		// A rejected hint falls back to the model default.
		_ = wctx.SetLanguage(e.opts.Language)
	}

	// The decode is one C call and cannot be interrupted; cancellation
	// takes effect between calls.
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	var parts []string
	for {
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
		}
		text := strings.TrimSpace(seg.Text)
		if text == "" || nonSpeech(text) {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " "), nil
}

func (e *whisperEngine) Close() error {
	return e.model.Close()
}

// nonSpeech matches whisper filler annotations like [BLANK_AUDIO],
// (coughs) or lyric markers, which must not reach the user's cursor.
func nonSpeech(text string) bool {
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		return true
	}
	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		return true
	}
	return strings.Contains(text, "♪")
}
