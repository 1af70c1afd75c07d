package transcriber

import (
	"context"
	"runtime"
)

// Engine is the narrow boundary to a speech model. Implementations own
// native resources; Close pairs with the constructor and must be called
// exactly once. Engines are not assumed reentrant; the Manager
// serializes every call.
type Engine interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
	Close() error
}

// EngineFactory builds an engine from options. The Manager calls it on
// load and again on every transparent reload.
type EngineFactory func(Options) (Engine, error)

type Options struct {
	ModelPath string
	Language  string // empty = model default / auto-detect
	Threads   int    // 0 = DefaultThreads
}

// DefaultThreads caps decode threads; whisper gains little beyond four
// and the app shares the machine with whatever the user is dictating
// into.
func DefaultThreads() int {
	n := runtime.NumCPU()
	if n > 4 {
		n = 4
	}
	return n
}
