package llm

import "context"

// Completer is the single-shot completion capability consumed by the
// extraction and summarize paths. No streaming.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
