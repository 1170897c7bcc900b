// Package embedding wraps the external embedding RPC behind the narrow
// Embedder interface the core depends on, adding batching, truncation,
// retry/backoff, pacing and an optional content-hash cache.
package embedding

import "context"

// Embedder is the external collaborator interface the core consumes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ErrDimMismatch is a fatal invariant violation: the provider must always
// return vectors of the configured dimension D.
type ErrDimMismatch struct {
	Want, Got int
}

func (e *ErrDimMismatch) Error() string {
	return "embedding: provider returned dimension mismatch"
}
