package memory

import "context"

// Embedder is an interface for generating text embeddings. Stores use it to
// index memory content for similarity search; a nil embedder disables
// indexing but not storage.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store defines the contract for memory operations.
// It abstracts the storage layer so the interpreter and tool dispatcher can
// run against SQLite locally or Postgres in a hosted deployment.
type Store interface {
	// Add creates a new memory. An empty category defaults to
	// DefaultCategory; importance is clamped to the valid range.
	Add(ctx context.Context, content, category string, importance int) (Memory, error)

	// Update applies a partial change to the memory identified by ref.
	// It reports whether a record was actually modified.
	Update(ctx context.Context, ref Ref, changes Changes) (bool, error)

	// Remove deletes the memory identified by ref, reporting whether a
	// record existed.
	Remove(ctx context.Context, ref Ref) (bool, error)

	// List returns all memories ordered by importance (highest first),
	// then recency.
	List(ctx context.Context) ([]Memory, error)

	// SearchSimilar finds memories semantically close to the query vector,
	// most similar first, at most limit results.
	SearchSimilar(ctx context.Context, queryVector []float32, limit int) ([]Memory, error)

	// ApplyDiff applies a legacy line-oriented diff block to the store and
	// reports whether anything changed. Safe to call with no-op text.
	ApplyDiff(ctx context.Context, diff string) (bool, error)

	// ProcessInstructions scans free-form model output for structured
	// memory instructions and applies any it finds, reporting whether the
	// store changed. Safe to call with text containing no instructions.
	ProcessInstructions(ctx context.Context, text string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}
