// Package update reconciles the two generations of the assistant's
// memory-update protocol. Older transcripts and models emit bracket-
// delimited diff blocks inline in their text; newer ones emit structured
// instructions. The handler accepts both, applies their union, and reports
// a single "did anything change" signal upward.
package update

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// legacyBlockPattern extracts [MEMORY_UPDATE]...[/MEMORY_UPDATE] regions.
// Non-greedy so multiple blocks in one response each match separately;
// (?s) so blocks may span lines.
var legacyBlockPattern = regexp.MustCompile(`(?s)\[MEMORY_UPDATE\](.*?)\[/MEMORY_UPDATE\]`)

// MemoryStore is the slice of the memory store the interpreter needs. Both
// methods must be idempotent-safe to call with no-op text.
type MemoryStore interface {
	ApplyDiff(ctx context.Context, diff string) (bool, error)
	ProcessInstructions(ctx context.Context, text string) (bool, error)
}

// ContextNotifier is told to rebuild dependent context after the store
// changed.
type ContextNotifier interface {
	Refresh(ctx context.Context) error
}

// Handler interprets model output into memory mutations. It holds no
// mutable state between invocations and is safe to reuse.
type Handler struct {
	log *zap.Logger
}

// NewHandler creates an interpreter logging through the given logger.
func NewHandler(log *zap.Logger) *Handler {
	return &Handler{log: log}
}

// ProcessUpdates scans a model response for memory updates in both formats
// and applies them to the store, reporting whether anything changed.
//
// Legacy bracket blocks are applied first, in document order, each
// independently: a block that fails to apply is logged and skipped, never
// aborting its siblings. The full response is then handed to the store's
// structured-instruction parser regardless of whether any legacy block
// matched, so structured processing observes a store that already includes
// the legacy mutations. The success of either path makes the result true.
//
// When the result is true and a notifier was supplied, the notifier's
// Refresh runs exactly once, after both paths, and completes before
// ProcessUpdates returns. A response with no updates in either format is
// not an error; the result is simply false.
func (h *Handler) ProcessUpdates(ctx context.Context, response string, store MemoryStore, notifier ContextNotifier) bool {
	changed := false

	for _, match := range legacyBlockPattern.FindAllStringSubmatch(response, -1) {
		diff := strings.TrimSpace(match[1])
		ok, err := store.ApplyDiff(ctx, diff)
		if err != nil {
			h.log.Warn("legacy memory diff failed to apply", zap.Error(err))
			continue
		}
		changed = changed || ok
	}

	ok, err := store.ProcessInstructions(ctx, response)
	if err != nil {
		h.log.Warn("structured memory instructions failed", zap.Error(err))
	}
	changed = changed || ok

	if changed && notifier != nil {
		if err := notifier.Refresh(ctx); err != nil {
			h.log.Warn("context refresh failed", zap.Error(err))
		}
	}

	return changed
}
