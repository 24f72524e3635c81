package memory

import (
	"context"
	"fmt"
	"math"
	"os"
	"testing"
)

// fakeEmbedder returns a fixed vector per known text so similarity ordering
// is deterministic in tests.
type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no vector for %q", text)
}

// newTestStore creates an in-memory SQLite store with its schema applied.
func newTestStore(t *testing.T, embedder Embedder) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	store, err := NewSQLiteStore(ctx, ":memory:", embedder)
	if err != nil {
		t.Fatalf("failed to create SQLite store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.InitSchema(ctx); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	return store
}

// TestSQLiteStore_AddDefaults tests category and importance defaulting.
func TestSQLiteStore_AddDefaults(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)

	m, err := store.Add(ctx, "likes hiking", "", 0)
	if err != nil {
		t.Fatalf("failed to add memory: %v", err)
	}
	if m.ID == "" {
		t.Error("expected a generated id")
	}
	if m.Category != DefaultCategory {
		t.Errorf("expected category %q, got %q", DefaultCategory, m.Category)
	}
	if m.Importance != DefaultImportance {
		t.Errorf("expected importance %d, got %d", DefaultImportance, m.Importance)
	}

	// Out-of-range importance is clamped on write.
	m, err = store.Add(ctx, "urgent fact", "health", 99)
	if err != nil {
		t.Fatalf("failed to add memory: %v", err)
	}
	if m.Importance != MaxImportance {
		t.Errorf("expected importance clamped to %d, got %d", MaxImportance, m.Importance)
	}
}

// TestSQLiteStore_UpdateByIDAndContent tests ref resolution: ID first,
// content as fallback.
func TestSQLiteStore_UpdateByIDAndContent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)

	m, err := store.Add(ctx, "works at Acme", "work", 3)
	if err != nil {
		t.Fatalf("failed to add memory: %v", err)
	}

	// Update by ID.
	newContent := "works at Initech"
	ok, err := store.Update(ctx, Ref{ID: m.ID}, Changes{Content: &newContent})
	if err != nil {
		t.Fatalf("failed to update memory: %v", err)
	}
	if !ok {
		t.Fatal("expected update by id to match")
	}

	// Update by content when the caller has no ID.
	newCategory := "career"
	ok, err = store.Update(ctx, Ref{Content: "works at Initech"}, Changes{Category: &newCategory})
	if err != nil {
		t.Fatalf("failed to update memory: %v", err)
	}
	if !ok {
		t.Fatal("expected update by content to match")
	}

	// An unknown ID with a known content still resolves via the fallback.
	imp := 5
	ok, err = store.Update(ctx, Ref{ID: "no-such-id", Content: "works at Initech"}, Changes{Importance: &imp})
	if err != nil {
		t.Fatalf("failed to update memory: %v", err)
	}
	if !ok {
		t.Fatal("expected content fallback to match")
	}

	mems, err := store.List(ctx)
	if err != nil {
		t.Fatalf("failed to list memories: %v", err)
	}
	if len(mems) != 1 {
		t.Fatalf("expected 1 memory, got %d", len(mems))
	}
	got := mems[0]
	if got.Content != "works at Initech" || got.Category != "career" || got.Importance != 5 {
		t.Errorf("unexpected memory after updates: %+v", got)
	}
}

// TestSQLiteStore_UpdateNoChanges tests that an empty change set is a no-op.
func TestSQLiteStore_UpdateNoChanges(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)

	m, err := store.Add(ctx, "some fact", "", 0)
	if err != nil {
		t.Fatalf("failed to add memory: %v", err)
	}

	ok, err := store.Update(ctx, Ref{ID: m.ID}, Changes{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no-op update to report no change")
	}
}

// TestSQLiteStore_Remove tests removal by ID and by content, and the
// not-found case.
func TestSQLiteStore_Remove(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)

	m1, err := store.Add(ctx, "first fact", "", 0)
	if err != nil {
		t.Fatalf("failed to add memory: %v", err)
	}
	if _, err := store.Add(ctx, "second fact", "", 0); err != nil {
		t.Fatalf("failed to add memory: %v", err)
	}

	ok, err := store.Remove(ctx, Ref{ID: m1.ID})
	if err != nil {
		t.Fatalf("failed to remove memory: %v", err)
	}
	if !ok {
		t.Fatal("expected removal by id to match")
	}

	ok, err = store.Remove(ctx, Ref{Content: "second fact"})
	if err != nil {
		t.Fatalf("failed to remove memory: %v", err)
	}
	if !ok {
		t.Fatal("expected removal by content to match")
	}

	ok, err = store.Remove(ctx, Ref{Content: "never existed"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected removal of missing memory to report false")
	}

	mems, err := store.List(ctx)
	if err != nil {
		t.Fatalf("failed to list memories: %v", err)
	}
	if len(mems) != 0 {
		t.Errorf("expected empty store, got %d memories", len(mems))
	}
}

// TestSQLiteStore_ListOrder tests that listing orders by importance first.
func TestSQLiteStore_ListOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)

	if _, err := store.Add(ctx, "minor detail", "", 1); err != nil {
		t.Fatalf("failed to add memory: %v", err)
	}
	if _, err := store.Add(ctx, "critical fact", "", 5); err != nil {
		t.Fatalf("failed to add memory: %v", err)
	}
	if _, err := store.Add(ctx, "middling fact", "", 3); err != nil {
		t.Fatalf("failed to add memory: %v", err)
	}

	mems, err := store.List(ctx)
	if err != nil {
		t.Fatalf("failed to list memories: %v", err)
	}
	if len(mems) != 3 {
		t.Fatalf("expected 3 memories, got %d", len(mems))
	}
	if mems[0].Content != "critical fact" {
		t.Errorf("expected highest importance first, got %q", mems[0].Content)
	}
	if mems[2].Content != "minor detail" {
		t.Errorf("expected lowest importance last, got %q", mems[2].Content)
	}
}

// TestSQLiteStore_SearchSimilar tests indexing on write and ranked search.
func TestSQLiteStore_SearchSimilar(t *testing.T) {
	ctx := context.Background()

	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"enjoys trail running":  {1, 0, 0},
		"allergic to shellfish": {0, 1, 0},
		"runs a book club":      {0.9, 0.1, 0},
	}}
	store := newTestStore(t, embedder)

	for content := range embedder.vectors {
		if _, err := store.Add(ctx, content, "", 0); err != nil {
			t.Fatalf("failed to add memory: %v", err)
		}
	}

	results, err := store.SearchSimilar(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("failed to search memories: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Content != "enjoys trail running" {
		t.Errorf("expected closest memory first, got %q", results[0].Content)
	}
	if results[1].Content != "runs a book club" {
		t.Errorf("expected next closest second, got %q", results[1].Content)
	}
	if results[0].SimilarityScore <= results[1].SimilarityScore {
		t.Errorf("expected descending scores, got %f <= %f",
			results[0].SimilarityScore, results[1].SimilarityScore)
	}
}

// TestSQLiteStore_SearchSimilarWithoutEmbedder tests that an unindexed store
// returns no results rather than failing.
func TestSQLiteStore_SearchSimilarWithoutEmbedder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)

	if _, err := store.Add(ctx, "unindexed fact", "", 0); err != nil {
		t.Fatalf("failed to add memory: %v", err)
	}

	results, err := store.SearchSimilar(ctx, []float32{1, 0, 0}, 5)
	if err != nil {
		t.Fatalf("failed to search memories: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

// TestVectorEncodeDecode tests the embedding blob round trip.
func TestVectorEncodeDecode(t *testing.T) {
	tests := []struct {
		name   string
		vector []float32
	}{
		{name: "nil vector", vector: nil},
		{name: "single element", vector: []float32{3.14159}},
		{name: "multiple elements", vector: []float32{1.0, 2.0, 3.0, -4.5, 0.0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded := decodeVector(encodeVector(tt.vector))

			if tt.vector == nil {
				if decoded != nil {
					t.Errorf("expected nil, got %v", decoded)
				}
				return
			}
			if len(decoded) != len(tt.vector) {
				t.Fatalf("length mismatch: expected %d, got %d", len(tt.vector), len(decoded))
			}
			for i := range tt.vector {
				if decoded[i] != tt.vector[i] {
					t.Errorf("element %d mismatch: expected %f, got %f", i, tt.vector[i], decoded[i])
				}
			}
		})
	}
}

// TestCosineSimilarity tests the similarity function's edge cases.
func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        []float32
		b        []float32
		expected float32
	}{
		{name: "identical vectors", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, expected: 1},
		{name: "opposite vectors", a: []float32{1, 2, 3}, b: []float32{-1, -2, -3}, expected: -1},
		{name: "orthogonal vectors", a: []float32{1, 0}, b: []float32{0, 1}, expected: 0},
		{name: "different length vectors", a: []float32{1, 2}, b: []float32{1, 2, 3}, expected: 0},
		{name: "zero vector", a: []float32{0, 0, 0}, b: []float32{1, 2, 3}, expected: 0},
	}

	const epsilon = 0.0001
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := cosineSimilarity(tt.a, tt.b)
			if math.Abs(float64(result-tt.expected)) > epsilon {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

// TestSQLiteStore_FileDatabase tests persistence across close and reopen.
func TestSQLiteStore_FileDatabase(t *testing.T) {
	ctx := context.Background()

	tmpFile, err := os.CreateTemp("", "memories_*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	store, err := NewSQLiteStore(ctx, tmpPath, nil)
	if err != nil {
		t.Fatalf("failed to create SQLite store: %v", err)
	}
	if err := store.InitSchema(ctx); err != nil {
		t.Fatalf("failed to initialize schema: %v", err)
	}
	if _, err := store.Add(ctx, "persisted fact", "", 0); err != nil {
		t.Fatalf("failed to add memory: %v", err)
	}
	store.Close()

	store2, err := NewSQLiteStore(ctx, tmpPath, nil)
	if err != nil {
		t.Fatalf("failed to reopen SQLite store: %v", err)
	}
	defer store2.Close()

	mems, err := store2.List(ctx)
	if err != nil {
		t.Fatalf("failed to list memories: %v", err)
	}
	if len(mems) != 1 || mems[0].Content != "persisted fact" {
		t.Errorf("expected 1 persisted memory, got %v", mems)
	}
}
