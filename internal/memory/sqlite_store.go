package memory

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite. It is the local,
// single-user backend. Vector similarity search is performed in application
// memory using cosine similarity, which is adequate for the size of a
// personal memory store.
type SQLiteStore struct {
	db       *sql.DB
	embedder Embedder
}

// NewSQLiteStore creates a new SQLiteStore connected to the given database
// path ("./data.db" or ":memory:"). The embedder is optional; without it
// memories are stored unindexed and SearchSimilar returns nothing.
func NewSQLiteStore(ctx context.Context, dbPath string, embedder Embedder) (*SQLiteStore, error) {
	// Enable WAL mode and foreign keys for better performance and data integrity
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{db: db, embedder: embedder}, nil
}

// InitSchema creates the necessary tables if they don't exist.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS memories (
			id TEXT PRIMARY KEY,
			content TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'general',
			importance INTEGER NOT NULL DEFAULT 3,
			embedding BLOB,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Add creates a new memory record, embedding its content when an embedder
// is configured. Embedding failure is not fatal; the memory is stored
// unindexed.
func (s *SQLiteStore) Add(ctx context.Context, content, category string, importance int) (Memory, error) {
	if category == "" {
		category = DefaultCategory
	}
	importance = clampImportance(importance)

	var embeddingBlob []byte
	if s.embedder != nil {
		if vector, err := s.embedder.Embed(ctx, content); err == nil {
			embeddingBlob = encodeVector(vector)
		}
	}

	m := Memory{
		ID:         uuid.NewString(),
		Content:    content,
		Category:   category,
		Importance: importance,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	query := `
		INSERT INTO memories (id, content, category, importance, embedding, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		m.ID, m.Content, m.Category, m.Importance, embeddingBlob,
		m.CreatedAt.Format(time.RFC3339), m.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return Memory{}, fmt.Errorf("failed to insert memory: %w", err)
	}

	return m, nil
}

// resolveID resolves a Ref to a memory ID: ID match first, then exact
// content match. Returns "" when nothing matches.
func (s *SQLiteStore) resolveID(ctx context.Context, ref Ref) (string, error) {
	if ref.ID != "" {
		var id string
		err := s.db.QueryRowContext(ctx, `SELECT id FROM memories WHERE id = ?`, ref.ID).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return "", fmt.Errorf("failed to resolve memory id: %w", err)
		}
	}
	if ref.Content != "" {
		var id string
		err := s.db.QueryRowContext(ctx, `SELECT id FROM memories WHERE content = ? LIMIT 1`, ref.Content).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return "", fmt.Errorf("failed to resolve memory content: %w", err)
		}
	}
	return "", nil
}

// Update applies a partial change to the referenced memory.
func (s *SQLiteStore) Update(ctx context.Context, ref Ref, changes Changes) (bool, error) {
	if changes.IsZero() {
		return false, nil
	}

	id, err := s.resolveID(ctx, ref)
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, nil
	}

	query := `UPDATE memories SET updated_at = ?`
	args := []any{time.Now().UTC().Format(time.RFC3339)}
	if changes.Content != nil {
		query += `, content = ?`
		args = append(args, *changes.Content)
		// Content changed, re-embed if possible
		var embeddingBlob []byte
		if s.embedder != nil {
			if vector, embErr := s.embedder.Embed(ctx, *changes.Content); embErr == nil {
				embeddingBlob = encodeVector(vector)
			}
		}
		query += `, embedding = ?`
		args = append(args, embeddingBlob)
	}
	if changes.Category != nil {
		query += `, category = ?`
		args = append(args, *changes.Category)
	}
	if changes.Importance != nil {
		query += `, importance = ?`
		args = append(args, clampImportance(*changes.Importance))
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update memory: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Remove deletes the referenced memory.
func (s *SQLiteStore) Remove(ctx context.Context, ref Ref) (bool, error) {
	id, err := s.resolveID(ctx, ref)
	if err != nil {
		return false, err
	}
	if id == "" {
		return false, nil
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete memory: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// List returns all memories ordered by importance, then recency.
func (s *SQLiteStore) List(ctx context.Context) ([]Memory, error) {
	query := `
		SELECT id, content, category, importance, created_at, updated_at
		FROM memories
		ORDER BY importance DESC, updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var memories []Memory
	for rows.Next() {
		var m Memory
		var createdAt, updatedAt string
		if err := rows.Scan(&m.ID, &m.Content, &m.Category, &m.Importance, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		m.CreatedAt, _ = parseTimestamp(createdAt)
		m.UpdatedAt, _ = parseTimestamp(updatedAt)
		memories = append(memories, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memories: %w", err)
	}

	return memories, nil
}

// memoryWithScore is an internal type for sorting memories by similarity score.
type memoryWithScore struct {
	Memory
	score float32
}

// SearchSimilar finds memories similar to the query vector using cosine
// similarity. Unlike PostgreSQL with pgvector, this implementation loads all
// embeddings and computes similarity in the application layer, which is
// suitable for the few thousand records a personal store accumulates.
func (s *SQLiteStore) SearchSimilar(ctx context.Context, queryVector []float32, limit int) ([]Memory, error) {
	query := `
		SELECT id, content, category, importance, embedding, created_at, updated_at
		FROM memories
		WHERE embedding IS NOT NULL
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query memories: %w", err)
	}
	defer rows.Close()

	var results []memoryWithScore
	for rows.Next() {
		var m Memory
		var embeddingBlob []byte
		var createdAt, updatedAt string
		err := rows.Scan(&m.ID, &m.Content, &m.Category, &m.Importance, &embeddingBlob, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memory: %w", err)
		}
		m.CreatedAt, _ = parseTimestamp(createdAt)
		m.UpdatedAt, _ = parseTimestamp(updatedAt)

		storedVector := decodeVector(embeddingBlob)
		if len(storedVector) > 0 && len(storedVector) == len(queryVector) {
			similarity := cosineSimilarity(queryVector, storedVector)
			m.SimilarityScore = similarity
			results = append(results, memoryWithScore{Memory: m, score: similarity})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memories: %w", err)
	}

	// Sort by similarity score (highest first)
	sort.Slice(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	topK := min(limit, len(results))
	memories := make([]Memory, topK)
	for i := range topK {
		memories[i] = results[i].Memory
	}

	return memories, nil
}

// ApplyDiff applies a legacy line-oriented diff block.
func (s *SQLiteStore) ApplyDiff(ctx context.Context, diff string) (bool, error) {
	return applyDiff(ctx, s, diff)
}

// ProcessInstructions applies structured instructions found in text.
func (s *SQLiteStore) ProcessInstructions(ctx context.Context, text string) (bool, error) {
	return processInstructions(ctx, s, text)
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)

// encodeVector converts a float32 slice to a byte slice for storage.
// Each float32 is encoded as 4 bytes in little-endian format.
func encodeVector(v []float32) []byte {
	if v == nil {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector converts a byte slice back to a float32 slice.
func decodeVector(b []byte) []float32 {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		bits := binary.LittleEndian.Uint32(b[i*4:])
		v[i] = math.Float32frombits(bits)
	}
	return v
}

// cosineSimilarity calculates the cosine similarity between two vectors.
// The result is in range [-1, 1]; for normalized embedding vectors this is
// equivalent to dot product.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

// parseTimestamp parses a SQLite timestamp string to time.Time.
// SQLite stores timestamps as TEXT in ISO8601/RFC3339 format.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		"2006-01-02T15:04:05.000",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}
