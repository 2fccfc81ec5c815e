package domain

import (
	"fmt"
	"time"
)

// Chunk is a stored segment of a document: normalized text, the
// deterministic name it is keyed by, and its embedding vector.
// Chunks are immutable once stored; re-ingesting a document produces
// a fresh set of chunk records.
type Chunk struct {
	Filename  string
	Text      string
	Embedding []float32
	CreatedAt time.Time
}

// Embedding is the result of one embedding call. Truncated is set when
// the input exceeded the model's token limit and a prefix was embedded
// instead of the full text.
type Embedding struct {
	Vector    []float32
	Truncated bool
}

// QueryResult pairs a stored chunk with its cosine similarity to a query
// vector. Produced transiently per search, never persisted.
type QueryResult struct {
	Chunk      Chunk
	Similarity float64
}

// ValidateChunk validates a Chunk before storage.
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}
	if c.Filename == "" {
		return fmt.Errorf("chunk filename is required")
	}
	if c.Text == "" {
		return fmt.Errorf("chunk text is required")
	}
	if len(c.Embedding) == 0 {
		return fmt.Errorf("chunk embedding is required")
	}
	return nil
}
