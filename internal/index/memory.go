package index

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patchline/corpusqa/internal/domain"
)

// Memory is a brute-force in-memory Index guarded by a single
// read-write lock. A linear scan is cheap at corpus scale (hundreds to
// low thousands of chunks), and exact cosine with deterministic
// tie-breaks makes this the reference implementation for testing.
type Memory struct {
	mu         sync.RWMutex
	dimensions int
	order      []string
	records    map[string]*memoryRecord
}

type memoryRecord struct {
	chunk    domain.Chunk
	position int
}

// NewMemory creates an in-memory index. dimensions fixes the vector size
// up front; 0 adopts the dimensionality of the first upsert.
func NewMemory(dimensions int) *Memory {
	return &Memory{
		dimensions: dimensions,
		records:    make(map[string]*memoryRecord),
	}
}

// Upsert stores or replaces a chunk keyed by filename. A replaced record
// keeps its original insertion position. A vector of the wrong
// dimensionality is rejected without touching the store.
func (m *Memory) Upsert(ctx context.Context, chunk domain.Chunk) error {
	if err := domain.ValidateChunk(&chunk); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid chunk", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dimensions == 0 {
		m.dimensions = len(chunk.Embedding)
	} else if len(chunk.Embedding) != m.dimensions {
		return domain.IndexInconsistent(m.dimensions, len(chunk.Embedding))
	}

	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now().UTC()
	}

	if existing, ok := m.records[chunk.Filename]; ok {
		existing.chunk = chunk
		return nil
	}

	m.records[chunk.Filename] = &memoryRecord{chunk: chunk, position: len(m.order)}
	m.order = append(m.order, chunk.Filename)
	return nil
}

// Delete removes one record; deleting a missing key is a no-op.
func (m *Memory) Delete(ctx context.Context, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(filename)
	return nil
}

// DeleteByPrefix removes the record named prefix itself and every record
// whose name starts with prefix, returning the number removed. This is
// how re-ingestion replaces a document's old chunk set.
func (m *Memory) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var doomed []string
	for name := range m.records {
		if strings.HasPrefix(name, prefix) {
			doomed = append(doomed, name)
		}
	}
	for _, name := range doomed {
		m.remove(name)
	}
	return len(doomed), nil
}

// List enumerates all records in insertion order.
func (m *Memory) List(ctx context.Context) ([]domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chunks := make([]domain.Chunk, 0, len(m.order))
	for _, name := range m.order {
		if rec, ok := m.records[name]; ok {
			chunks = append(chunks, rec.chunk)
		}
	}
	return chunks, nil
}

// Search scans every stored vector and returns the top k by descending
// cosine similarity. Stable sort over insertion order keeps ties
// deterministic across runs. An empty index returns an empty slice.
func (m *Memory) Search(ctx context.Context, vector []float32, k int) ([]domain.QueryResult, error) {
	if k <= 0 {
		return []domain.QueryResult{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]domain.QueryResult, 0, len(m.order))
	for _, name := range m.order {
		rec, ok := m.records[name]
		if !ok {
			continue
		}
		results = append(results, domain.QueryResult{
			Chunk:      rec.chunk,
			Similarity: CosineSimilarity(rec.chunk.Embedding, vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len returns the number of stored records.
func (m *Memory) Len(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// remove must be called with the write lock held.
func (m *Memory) remove(filename string) {
	rec, ok := m.records[filename]
	if !ok {
		return
	}
	delete(m.records, filename)
	m.order = append(m.order[:rec.position], m.order[rec.position+1:]...)
	for _, name := range m.order[rec.position:] {
		m.records[name].position--
	}
}
