//go:build integration

package index

import (
	"context"
	"testing"

	"github.com/patchline/corpusqa/internal/domain"
	"github.com/patchline/corpusqa/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgres(t *testing.T) *Postgres {
	t.Helper()
	ctx := context.Background()

	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { _ = pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)

	return NewPostgres(pool, 1536)
}

func vec1536(lead ...float32) []float32 {
	v := make([]float32, 1536)
	copy(v, lead)
	return v
}

func pgUpsert(t *testing.T, idx *Postgres, name string, lead ...float32) {
	t.Helper()
	require.NoError(t, idx.Upsert(context.Background(), domain.Chunk{
		Filename:  name,
		Text:      "text of " + name,
		Embedding: vec1536(lead...),
	}))
}

func TestPostgres_UpsertListDelete(t *testing.T) {
	idx := setupPostgres(t)
	ctx := context.Background()

	pgUpsert(t, idx, "b", 0, 1)
	pgUpsert(t, idx, "a", 1, 0)

	chunks, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "b", chunks[0].Filename)
	assert.Equal(t, "a", chunks[1].Filename)
	assert.Len(t, chunks[0].Embedding, 1536)

	// Overwrite keeps list position.
	require.NoError(t, idx.Upsert(ctx, domain.Chunk{
		Filename:  "b",
		Text:      "replacement",
		Embedding: vec1536(0, 0, 1),
	}))
	chunks, err = idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "b", chunks[0].Filename)
	assert.Equal(t, "replacement", chunks[0].Text)

	require.NoError(t, idx.Delete(ctx, "b"))
	require.NoError(t, idx.Delete(ctx, "b"))

	n, err := idx.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPostgres_DeleteByPrefix(t *testing.T) {
	idx := setupPostgres(t)
	ctx := context.Background()

	pgUpsert(t, idx, "doc.txt", 1)
	pgUpsert(t, idx, "doc.txt_part_0", 0, 1)
	pgUpsert(t, idx, "doc.txt_part_1", 0, 0, 1)
	pgUpsert(t, idx, "docs-overview.txt", 1, 1)
	pgUpsert(t, idx, "other.txt", 1, 0, 1)

	removed, err := idx.DeleteByPrefix(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	chunks, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	// Underscores in names are literal, not LIKE wildcards.
	assert.Equal(t, "docs-overview.txt", chunks[0].Filename)
	assert.Equal(t, "other.txt", chunks[1].Filename)
}

func TestPostgres_SearchOrderMatchesMemory(t *testing.T) {
	idx := setupPostgres(t)
	mem := NewMemory(1536)
	ctx := context.Background()

	seed := []struct {
		name string
		lead []float32
	}{
		{"exact", []float32{1, 0, 0}},
		{"close", []float32{0.9, 0.1, 0}},
		{"orthogonal", []float32{0, 1, 0}},
		{"opposite", []float32{-1, 0, 0}},
	}
	for _, s := range seed {
		pgUpsert(t, idx, s.name, s.lead...)
		require.NoError(t, mem.Upsert(ctx, domain.Chunk{
			Filename:  s.name,
			Text:      "text of " + s.name,
			Embedding: vec1536(s.lead...),
		}))
	}

	query := vec1536(1, 0, 0)
	pgResults, err := idx.Search(ctx, query, 3)
	require.NoError(t, err)
	memResults, err := mem.Search(ctx, query, 3)
	require.NoError(t, err)

	require.Len(t, pgResults, len(memResults))
	for i := range pgResults {
		assert.Equal(t, memResults[i].Chunk.Filename, pgResults[i].Chunk.Filename, "rank %d", i)
		assert.InDelta(t, memResults[i].Similarity, pgResults[i].Similarity, 1e-5, "rank %d", i)
	}
}

func TestPostgres_SearchTieBreakIsInsertionOrder(t *testing.T) {
	idx := setupPostgres(t)
	ctx := context.Background()

	pgUpsert(t, idx, "second", 0, 1)
	pgUpsert(t, idx, "first", 0, 1)
	pgUpsert(t, idx, "third", 0, 1)

	results, err := idx.Search(ctx, vec1536(0, 1), 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "second", results[0].Chunk.Filename)
	assert.Equal(t, "first", results[1].Chunk.Filename)
	assert.Equal(t, "third", results[2].Chunk.Filename)
}

func TestPostgres_SearchZeroVector(t *testing.T) {
	idx := setupPostgres(t)
	ctx := context.Background()

	pgUpsert(t, idx, "a", 1)
	pgUpsert(t, idx, "b", 0, 1)

	results, err := idx.Search(ctx, make([]float32, 1536), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Chunk.Filename)
	for _, r := range results {
		assert.Equal(t, 0.0, r.Similarity)
	}
}

func TestPostgres_StoredZeroVectorSimilarityIsZero(t *testing.T) {
	idx := setupPostgres(t)
	ctx := context.Background()

	pgUpsert(t, idx, "silent")
	pgUpsert(t, idx, "match", 1)

	results, err := idx.Search(ctx, vec1536(1), 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "match", results[0].Chunk.Filename)
	assert.Equal(t, "silent", results[1].Chunk.Filename)
	assert.Equal(t, 0.0, results[1].Similarity)
}

func TestPostgres_SearchEmptyIndex(t *testing.T) {
	idx := setupPostgres(t)

	results, err := idx.Search(context.Background(), vec1536(1), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPostgres_UpsertRejectsDimensionMismatch(t *testing.T) {
	idx := setupPostgres(t)

	err := idx.Upsert(context.Background(), domain.Chunk{
		Filename:  "bad",
		Text:      "wrong size",
		Embedding: []float32{1, 2, 3},
	})
	assert.ErrorIs(t, err, domain.ErrIndexInconsistent)
}
