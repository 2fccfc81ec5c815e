package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/patchline/corpusqa/internal/domain"
	"github.com/patchline/corpusqa/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) EmbedDocument(ctx context.Context, text string) (*domain.Embedding, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Embedding), args.Error(1)
}

// countingEmbedder fails specific calls by position, which mock
// expectations keyed on text cannot express for tokenizer-derived chunks.
type countingEmbedder struct {
	calls  int
	failOn map[int]error
	vector []float32
}

func (e *countingEmbedder) EmbedDocument(ctx context.Context, text string) (*domain.Embedding, error) {
	e.calls++
	if err, ok := e.failOn[e.calls]; ok {
		return nil, err
	}
	return &domain.Embedding{Vector: e.vector}, nil
}

func newIngestFixture(t *testing.T, embedder DocumentEmbedder, target, ceiling int) (*IngestService, *index.Memory) {
	t.Helper()
	tok := newTestTokenizer(t)
	chunker := NewChunker(tok, ChunkConfig{TargetTokens: target, DocTokenCeiling: ceiling})
	idx := index.NewMemory(3)
	return NewIngestService(embedder, idx, chunker, tok), idx
}

func TestIngest_SmallDocumentIsOneChunk(t *testing.T) {
	embedder := new(MockEmbedder)
	embedder.On("EmbedDocument", mock.Anything, "a small document").
		Return(&domain.Embedding{Vector: []float32{1, 0, 0}}, nil)

	svc, idx := newIngestFixture(t, embedder, 100, 150)

	report, err := svc.Ingest(context.Background(), "a  small\n document", "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stored)
	assert.Empty(t, report.Failed)

	chunks, err := idx.List(context.Background())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "notes.txt", chunks[0].Filename)
	assert.Equal(t, "a small document", chunks[0].Text)

	embedder.AssertExpectations(t)
}

func TestIngest_LargeDocumentSplitsIntoParts(t *testing.T) {
	embedder := &countingEmbedder{vector: []float32{1, 0, 0}}
	svc, idx := newIngestFixture(t, embedder, 20, 30)

	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 40)
	report, err := svc.Ingest(context.Background(), text, "big.txt")
	require.NoError(t, err)
	require.Greater(t, report.Stored, 1)

	chunks, err := idx.List(context.Background())
	require.NoError(t, err)
	require.Len(t, chunks, report.Stored)
	for i, c := range chunks {
		assert.Equal(t, ChunkName("big.txt", i), c.Filename)
	}
}

func TestIngest_EmptyFilename(t *testing.T) {
	svc, _ := newIngestFixture(t, new(MockEmbedder), 100, 150)

	_, err := svc.Ingest(context.Background(), "text", "")
	assert.ErrorIs(t, err, domain.ErrMissingFilename)
}

func TestIngest_WhitespaceOnlyTextStoresNothing(t *testing.T) {
	embedder := new(MockEmbedder)
	svc, idx := newIngestFixture(t, embedder, 100, 150)

	report, err := svc.Ingest(context.Background(), "   \n\t ", "empty.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Stored)
	assert.Empty(t, report.Failed)

	n, err := idx.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	embedder.AssertNotCalled(t, "EmbedDocument", mock.Anything, mock.Anything)
}

func TestIngest_FailedChunkIsSkippedNotFatal(t *testing.T) {
	embedder := &countingEmbedder{
		vector: []float32{1, 0, 0},
		failOn: map[int]error{2: domain.EmbeddingUnavailable(errors.New("upstream down"))},
	}
	svc, idx := newIngestFixture(t, embedder, 20, 30)

	text := strings.Repeat("one more sentence for the corpus to hold onto ", 40)
	report, err := svc.Ingest(context.Background(), text, "doc.txt")
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, ChunkName("doc.txt", 1), report.Failed[0])
	assert.Equal(t, embedder.calls-1, report.Stored)

	// The failed chunk's name must not appear in the index.
	chunks, err := idx.List(context.Background())
	require.NoError(t, err)
	for _, c := range chunks {
		assert.NotEqual(t, ChunkName("doc.txt", 1), c.Filename)
	}
}

func TestIngest_UnexpectedErrorAborts(t *testing.T) {
	boom := errors.New("network split")
	embedder := &countingEmbedder{
		vector: []float32{1, 0, 0},
		failOn: map[int]error{2: boom},
	}
	svc, _ := newIngestFixture(t, embedder, 20, 30)

	text := strings.Repeat("enough words to force several separate chunks here ", 40)
	report, err := svc.Ingest(context.Background(), text, "doc.txt")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, report.Stored)
}

func TestIngest_CancelledContextAbortsDocument(t *testing.T) {
	embedder := &countingEmbedder{
		vector: []float32{1, 0, 0},
		failOn: map[int]error{2: context.Canceled},
	}
	svc, _ := newIngestFixture(t, embedder, 20, 30)

	text := strings.Repeat("words that split across several chunks of the corpus ", 40)
	report, err := svc.Ingest(context.Background(), text, "doc.txt")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, report.Stored)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 2, embedder.calls, "no chunks attempted after cancellation")
}

func TestReplaceDocument_RemovesPreviousChunks(t *testing.T) {
	embedder := &countingEmbedder{vector: []float32{1, 0, 0}}
	svc, idx := newIngestFixture(t, embedder, 20, 30)

	ctx := context.Background()
	long := strings.Repeat("the first version of the document with many words ", 40)
	_, err := svc.Ingest(ctx, long, "doc.txt")
	require.NoError(t, err)

	before, err := idx.Len(ctx)
	require.NoError(t, err)
	require.Greater(t, before, 1)

	report, err := svc.ReplaceDocument(ctx, "a short second version", "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Stored)

	chunks, err := idx.List(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "doc.txt", chunks[0].Filename)
	assert.Equal(t, "a short second version", chunks[0].Text)
}

func TestIngest_SkipsShortChunks(t *testing.T) {
	embedder := new(MockEmbedder)
	embedder.On("EmbedDocument", mock.Anything, "ab").
		Return(nil, domain.ErrInputTooShort)

	svc, idx := newIngestFixture(t, embedder, 100, 150)

	report, err := svc.Ingest(context.Background(), "ab", "tiny.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Stored)
	assert.Equal(t, []string{"tiny.txt"}, report.Failed)

	n, err := idx.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
