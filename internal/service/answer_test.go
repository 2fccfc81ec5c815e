package service

import (
	"context"
	"errors"
	"testing"

	"github.com/patchline/corpusqa/internal/domain"
	"github.com/patchline/corpusqa/internal/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockQueryEmbedder struct {
	mock.Mock
}

func (m *MockQueryEmbedder) EmbedQuery(ctx context.Context, text string) (*domain.Embedding, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Embedding), args.Error(1)
}

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, prompt, model string, maxTokens int, temperature float32) (string, error) {
	args := m.Called(ctx, prompt, model, maxTokens, temperature)
	return args.String(0), args.Error(1)
}

func seedIndex(t *testing.T, idx *index.Memory) {
	t.Helper()
	ctx := context.Background()
	chunks := []domain.Chunk{
		{Filename: "alpha.txt", Text: "alpha content", Embedding: []float32{1, 0, 0}},
		{Filename: "beta.txt", Text: "beta content", Embedding: []float32{0, 1, 0}},
		{Filename: "gamma.txt", Text: "gamma content", Embedding: []float32{0.9, 0.1, 0}},
	}
	for _, c := range chunks {
		require.NoError(t, idx.Upsert(ctx, c))
	}
}

func TestAnswer_GroundedAnswer(t *testing.T) {
	idx := index.NewMemory(3)
	seedIndex(t, idx)

	embedder := new(MockQueryEmbedder)
	embedder.On("EmbedQuery", mock.Anything, "what is alpha?").
		Return(&domain.Embedding{Vector: []float32{1, 0, 0}}, nil)

	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, "gpt-3.5-turbo-instruct", 400, float32(0)).
		Return("Alpha is the first letter.", nil)

	svc := NewAnswerService(embedder, idx, completer, AnswerConfig{
		TopK:            3,
		ChunksForAnswer: 1,
		Template:        "Answer this: _QUESTION_",
		CompletionModel: "gpt-3.5-turbo-instruct",
		MaxAnswerTokens: 400,
	})

	answer, err := svc.Answer(context.Background(), AnswerInput{Question: "what is alpha?"})
	require.NoError(t, err)

	assert.Equal(t, "alpha content\n\nAnswer this: what is alpha?", answer.Prompt)
	assert.Equal(t, "Alpha is the first letter.", answer.Completion)
	assert.Equal(t, []string{"alpha.txt"}, answer.Sources)
	assert.True(t, answer.Grounded())

	embedder.AssertExpectations(t)
	completer.AssertExpectations(t)
}

func TestAnswer_SourcesInSimilarityOrder(t *testing.T) {
	idx := index.NewMemory(3)
	seedIndex(t, idx)

	embedder := new(MockQueryEmbedder)
	embedder.On("EmbedQuery", mock.Anything, mock.Anything).
		Return(&domain.Embedding{Vector: []float32{1, 0, 0}}, nil)

	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("an answer", nil)

	svc := NewAnswerService(embedder, idx, completer, AnswerConfig{
		TopK:            3,
		ChunksForAnswer: 3,
		Template:        "_QUESTION_",
	})

	answer, err := svc.Answer(context.Background(), AnswerInput{Question: "closest to alpha"})
	require.NoError(t, err)

	// alpha.txt matches exactly, gamma.txt is close, beta.txt orthogonal.
	assert.Equal(t, []string{"alpha.txt", "gamma.txt", "beta.txt"}, answer.Sources)
}

func TestAnswer_EmptyIndexUsesBareQuestion(t *testing.T) {
	idx := index.NewMemory(3)

	embedder := new(MockQueryEmbedder)
	embedder.On("EmbedQuery", mock.Anything, "anything out there?").
		Return(&domain.Embedding{Vector: []float32{1, 0, 0}}, nil)

	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, "anything out there?", mock.Anything, mock.Anything, mock.Anything).
		Return("no context to speak of", nil)

	svc := NewAnswerService(embedder, idx, completer, AnswerConfig{TopK: 3})

	answer, err := svc.Answer(context.Background(), AnswerInput{Question: "anything out there?"})
	require.NoError(t, err)

	assert.Equal(t, "anything out there?", answer.Prompt)
	assert.Equal(t, []string{domain.NoSourcesSentinel}, answer.Sources)
	assert.False(t, answer.Grounded())
}

func TestAnswer_SentinelCompletionClearsSources(t *testing.T) {
	idx := index.NewMemory(3)
	seedIndex(t, idx)

	embedder := new(MockQueryEmbedder)
	embedder.On("EmbedQuery", mock.Anything, mock.Anything).
		Return(&domain.Embedding{Vector: []float32{0, 1, 0}}, nil)

	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("  Not in the text. ", nil)

	svc := NewAnswerService(embedder, idx, completer, AnswerConfig{
		TopK:             3,
		NotFoundSentinel: "Not in the text.",
	})

	answer, err := svc.Answer(context.Background(), AnswerInput{Question: "unknowable"})
	require.NoError(t, err)

	assert.Empty(t, answer.Sources)
	assert.NotNil(t, answer.Sources)
	assert.False(t, answer.Grounded())
}

func TestAnswer_TemplateNewlinesAndPlaceholder(t *testing.T) {
	idx := index.NewMemory(3)
	seedIndex(t, idx)

	embedder := new(MockQueryEmbedder)
	embedder.On("EmbedQuery", mock.Anything, mock.Anything).
		Return(&domain.Embedding{Vector: []float32{1, 0, 0}}, nil)

	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("ok", nil)

	svc := NewAnswerService(embedder, idx, completer, AnswerConfig{
		TopK:            1,
		ChunksForAnswer: 1,
		Template:        `Question: _QUESTION_\nAnswer:`,
	})

	answer, err := svc.Answer(context.Background(), AnswerInput{Question: "why?"})
	require.NoError(t, err)

	assert.Equal(t, "alpha content\n\nQuestion: why?\nAnswer:", answer.Prompt)
}

func TestAnswer_EmptyQuestion(t *testing.T) {
	svc := NewAnswerService(new(MockQueryEmbedder), index.NewMemory(3), new(MockCompleter), DefaultAnswerConfig())

	_, err := svc.Answer(context.Background(), AnswerInput{Question: "   "})
	assert.ErrorIs(t, err, domain.ErrEmptyText)
}

func TestAnswer_CompletionErrorPropagates(t *testing.T) {
	idx := index.NewMemory(3)
	seedIndex(t, idx)

	embedder := new(MockQueryEmbedder)
	embedder.On("EmbedQuery", mock.Anything, mock.Anything).
		Return(&domain.Embedding{Vector: []float32{1, 0, 0}}, nil)

	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", domain.CompletionFailed(errors.New("model overloaded")))

	svc := NewAnswerService(embedder, idx, completer, DefaultAnswerConfig())

	_, err := svc.Answer(context.Background(), AnswerInput{Question: "anything"})
	assert.ErrorIs(t, err, domain.ErrCompletionFailed)
}

func TestAnswer_PerRequestOverrides(t *testing.T) {
	idx := index.NewMemory(3)
	seedIndex(t, idx)

	embedder := new(MockQueryEmbedder)
	embedder.On("EmbedQuery", mock.Anything, mock.Anything).
		Return(&domain.Embedding{Vector: []float32{1, 0, 0}}, nil)

	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.Anything, "gpt-4", 99, float32(0.7)).
		Return("overridden", nil)

	svc := NewAnswerService(embedder, idx, completer, DefaultAnswerConfig())

	temp := float32(0.7)
	answer, err := svc.Answer(context.Background(), AnswerInput{
		Question:    "use the overrides",
		Model:       "gpt-4",
		MaxTokens:   99,
		Temperature: &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "overridden", answer.Completion)
	completer.AssertExpectations(t)
}
