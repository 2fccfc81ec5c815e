package service

import (
	"context"
	"strings"

	"github.com/patchline/corpusqa/internal/domain"
	"github.com/patchline/corpusqa/internal/index"
	"github.com/patchline/corpusqa/internal/telemetry"
)

// QuestionPlaceholder is the token in a prompt template replaced by the
// user's question.
const QuestionPlaceholder = "_QUESTION_"

// contextSeparator sits between the retrieved context and the templated
// instruction, and between concatenated chunks.
const contextSeparator = "\n\n"

// QueryEmbedder generates embeddings for questions.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) (*domain.Embedding, error)
}

// Completer generates text for an assembled prompt.
type Completer interface {
	Complete(ctx context.Context, prompt, model string, maxTokens int, temperature float32) (string, error)
}

// AnswerConfig holds the defaults for answer composition. Every field is
// overridable per request.
type AnswerConfig struct {
	// TopK is how many chunks retrieval fetches.
	TopK int
	// ChunksForAnswer is how many of the retrieved chunks actually enter
	// the prompt; at most TopK.
	ChunksForAnswer int
	// Template is the instruction with the QuestionPlaceholder token.
	Template string
	// NotFoundSentinel is the phrase the model is instructed to reply
	// when the context does not contain the answer.
	NotFoundSentinel string
	// CompletionModel, MaxAnswerTokens and Temperature parameterize the
	// completion call.
	CompletionModel string
	MaxAnswerTokens int
	Temperature     float32
}

// DefaultAnswerConfig provides the default answer composition settings.
func DefaultAnswerConfig() AnswerConfig {
	return AnswerConfig{
		TopK:             3,
		ChunksForAnswer:  1,
		Template:         DefaultPromptTemplate,
		NotFoundSentinel: DefaultNotFoundSentinel,
		MaxAnswerTokens:  400,
		Temperature:      0,
	}
}

// DefaultNotFoundSentinel is the reply that signals ungrounded answers.
const DefaultNotFoundSentinel = "Not in the text."

// DefaultPromptTemplate instructs the model to answer only from the
// supplied context.
const DefaultPromptTemplate = "Please answer the question using only the information in the text above. " +
	"If the answer is not there, reply '" + DefaultNotFoundSentinel + "'.\\nQuestion: " + QuestionPlaceholder + "\\nAnswer:"

// AnswerInput is one question with optional per-request overrides; zero
// values fall back to the service configuration.
type AnswerInput struct {
	Question    string
	Template    string
	Model       string
	MaxTokens   int
	Temperature *float32
}

// AnswerService composes grounded answers: retrieve the most similar
// chunks, build a bounded prompt around the question, and invoke the
// completion model.
type AnswerService struct {
	embedder  QueryEmbedder
	idx       index.Index
	completer Completer
	cfg       AnswerConfig
}

// NewAnswerService creates an AnswerService.
func NewAnswerService(embedder QueryEmbedder, idx index.Index, completer Completer, cfg AnswerConfig) *AnswerService {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	if cfg.ChunksForAnswer <= 0 || cfg.ChunksForAnswer > cfg.TopK {
		cfg.ChunksForAnswer = cfg.TopK
	}
	if cfg.Template == "" {
		cfg.Template = DefaultPromptTemplate
	}
	if cfg.NotFoundSentinel == "" {
		cfg.NotFoundSentinel = DefaultNotFoundSentinel
	}
	if cfg.MaxAnswerTokens <= 0 {
		cfg.MaxAnswerTokens = 400
	}
	return &AnswerService{
		embedder:  embedder,
		idx:       idx,
		completer: completer,
		cfg:       cfg,
	}
}

// Answer retrieves context for the question and asks the completion
// model. With no retrieval hits the prompt is the bare question and the
// sources carry the "no sources found" sentinel. When the completion
// equals the configured not-found phrase the sources are cleared: the
// model found no grounding in the context it was given. Completion
// failures propagate untouched.
func (s *AnswerService) Answer(ctx context.Context, in AnswerInput) (*domain.Answer, error) {
	question := strings.TrimSpace(in.Question)
	if question == "" {
		return nil, domain.ErrEmptyText
	}

	model := in.Model
	if model == "" {
		model = s.cfg.CompletionModel
	}

	ctx, span := telemetry.StartSpan(ctx, "service.answer", telemetry.SpanAttributes{
		Operation: "answer",
		Model:     model,
	})
	defer span.End()

	emb, err := s.embedder.EmbedQuery(ctx, question)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	results, err := s.idx.Search(ctx, emb.Vector, s.cfg.TopK)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	prompt, sources := s.assemble(question, in.Template, results)

	maxTokens := in.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.cfg.MaxAnswerTokens
	}
	temperature := s.cfg.Temperature
	if in.Temperature != nil {
		temperature = *in.Temperature
	}

	completion, err := s.completer.Complete(ctx, prompt, model, maxTokens, temperature)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if strings.TrimSpace(completion) == strings.TrimSpace(s.cfg.NotFoundSentinel) {
		sources = []string{}
	}

	return &domain.Answer{
		Prompt:     prompt,
		Completion: completion,
		Sources:    sources,
	}, nil
}

// assemble builds the prompt and source list from retrieval results, in
// descending-similarity order.
func (s *AnswerService) assemble(question, template string, results []domain.QueryResult) (string, []string) {
	if len(results) == 0 {
		return question, []string{domain.NoSourcesSentinel}
	}

	n := s.cfg.ChunksForAnswer
	if n > len(results) {
		n = len(results)
	}

	texts := make([]string, 0, n)
	sources := make([]string, 0, n)
	for _, r := range results[:n] {
		texts = append(texts, r.Chunk.Text)
		sources = append(sources, r.Chunk.Filename)
	}

	if template == "" {
		template = s.cfg.Template
	}
	// Templates arriving through env or flags carry literal "\n" pairs.
	filled := strings.ReplaceAll(template, `\n`, "\n")
	filled = strings.ReplaceAll(filled, QuestionPlaceholder, question)

	prompt := strings.Join(texts, contextSeparator) + contextSeparator + filled
	return prompt, sources
}
