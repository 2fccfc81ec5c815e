// Package openai wraps the OpenAI API for embeddings and completions.
// Embedding calls carry the pipeline's resilience: bounded retry with
// jittered exponential backoff for transient failures, immediate
// propagation for malformed requests, and flagged truncation at the
// model's token limit. Completion calls are single-shot.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log"

	openai "github.com/sashabaranov/go-openai"

	"github.com/patchline/corpusqa/internal/domain"
	"github.com/patchline/corpusqa/internal/service"
	"github.com/patchline/corpusqa/internal/telemetry"
	"github.com/patchline/corpusqa/internal/token"
)

const (
	// DefaultEmbeddingModel is the model used for generating embeddings
	DefaultEmbeddingModel = "text-embedding-ada-002"
	// DefaultCompletionModel is the model used for answer generation
	DefaultCompletionModel = "gpt-3.5-turbo-instruct"
	// DefaultEmbeddingDimensions is the dimension of ada-002 embeddings
	DefaultEmbeddingDimensions = 1536
	// DefaultHardTokenLimit is the embedding model's input limit; longer
	// inputs are truncated to a prefix and flagged.
	DefaultHardTokenLimit = 8191

	// MinInputRunes is the minimal normalized input length worth sending
	// to the embedding service.
	MinInputRunes = 3
)

// API is the narrow surface of the remote service the client depends on.
type API interface {
	CreateEmbedding(ctx context.Context, text, model string) ([]float32, error)
	CreateCompletion(ctx context.Context, prompt, model string, maxTokens int, temperature float32) (string, error)
}

// OpenAIAdapter implements API against the real OpenAI service.
type OpenAIAdapter struct {
	client *openai.Client
}

// NewOpenAIAdapter creates an adapter. baseURL overrides the service
// endpoint for OpenAI-compatible deployments; empty means api.openai.com.
func NewOpenAIAdapter(apiKey, baseURL string) *OpenAIAdapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIAdapter{client: openai.NewClientWithConfig(cfg)}
}

func (a *OpenAIAdapter) CreateEmbedding(ctx context.Context, text, model string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}
	return resp.Data[0].Embedding, nil
}

func (a *OpenAIAdapter) CreateCompletion(ctx context.Context, prompt, model string, maxTokens int, temperature float32) (string, error) {
	resp, err := a.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       model,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Text, nil
}

// Config holds explicit client configuration; no field is read from the
// process environment here.
type Config struct {
	APIKey              string
	BaseURL             string
	DocumentModel       string
	QueryModel          string
	CompletionModel     string
	EmbeddingDimensions int
	HardTokenLimit      int
	MaxAttempts         int
	Backoff             BackoffPolicy
}

// Client generates embeddings and completions with classified errors.
type Client struct {
	api             API
	tok             *token.Tokenizer
	docModel        string
	queryModel      string
	completionModel string
	dimensions      int
	hardTokenLimit  int
	maxAttempts     int
	backoff         BackoffPolicy
}

// NewClient creates a Client from configuration. The tokenizer must be
// the same instance used by the chunker so limits cannot drift.
func NewClient(cfg Config, tok *token.Tokenizer) *Client {
	if cfg.DocumentModel == "" {
		cfg.DocumentModel = DefaultEmbeddingModel
	}
	if cfg.QueryModel == "" {
		cfg.QueryModel = cfg.DocumentModel
	}
	if cfg.CompletionModel == "" {
		cfg.CompletionModel = DefaultCompletionModel
	}
	if cfg.EmbeddingDimensions <= 0 {
		cfg.EmbeddingDimensions = DefaultEmbeddingDimensions
	}
	if cfg.HardTokenLimit <= 0 {
		cfg.HardTokenLimit = DefaultHardTokenLimit
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Backoff == nil {
		cfg.Backoff = DefaultBackoff()
	}
	return &Client{
		api:             NewOpenAIAdapter(cfg.APIKey, cfg.BaseURL),
		tok:             tok,
		docModel:        cfg.DocumentModel,
		queryModel:      cfg.QueryModel,
		completionModel: cfg.CompletionModel,
		dimensions:      cfg.EmbeddingDimensions,
		hardTokenLimit:  cfg.HardTokenLimit,
		maxAttempts:     cfg.MaxAttempts,
		backoff:         cfg.Backoff,
	}
}

// NewClientWithAPI creates a Client with an explicit API implementation.
func NewClientWithAPI(api API, cfg Config, tok *token.Tokenizer) *Client {
	c := NewClient(cfg, tok)
	c.api = api
	return c
}

// Dimensions returns the expected embedding dimensionality.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// EmbedDocument embeds text with the document model.
func (c *Client) EmbedDocument(ctx context.Context, text string) (*domain.Embedding, error) {
	return c.embed(ctx, text, c.docModel)
}

// EmbedQuery embeds text with the query model.
func (c *Client) EmbedQuery(ctx context.Context, text string) (*domain.Embedding, error) {
	return c.embed(ctx, text, c.queryModel)
}

func (c *Client) embed(ctx context.Context, text, model string) (*domain.Embedding, error) {
	clean := service.NormalizeText(text)
	if len([]rune(clean)) < MinInputRunes {
		return nil, domain.ErrInputTooShort
	}

	truncated := false
	if c.tok.Count(clean) > c.hardTokenLimit {
		clean, truncated = c.tok.Truncate(clean, c.hardTokenLimit)
		log.Printf("embedding input truncated to %d tokens (model %s)", c.hardTokenLimit, model)
		telemetry.CaptureMessage(ctx, fmt.Sprintf("embedding input truncated to %d tokens (model %s)", c.hardTokenLimit, model))
	}

	var lastErr *domain.DomainError
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			// A dead context is the caller's abort, not a service
			// failure; it must not read as a skippable chunk upstream.
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
		}

		vec, err := c.api.CreateEmbedding(ctx, clean, model)
		if err == nil {
			if len(vec) != c.dimensions {
				return nil, domain.IndexInconsistent(c.dimensions, len(vec))
			}
			return &domain.Embedding{Vector: vec, Truncated: truncated}, nil
		}

		classified := classify(err)
		if classified.Code == domain.ErrCodeMalformedRequest {
			// Never retryable.
			return nil, classified
		}
		lastErr = classified
		telemetry.AddBreadcrumb(ctx, "embedding",
			fmt.Sprintf("attempt %d/%d failed: %s", attempt+1, c.maxAttempts, classified.Code))
	}

	return nil, domain.EmbeddingUnavailable(lastErr)
}

// Complete generates text for an assembled prompt. There is no retry at
// this layer; a failed answer surfaces to the caller immediately.
func (c *Client) Complete(ctx context.Context, prompt, model string, maxTokens int, temperature float32) (string, error) {
	if model == "" {
		model = c.completionModel
	}
	text, err := c.api.CreateCompletion(ctx, prompt, model, maxTokens, temperature)
	if err != nil {
		classified := classify(err)
		switch classified.Code {
		case domain.ErrCodeRateLimited, domain.ErrCodeMalformedRequest:
			return "", classified
		default:
			return "", domain.CompletionFailed(err)
		}
	}
	return text, nil
}

// classify maps a raw service error to a typed domain error. Rate limits
// and server-side/network failures are retryable; other request errors
// are fatal.
func classify(err error) *domain.DomainError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 429:
			return domain.RateLimited(err)
		case apiErr.HTTPStatusCode >= 500:
			return domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "model service error", err)
		default:
			return domain.MalformedRequest(err)
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.HTTPStatusCode == 429:
			return domain.RateLimited(err)
		case reqErr.HTTPStatusCode >= 500 || reqErr.HTTPStatusCode == 0:
			return domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "model service error", err)
		default:
			return domain.MalformedRequest(err)
		}
	}

	// Transport-level failures are transient.
	return domain.NewDomainErrorWithCause(domain.ErrCodeInternalError, "model service unreachable", err)
}
