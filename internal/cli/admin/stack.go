package admin

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/patchline/corpusqa/internal/config"
	"github.com/patchline/corpusqa/internal/database"
	"github.com/patchline/corpusqa/internal/index"
	"github.com/patchline/corpusqa/internal/openai"
	"github.com/patchline/corpusqa/internal/service"
	"github.com/patchline/corpusqa/internal/token"
	"github.com/jackc/pgx/v5/pgxpool"
)

// stack bundles the pipeline collaborators the commands share. The
// tokenizer instance is shared between chunker and embedding client so
// their token limits cannot drift.
type stack struct {
	cfg     *config.Config
	tok     *token.Tokenizer
	chunker *service.Chunker
	client  *openai.Client
	idx     index.Index
	pool    *pgxpool.Pool
}

// buildStack loads configuration and constructs the pipeline. With
// requireDB the command refuses to run against the in-memory index,
// which would not outlive the process.
func buildStack(ctx context.Context, requireDB bool) (*stack, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	tok, err := token.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}

	s := &stack{
		cfg: cfg,
		tok: tok,
		chunker: service.NewChunker(tok, service.ChunkConfig{
			TargetTokens:    cfg.ChunkTargetTokens,
			DocTokenCeiling: cfg.DocTokenCeiling,
		}),
	}

	if cfg.HasOpenAI() {
		s.client = openai.NewClient(openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			BaseURL:             cfg.OpenAIBaseURL,
			DocumentModel:       cfg.EmbeddingModelDoc,
			QueryModel:          cfg.EmbeddingModelQuery,
			CompletionModel:     cfg.CompletionModel,
			EmbeddingDimensions: cfg.EmbeddingDimensions,
			HardTokenLimit:      cfg.EmbedTokenLimit,
			MaxAttempts:         cfg.EmbedMaxAttempts,
			Backoff:             openai.ExponentialJitter(time.Second, cfg.EmbedMaxBackoff),
		}, tok)
	}

	if cfg.HasDatabase() {
		pool, err := database.NewPool(ctx, cfg.DatabaseURL, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.pool = pool
		s.idx = index.NewPostgres(pool, cfg.EmbeddingDimensions)
	} else {
		if requireDB {
			return nil, fmt.Errorf("CORPUSQA_DATABASE_URL is not set; the in-memory index does not outlive the process")
		}
		log.Println("no database configured, using in-memory index")
		s.idx = index.NewMemory(cfg.EmbeddingDimensions)
	}

	return s, nil
}

func (s *stack) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *stack) requireOpenAI() error {
	if s.client == nil {
		return fmt.Errorf("CORPUSQA_OPENAI_API_KEY is not set")
	}
	return nil
}

func (s *stack) ingestService() *service.IngestService {
	return service.NewIngestService(s.client, s.idx, s.chunker, s.tok)
}

func (s *stack) answerService() *service.AnswerService {
	template := s.cfg.PromptTemplate
	if template == "" {
		template = service.DefaultPromptTemplate
	}
	return service.NewAnswerService(s.client, s.idx, s.client, service.AnswerConfig{
		TopK:             s.cfg.TopK,
		ChunksForAnswer:  s.cfg.ChunksForAnswer,
		Template:         template,
		NotFoundSentinel: s.cfg.NotFoundSentinel,
		CompletionModel:  s.cfg.CompletionModel,
		MaxAnswerTokens:  s.cfg.AnswerTokens,
		Temperature:      s.cfg.Temperature,
	})
}
