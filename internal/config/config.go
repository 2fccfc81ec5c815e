package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	// DatabaseURL selects the pgvector-backed index; empty keeps the
	// corpus in memory.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"corpusqa-documents"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	OpenAIAPIKey  string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL"`

	EmbeddingModelDoc   string `envconfig:"EMBEDDING_MODEL_DOC" default:"text-embedding-ada-002"`
	EmbeddingModelQuery string `envconfig:"EMBEDDING_MODEL_QUERY" default:"text-embedding-ada-002"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	CompletionModel     string `envconfig:"COMPLETION_MODEL" default:"gpt-3.5-turbo-instruct"`

	ChunkTargetTokens int `envconfig:"CHUNK_TARGET_TOKENS" default:"2000"`
	DocTokenCeiling   int `envconfig:"DOC_TOKEN_CEILING" default:"3000"`
	EmbedTokenLimit   int `envconfig:"EMBED_TOKEN_LIMIT" default:"8191"`

	EmbedMaxAttempts int           `envconfig:"EMBED_MAX_ATTEMPTS" default:"6"`
	EmbedMaxBackoff  time.Duration `envconfig:"EMBED_MAX_BACKOFF" default:"20s"`

	TopK            int     `envconfig:"TOP_K" default:"3"`
	ChunksForAnswer int     `envconfig:"CHUNKS_FOR_ANSWER" default:"1"`
	AnswerTokens    int     `envconfig:"ANSWER_TOKENS" default:"400"`
	Temperature     float32 `envconfig:"TEMPERATURE" default:"0"`

	// NotFoundSentinel is the completion phrase that signals "the model
	// found no grounding in the supplied context". PromptTemplate may
	// contain literal \n pairs and must carry the _QUESTION_ placeholder.
	NotFoundSentinel string `envconfig:"NOT_FOUND_SENTINEL" default:"Not in the text."`
	PromptTemplate   string `envconfig:"PROMPT_TEMPLATE"`

	// WorkerPollInterval drives the background conversion worker.
	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"30s"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CORPUSQA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate rejects impossible configurations at construction time so
// limit mismatches never surface as runtime embedding rejections.
func (c *Config) Validate() error {
	if c.ChunkTargetTokens <= 0 {
		return fmt.Errorf("chunk target tokens must be positive, got %d", c.ChunkTargetTokens)
	}
	if c.ChunkTargetTokens > c.EmbedTokenLimit {
		return fmt.Errorf("chunk target tokens (%d) exceeds embedding token limit (%d)",
			c.ChunkTargetTokens, c.EmbedTokenLimit)
	}
	if c.DocTokenCeiling <= 0 {
		return fmt.Errorf("document token ceiling must be positive, got %d", c.DocTokenCeiling)
	}
	if c.DocTokenCeiling > c.EmbedTokenLimit {
		return fmt.Errorf("document token ceiling (%d) exceeds embedding token limit (%d)",
			c.DocTokenCeiling, c.EmbedTokenLimit)
	}
	if c.EmbedMaxAttempts <= 0 {
		return fmt.Errorf("embed max attempts must be positive, got %d", c.EmbedMaxAttempts)
	}
	if c.ChunksForAnswer > c.TopK {
		return fmt.Errorf("chunks for answer (%d) exceeds top-k (%d)", c.ChunksForAnswer, c.TopK)
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}
