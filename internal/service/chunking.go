package service

import (
	"fmt"

	"github.com/patchline/corpusqa/internal/token"
)

// ChunkConfig controls how documents are split for embedding.
type ChunkConfig struct {
	// TargetTokens is the window size for each chunk.
	TargetTokens int
	// DocTokenCeiling is the document-level bound above which a document
	// is chunked at all; at or below it the whole text is one chunk.
	DocTokenCeiling int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		TargetTokens:    2000,
		DocTokenCeiling: 3000,
	}
}

// Chunker splits text into contiguous token windows. Splitting is purely
// token-count-based; it makes no attempt at sentence or paragraph
// boundaries.
type Chunker struct {
	tok *token.Tokenizer
	cfg ChunkConfig
}

// NewChunker creates a Chunker sharing the pipeline's tokenizer.
func NewChunker(tok *token.Tokenizer, cfg ChunkConfig) *Chunker {
	if cfg.TargetTokens <= 0 {
		cfg = DefaultChunkConfig()
	}
	return &Chunker{tok: tok, cfg: cfg}
}

// Config returns the chunker's configuration.
func (c *Chunker) Config() ChunkConfig {
	return c.cfg
}

// Split returns the normalized text as ordered chunks of at most
// TargetTokens tokens each. A text at or under the target comes back as a
// single chunk. Windows that normalize to empty are dropped. Output order
// matches document order.
func (c *Chunker) Split(text string) []string {
	clean := NormalizeText(text)
	if clean == "" {
		return nil
	}

	ids := c.tok.Encode(clean)
	if len(ids) <= c.cfg.TargetTokens {
		return []string{clean}
	}

	chunks := make([]string, 0, (len(ids)+c.cfg.TargetTokens-1)/c.cfg.TargetTokens)
	for start := 0; start < len(ids); start += c.cfg.TargetTokens {
		end := start + c.cfg.TargetTokens
		if end > len(ids) {
			end = len(ids)
		}
		chunk := NormalizeText(c.tok.Decode(ids[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

// ChunkName returns the deterministic name for chunk i of a document.
// The document name is the shared prefix, which is the join key used by
// deletion and by grouping chunks back to their parent.
func ChunkName(filename string, i int) string {
	return fmt.Sprintf("%s_part_%d", filename, i)
}
