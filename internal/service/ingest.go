package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/patchline/corpusqa/internal/domain"
	"github.com/patchline/corpusqa/internal/index"
	"github.com/patchline/corpusqa/internal/telemetry"
	"github.com/patchline/corpusqa/internal/token"
)

// DocumentEmbedder generates embeddings for document chunks.
type DocumentEmbedder interface {
	EmbedDocument(ctx context.Context, text string) (*domain.Embedding, error)
}

// IngestReport summarizes one ingestion: how many chunks were stored and
// which named chunks failed to embed. Partial success is a normal
// outcome, not an error.
type IngestReport struct {
	Stored int
	Failed []string
}

// IngestService runs the ingestion pipeline: normalize, split, embed
// each chunk, and store the survivors in the vector index.
type IngestService struct {
	embedder DocumentEmbedder
	idx      index.Index
	chunker  *Chunker
	tok      *token.Tokenizer
}

// NewIngestService creates an IngestService. Chunker and embedder must
// share the same tokenizer instance.
func NewIngestService(embedder DocumentEmbedder, idx index.Index, chunker *Chunker, tok *token.Tokenizer) *IngestService {
	return &IngestService{
		embedder: embedder,
		idx:      idx,
		chunker:  chunker,
		tok:      tok,
	}
}

// Ingest normalizes text, splits it when its token count exceeds the
// document ceiling, embeds each resulting chunk, and upserts the
// successes under deterministic names. A chunk whose embedding service
// call exhausts its retries is skipped and recorded, not fatal; a
// dimensionality rejection from the index aborts the document.
func (s *IngestService) Ingest(ctx context.Context, text, filename string) (*IngestReport, error) {
	if filename == "" {
		return nil, domain.ErrMissingFilename
	}

	ctx, span := telemetry.StartSpan(ctx, "service.ingest", telemetry.SpanAttributes{
		Filename:  filename,
		Operation: "ingest",
	})
	defer span.End()

	clean := NormalizeText(text)
	if clean == "" {
		return &IngestReport{}, nil
	}

	named := s.nameChunks(clean, filename)

	report := &IngestReport{}
	for _, nc := range named {
		if err := s.ingestChunk(ctx, nc, report); err != nil {
			span.SetError(err)
			return report, err
		}
	}

	return report, nil
}

// ingestChunk embeds and stores one named chunk. An exhausted embedding
// service or a too-short input records the chunk as failed; any other
// error is fatal to the document.
func (s *IngestService) ingestChunk(ctx context.Context, nc namedChunk, report *IngestReport) error {
	ctx, span := telemetry.StartSpan(ctx, "service.ingest_chunk", telemetry.SpanAttributes{
		ChunkName: nc.name,
	})
	defer span.End()

	emb, err := s.embedder.EmbedDocument(ctx, nc.text)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingUnavailable) || errors.Is(err, domain.ErrInputTooShort) {
			log.Printf("skipping chunk %s: %v", nc.name, err)
			telemetry.CaptureMessage(ctx, fmt.Sprintf("chunk %s skipped: %v", nc.name, err))
			report.Failed = append(report.Failed, nc.name)
			return nil
		}
		span.SetError(err)
		return err
	}
	if emb.Truncated {
		log.Printf("chunk %s was truncated before embedding", nc.name)
	}

	err = s.idx.Upsert(ctx, domain.Chunk{
		Filename:  nc.name,
		Text:      nc.text,
		Embedding: emb.Vector,
	})
	if err != nil {
		span.SetError(err)
		return fmt.Errorf("failed to store chunk %s: %w", nc.name, err)
	}
	report.Stored++
	return nil
}

// ReplaceDocument removes every chunk whose name starts with filename
// before ingesting, so re-ingestion replaces the old set instead of
// appending to it.
func (s *IngestService) ReplaceDocument(ctx context.Context, text, filename string) (*IngestReport, error) {
	if filename == "" {
		return nil, domain.ErrMissingFilename
	}
	if removed, err := s.idx.DeleteByPrefix(ctx, filename); err != nil {
		return nil, fmt.Errorf("failed to remove previous chunks of %s: %w", filename, err)
	} else if removed > 0 {
		log.Printf("replaced %d previous chunks of %s", removed, filename)
	}
	return s.Ingest(ctx, text, filename)
}

// TokenCount reports the token count of text under the pipeline's
// shared encoding.
func (s *IngestService) TokenCount(text string) int {
	return s.tok.Count(text)
}

type namedChunk struct {
	name string
	text string
}

// nameChunks decides the chunk set for a normalized document. At or
// under the ceiling the whole document is one chunk named after the
// file; above it each token window gets the _part_ suffix.
func (s *IngestService) nameChunks(clean, filename string) []namedChunk {
	if s.tok.Count(clean) <= s.chunker.Config().DocTokenCeiling {
		return []namedChunk{{name: filename, text: clean}}
	}

	parts := s.chunker.Split(clean)
	named := make([]namedChunk, 0, len(parts))
	for i, part := range parts {
		named = append(named, namedChunk{name: ChunkName(filename, i), text: part})
	}
	return named
}
