package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/patchline/corpusqa/internal/domain"
)

// TextExtractor turns a non-plain-text upload into ordered text blocks.
// The implementation (OCR, document parsing) lives outside the core.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) ([]string, error)
}

// BlobStore is the raw-file collaborator the conversion flow depends on.
type BlobStore interface {
	Download(ctx context.Context, name string) ([]byte, error)
	UploadRaw(ctx context.Context, data []byte, name, contentType string) error
	ListFiles(ctx context.Context) ([]domain.FileRecord, error)
	SetMetadata(ctx context.Context, name string, fields map[string]string) error
}

// ConvertService drives extraction of uploaded files into the ingestion
// pipeline and keeps the blob store's conversion metadata current.
type ConvertService struct {
	store     BlobStore
	extractor TextExtractor
	ingest    *IngestService
}

// NewConvertService creates a ConvertService.
func NewConvertService(store BlobStore, extractor TextExtractor, ingest *IngestService) *ConvertService {
	return &ConvertService{
		store:     store,
		extractor: extractor,
		ingest:    ingest,
	}
}

// ConvertAndIngest extracts text blocks from a stored file, archives the
// extracted blocks next to the original, and ingests each block under a
// deterministic per-block name. Returns whether any chunk was stored.
func (s *ConvertService) ConvertAndIngest(ctx context.Context, filename string) (bool, error) {
	data, err := s.store.Download(ctx, filename)
	if err != nil {
		return false, fmt.Errorf("failed to download %s: %w", filename, err)
	}

	blocks, err := s.extractor.ExtractText(ctx, data)
	if err != nil {
		return false, fmt.Errorf("failed to extract text from %s: %w", filename, err)
	}

	if archive, err := zipBlocks(blocks); err != nil {
		log.Printf("failed to archive extracted text for %s: %v", filename, err)
	} else if err := s.store.UploadRaw(ctx, archive, "converted/"+filename+".zip", "application/zip"); err != nil {
		log.Printf("failed to upload extracted text for %s: %v", filename, err)
	}

	if err := s.store.SetMetadata(ctx, filename, map[string]string{domain.MetaConverted: "true"}); err != nil {
		return false, fmt.Errorf("failed to mark %s converted: %w", filename, err)
	}

	stored := 0
	for i, block := range blocks {
		report, err := s.ingest.Ingest(ctx, block, ChunkName(filename, i))
		if err != nil {
			return stored > 0, err
		}
		stored += report.Stored
		for _, failed := range report.Failed {
			log.Printf("convert %s: chunk %s failed to embed", filename, failed)
		}
	}

	if stored > 0 {
		if err := s.store.SetMetadata(ctx, filename, map[string]string{domain.MetaEmbeddingsAdded: "true"}); err != nil {
			log.Printf("failed to mark %s embedded: %v", filename, err)
		}
	}

	return stored > 0, nil
}

// ListFiles exposes the blob store listing to the management surface.
func (s *ConvertService) ListFiles(ctx context.Context) ([]domain.FileRecord, error) {
	return s.store.ListFiles(ctx)
}

func zipBlocks(blocks []string) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for i, block := range blocks {
		f, err := w.Create(fmt.Sprintf("%d.txt", i))
		if err != nil {
			return nil, err
		}
		if _, err := f.Write([]byte(block)); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
