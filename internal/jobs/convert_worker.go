package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/patchline/corpusqa/internal/domain"
	"github.com/patchline/corpusqa/internal/telemetry"
)

// FileLister exposes the blob store listing the worker scans.
type FileLister interface {
	ListFiles(ctx context.Context) ([]domain.FileRecord, error)
}

// Converter runs extraction plus ingestion for one stored file.
type Converter interface {
	ConvertAndIngest(ctx context.Context, filename string) (bool, error)
}

// ConvertWorker drains unconverted uploads from the blob store through
// the conversion pipeline. It is the asynchronous "process all files"
// path; each pass is idempotent because converted files are skipped by
// their metadata flag.
type ConvertWorker struct {
	store     FileLister
	converter Converter
}

// NewConvertWorker creates a ConvertWorker instance.
func NewConvertWorker(store FileLister, converter Converter) *ConvertWorker {
	return &ConvertWorker{
		store:     store,
		converter: converter,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *ConvertWorker) ProcessJobs(ctx context.Context) error {
	files, err := w.store.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	pending := make([]domain.FileRecord, 0)
	for _, f := range files {
		if !f.Converted {
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	log.Printf("processing %d unconverted files", len(pending))

	for _, f := range pending {
		ok, err := w.converter.ConvertAndIngest(ctx, f.Name)
		if err != nil {
			log.Printf("error converting %s: %v", f.Name, err)
			telemetry.CaptureError(ctx, err)
			continue
		}
		if !ok {
			log.Printf("converted %s but stored no chunks", f.Name)
		} else {
			log.Printf("converted and ingested %s", f.Name)
		}
	}

	return nil
}
