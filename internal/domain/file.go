package domain

import "time"

// Blob metadata keys carrying conversion state. The conversion flow
// writes them and the storage listing reads them back, so both sides
// share one spelling. Hyphenated because S3 serves metadata as HTTP
// headers.
const (
	MetaConverted       = "converted"
	MetaEmbeddingsAdded = "embeddings-added"
)

// FileRecord describes an uploaded raw document held by the blob store.
// The core never stores raw files itself; it reads this listing to decide
// which uploads still need conversion and embedding.
type FileRecord struct {
	Name            string
	Size            int64
	CreatedAt       time.Time
	Converted       bool
	EmbeddingsAdded bool
}
