package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/patchline/corpusqa/internal/api"
	"github.com/patchline/corpusqa/internal/domain"
	"github.com/patchline/corpusqa/internal/pagination"
	"github.com/go-chi/chi/v5"
)

type ChunkIndex interface {
	List(ctx context.Context) ([]domain.Chunk, error)
	Delete(ctx context.Context, filename string) error
}

type ChunkHandler struct {
	idx ChunkIndex
}

func NewChunkHandler(idx ChunkIndex) *ChunkHandler {
	return &ChunkHandler{idx: idx}
}

type ChunkRecord struct {
	Name       string `json:"name"`
	Text       string `json:"text"`
	Dimensions int    `json:"dimensions"`
	CreatedAt  string `json:"created_at"`
}

func chunkToRecord(c domain.Chunk) ChunkRecord {
	return ChunkRecord{
		Name:       c.Filename,
		Text:       c.Text,
		Dimensions: len(c.Embedding),
		CreatedAt:  c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

const defaultChunkPageSize = 20

// List returns stored chunks in insertion order, one page at a time.
func (h *ChunkHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultChunkPageSize
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	cursor, err := pagination.Decode(r.URL.Query().Get("cursor"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid cursor")
		return
	}

	chunks, err := h.idx.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	start := pagination.ResumeIndex(chunks, cursor, func(c domain.Chunk) string { return c.Filename })
	end := start + limit
	if end > len(chunks) {
		end = len(chunks)
	}
	page := chunks[start:end]

	items := make([]ChunkRecord, len(page))
	for i, c := range page {
		items[i] = chunkToRecord(c)
	}

	next := ""
	if end < len(chunks) {
		last := page[len(page)-1]
		next = pagination.Encode(last.Filename, last.CreatedAt)
	}

	api.Success(w, http.StatusOK, pagination.Page[ChunkRecord]{
		Items:   items,
		Cursor:  next,
		HasMore: end < len(chunks),
	})
}

// Delete removes one chunk by name. Deleting a missing chunk succeeds.
func (h *ChunkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		api.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.idx.Delete(r.Context(), name); err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusNoContent, nil)
}
