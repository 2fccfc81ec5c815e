package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/patchline/corpusqa/internal/api"
	"github.com/patchline/corpusqa/internal/domain"
)

type FileService interface {
	ListFiles(ctx context.Context) ([]domain.FileRecord, error)
}

// ProcessTrigger wakes the background conversion worker.
type ProcessTrigger interface {
	Kick()
}

type FileHandler struct {
	svc     FileService
	trigger ProcessTrigger
}

// NewFileHandler creates a FileHandler. Either collaborator may be nil
// when blob storage is not configured; the endpoints then report 503.
func NewFileHandler(svc FileService, trigger ProcessTrigger) *FileHandler {
	return &FileHandler{svc: svc, trigger: trigger}
}

type FileResponse struct {
	Name            string `json:"name"`
	Size            int64  `json:"size"`
	CreatedAt       string `json:"created_at"`
	Converted       bool   `json:"converted"`
	EmbeddingsAdded bool   `json:"embeddings_added"`
}

func fileToResponse(f domain.FileRecord) FileResponse {
	return FileResponse{
		Name:            f.Name,
		Size:            f.Size,
		CreatedAt:       f.CreatedAt.UTC().Format(time.RFC3339),
		Converted:       f.Converted,
		EmbeddingsAdded: f.EmbeddingsAdded,
	}
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.svc == nil {
		api.Error(w, http.StatusServiceUnavailable, "blob storage not configured")
		return
	}

	files, err := h.svc.ListFiles(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]FileResponse, len(files))
	for i, f := range files {
		responses[i] = fileToResponse(f)
	}

	api.Success(w, http.StatusOK, responses)
}

// Process triggers a conversion pass over unconverted uploads. The work
// runs on the background worker; the call returns immediately.
func (h *FileHandler) Process(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		api.Error(w, http.StatusServiceUnavailable, "blob storage not configured")
		return
	}

	h.trigger.Kick()
	api.Success(w, http.StatusAccepted, map[string]string{"status": "processing"})
}
