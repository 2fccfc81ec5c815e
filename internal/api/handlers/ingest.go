package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/patchline/corpusqa/internal/api"
	"github.com/patchline/corpusqa/internal/service"
)

type IngestService interface {
	Ingest(ctx context.Context, text, filename string) (*service.IngestReport, error)
	ReplaceDocument(ctx context.Context, text, filename string) (*service.IngestReport, error)
}

type IngestHandler struct {
	svc IngestService
}

func NewIngestHandler(svc IngestService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type IngestRequest struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
	Replace  bool   `json:"replace,omitempty"`
}

type IngestResponse struct {
	Stored int      `json:"stored"`
	Failed []string `json:"failed"`
}

func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Filename == "" {
		api.Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	var (
		report *service.IngestReport
		err    error
	)
	if req.Replace {
		report, err = h.svc.ReplaceDocument(r.Context(), req.Text, req.Filename)
	} else {
		report, err = h.svc.Ingest(r.Context(), req.Text, req.Filename)
	}
	if err != nil {
		api.HandleError(w, err)
		return
	}

	failed := report.Failed
	if failed == nil {
		failed = []string{}
	}

	api.Success(w, http.StatusOK, IngestResponse{
		Stored: report.Stored,
		Failed: failed,
	})
}
