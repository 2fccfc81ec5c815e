package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/patchline/corpusqa/internal/api"
	"github.com/patchline/corpusqa/internal/domain"
	"github.com/patchline/corpusqa/internal/service"
)

type AnswerService interface {
	Answer(ctx context.Context, in service.AnswerInput) (*domain.Answer, error)
}

type AnswerHandler struct {
	svc AnswerService
}

func NewAnswerHandler(svc AnswerService) *AnswerHandler {
	return &AnswerHandler{svc: svc}
}

type AnswerRequest struct {
	Question    string   `json:"question"`
	Template    string   `json:"template,omitempty"`
	Model       string   `json:"model,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
}

type AnswerResponse struct {
	Prompt     string   `json:"prompt"`
	Completion string   `json:"completion"`
	Sources    []string `json:"sources"`
}

func (h *AnswerHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.svc.Answer(r.Context(), service.AnswerInput{
		Question:    req.Question,
		Template:    req.Template,
		Model:       req.Model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}

	api.Success(w, http.StatusOK, AnswerResponse{
		Prompt:     answer.Prompt,
		Completion: answer.Completion,
		Sources:    sources,
	})
}
