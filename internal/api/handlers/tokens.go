package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/patchline/corpusqa/internal/api"
)

type TokenCounter interface {
	Count(text string) int
}

type TokenHandler struct {
	counter TokenCounter
}

func NewTokenHandler(counter TokenCounter) *TokenHandler {
	return &TokenHandler{counter: counter}
}

type TokenCountRequest struct {
	Text string `json:"text"`
}

type TokenCountResponse struct {
	Count int `json:"count"`
}

// Count reports the token count of a text, either from the `text` query
// parameter or a JSON body.
func (h *TokenHandler) Count(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	if text == "" && r.Method == http.MethodPost {
		var req TokenCountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		text = req.Text
	}

	api.Success(w, http.StatusOK, TokenCountResponse{Count: h.counter.Count(text)})
}
