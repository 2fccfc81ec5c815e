package server

import (
	"net/http"

	"github.com/patchline/corpusqa/internal/api"
	"github.com/patchline/corpusqa/internal/api/handlers"
	"github.com/patchline/corpusqa/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	IngestHandler *handlers.IngestHandler
	AnswerHandler *handlers.AnswerHandler
	ChunkHandler  *handlers.ChunkHandler
	TokenHandler  *handlers.TokenHandler
	FileHandler   *handlers.FileHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/ingest", cfg.IngestHandler.Ingest)
	r.Post("/answer", cfg.AnswerHandler.Answer)

	r.Route("/chunks", func(r chi.Router) {
		r.Get("/", cfg.ChunkHandler.List)
		r.Delete("/{name}", cfg.ChunkHandler.Delete)
	})

	r.Get("/tokens/count", cfg.TokenHandler.Count)
	r.Post("/tokens/count", cfg.TokenHandler.Count)

	r.Route("/files", func(r chi.Router) {
		r.Get("/", cfg.FileHandler.List)
		r.Post("/process", cfg.FileHandler.Process)
	})

	return r
}
