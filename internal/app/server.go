package app

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/praeceptor-ai/corpus/internal/api/handlers"
	appMiddleware "github.com/praeceptor-ai/corpus/internal/api/middlewares"
	"github.com/praeceptor-ai/corpus/internal/config"
	"github.com/praeceptor-ai/corpus/internal/core/ingestion_engine"
	"github.com/praeceptor-ai/corpus/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, sources *services.SourceService, retrieval *services.RetrievalService, bulk *ingestion_engine.BulkCoordinator) *Server {
	sourceHandler := handlers.NewSourceHandler(sources, bulk)
	retrievalHandler := handlers.NewRetrievalHandler(retrieval)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(cfg.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Use(appMiddleware.JWTMiddleware(cfg.JWTSecret))

		api.Post("/sources/upload", sourceHandler.UploadSource)
		api.Post("/sources/video", sourceHandler.SubmitVideo)
		api.Post("/sources/bulk", sourceHandler.BulkUpload)
		api.Get("/sources", sourceHandler.ListSources)
		api.Get("/sources/{id}", sourceHandler.GetSource)
		api.Delete("/sources/{id}", sourceHandler.DeleteSource)
		api.Post("/sources/{id}/reprocess", sourceHandler.ReprocessSource)
		api.Post("/sources/{id}/tags", sourceHandler.TagSource)

		api.Post("/tags", sourceHandler.CreateTag)
		api.Get("/tags", sourceHandler.ListTags)

		api.Post("/retrieve", retrievalHandler.Retrieve)
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}
