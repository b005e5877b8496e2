package app

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/avoronov/textura/internal/api/handlers"
	appMiddleware "github.com/avoronov/textura/internal/api/middlewares"
	"github.com/avoronov/textura/internal/config"
	"github.com/avoronov/textura/internal/core"
	"github.com/avoronov/textura/internal/services"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *log.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, db core.DbClient, docs *services.DocumentService, ing *services.DocumentIngestor, emb core.EmbeddingProvider, llm core.LLMProvider, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	authHandler := handlers.NewAuthHandler(db)
	docHandler := handlers.NewDocumentHandler(docs, ing, logger)
	chatHandler := handlers.NewChatHandler(db, emb, llm)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// API routes
	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// protected endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware)
			protected.Post("/documents/upload", docHandler.UploadDocument)
			protected.Get("/documents", docHandler.GetDocuments)
			protected.Get("/documents/{id}", docHandler.GetDocument)
			protected.Post("/chat/query", chatHandler.QueryDocument)
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv, log: logger}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Fatal("server error", "error", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
