// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/avoronov/textura/internal/config"
	"github.com/avoronov/textura/internal/core"
	db "github.com/avoronov/textura/internal/core/database"
	"github.com/avoronov/textura/internal/core/extract"
	"github.com/avoronov/textura/internal/core/llm"
	objectclient "github.com/avoronov/textura/internal/core/object-client"
	"github.com/avoronov/textura/internal/services"
)

type App struct {
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Ingestor     *services.DocumentIngestor
	Server       *Server
	Log          *log.Logger
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	logger := log.Default()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("object client initialized and ready")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder, %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm, %w", err)
	}

	registry := extract.NewRegistry()
	docService := services.NewDocumentService(dbClient, objClient, registry, cfg.BucketName)
	ingestor := services.NewDocumentIngestor(dbClient, objClient, geminiEmbedder, cfg, logger)
	ingestor.Start(ctx, cfg.IngestWorkers)

	server := NewServer(cfg, dbClient, docService, ingestor, geminiEmbedder, llmProvider, logger)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		Ingestor:     ingestor,
		Server:       server,
		Log:          logger,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
