package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ragchat/db"
	"ragchat/internal/api"
	"ragchat/internal/api/handlers"
	"ragchat/internal/chunker"
	"ragchat/internal/index"
	"ragchat/internal/llm"
	"ragchat/internal/openai"
	"ragchat/internal/repository"
	"ragchat/internal/service"
	"ragchat/internal/store"
	"ragchat/internal/store/memory"
	"ragchat/pkg/auth"
	"ragchat/pkg/config"
	"ragchat/pkg/logger"
	"ragchat/pkg/postgres"

	"go.uber.org/zap"
)

// @title RAG Chat API
// @version 1.0
// @description Document-grounded chat service: upload documents, retrieve relevant chunks, chat with injected context.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting RAG chat service",
		zap.String("storage", string(cfg.Database.Driver)),
		zap.String("context_mode", string(cfg.RAG.Mode)),
	)

	ctx := context.Background()

	// Storage driver: in-process maps, or postgres with migrations.
	var docStore store.DocumentStore
	switch cfg.Database.Driver {
	case config.StoragePostgres:
		if err := db.Migrate(cfg.Database.URL(), appLogger); err != nil {
			appLogger.Fatal("Failed to run migrations", zap.Error(err))
		}
		pool, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer pool.Close()
		docStore = repository.NewDocumentRepository(pool, appLogger)
	default:
		docStore = memory.New()
	}

	client, err := openai.NewClient(&cfg.OpenAI, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize OpenAI client", zap.Error(err))
	}
	defer client.Close()

	embedder := openai.NewEmbeddingClient(client, cfg.RAG.EmbeddingModel, cfg.RAG.EmbeddingDimension, appLogger)

	vectorIndex, err := index.New(cfg.RAG.EmbeddingDimension)
	if err != nil {
		appLogger.Fatal("Failed to create vector index", zap.Error(err))
	}

	textChunker, err := chunker.New(cfg.RAG.ChunkMaxTokens, cfg.RAG.ChunkOverlapTokens)
	if err != nil {
		appLogger.Fatal("Failed to create chunker", zap.Error(err))
	}

	docService := service.NewDocumentService(docStore, embedder, textChunker, vectorIndex, appLogger)

	// Persistent storage survives restarts; the in-memory index does not.
	if cfg.Database.Driver == config.StoragePostgres {
		if err := docService.RebuildIndex(ctx); err != nil {
			appLogger.Fatal("Failed to rebuild vector index", zap.Error(err))
		}
		appLogger.Info("Vector index rebuilt", zap.Int("vectors", vectorIndex.Len()))
	}

	ragService := service.NewRAGService(embedder, vectorIndex, docStore, cfg.RAG.TopK, appLogger)
	knowledgeService := service.NewKnowledgeService(client, cfg.Knowledge.HandlePath, appLogger)

	// Context mode picks the decoration strategy for the chat surface.
	var chatClient llm.Client
	switch cfg.RAG.Mode {
	case config.ContextModeRetrieval:
		chatClient = llm.NewContextInjector(client, ragService, appLogger)
	case config.ContextModeStatic:
		chatClient = llm.NewContextInjector(client, knowledgeService, appLogger)
	default:
		chatClient = client
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	authHandler := handlers.NewAuthHandler(jwtManager, cfg.JWT.AccessKey, appLogger)
	docHandler := handlers.NewDocumentHandler(docService, cfg.Upload, appLogger)
	chatHandler := handlers.NewChatHandler(chatClient, appLogger)
	knowledgeHandler := handlers.NewKnowledgeHandler(knowledgeService, appLogger)

	app := api.SetupRouter(authHandler, docHandler, chatHandler, knowledgeHandler, jwtManager, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
