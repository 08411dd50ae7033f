// Command seed bulk-ingests a directory of documents through the same
// extract/chunk/embed pipeline the upload endpoint uses.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"ragchat/db"
	"ragchat/internal/chunker"
	"ragchat/internal/index"
	"ragchat/internal/openai"
	"ragchat/internal/repository"
	"ragchat/internal/service"
	"ragchat/internal/store"
	"ragchat/internal/store/memory"
	"ragchat/pkg/config"
	"ragchat/pkg/logger"
	"ragchat/pkg/postgres"

	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "seed", "directory of documents to ingest")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := context.Background()

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
		appLogger.Warn("Seeding the in-memory store; data is lost when this process exits")
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

	entries, err := os.ReadDir(*dir)
	if err != nil {
		appLogger.Fatal("Failed to read seed directory", zap.String("dir", *dir), zap.Error(err))
	}

	ingested, skipped := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !allowedExtension(entry.Name(), cfg.Upload.AllowedExtensions) {
			appLogger.Debug("Skipping unsupported file", zap.String("file", entry.Name()))
			skipped++
			continue
		}

		path := filepath.Join(*dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			appLogger.Error("Failed to read file", zap.String("path", path), zap.Error(err))
			skipped++
			continue
		}

		doc, created, err := docService.Upload(ctx, data, entry.Name())
		if err != nil {
			appLogger.Error("Failed to ingest file", zap.String("path", path), zap.Error(err))
			skipped++
			continue
		}
		if !created {
			appLogger.Info("Already ingested, skipping", zap.String("file", entry.Name()), zap.String("id", doc.ID.String()))
			skipped++
			continue
		}

		appLogger.Info("Ingested document",
			zap.String("file", entry.Name()),
			zap.String("id", doc.ID.String()),
		)
		ingested++
	}

	appLogger.Info("Seeding finished", zap.Int("ingested", ingested), zap.Int("skipped", skipped))
}

func allowedExtension(fileName string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, e := range allowed {
		if ext == strings.TrimSpace(e) {
			return true
		}
	}
	return false
}
