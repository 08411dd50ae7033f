package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"ragchat/internal/models"
	"ragchat/internal/openai"
)

// ErrNoKnowledgeBase rejects mutations that require an initialized
// knowledge base.
var ErrNoKnowledgeBase = errors.New("no knowledge base is configured")

// VectorStoreAPI is the slice of the provider API the knowledge-base
// manager consumes.
type VectorStoreAPI interface {
	CreateVectorStore(ctx context.Context, name string) (*openai.VectorStore, error)
	GetVectorStore(ctx context.Context, storeID string) (*openai.VectorStore, error)
	DeleteVectorStore(ctx context.Context, storeID string) error
	UploadFile(ctx context.Context, data []byte, fileName, purpose string) (string, error)
	AttachFile(ctx context.Context, storeID, fileID string) error
	ListVectorStoreFiles(ctx context.Context, storeID string) ([]models.KnowledgeBaseFile, error)
	WaitForIngestion(ctx context.Context, storeID, fileID string, timeout time.Duration) error
}

// ingestionWaitTimeout bounds how long a write waits for the provider to
// finish processing an attached file before giving up.
const ingestionWaitTimeout = 2 * time.Minute

// KnowledgeService manages the single external vector-store handle of
// this deployment. The handle is persisted as a small JSON record at a
// well-known path and survives restarts; the in-memory copy is read
// lazily and cached, with the "checked" flag sticky even when no handle
// exists so storage is not re-read on every request.
//
// Record writes are serialised in-process by mu, keeping the cached
// handle and the file in step. Across processes the record stays
// last-writer-wins.
type KnowledgeService struct {
	api        VectorStoreAPI
	handlePath string
	logger     *zap.Logger

	mu      sync.Mutex
	cached  *models.KnowledgeBaseHandle
	checked bool
}

func NewKnowledgeService(api VectorStoreAPI, handlePath string, logger *zap.Logger) *KnowledgeService {
	return &KnowledgeService{api: api, handlePath: handlePath, logger: logger}
}

// KnowledgeBaseInfo is the query-side summary of the current handle.
type KnowledgeBaseInfo struct {
	Handle models.KnowledgeBaseHandle `json:"handle"`
	Files  []models.KnowledgeBaseFile `json:"files,omitempty"`
}

// Initialize creates the external vector store, uploads and attaches the
// first document, waits for its ingestion to finish, and persists the
// handle. The handle is written only on full success; a failure part-way
// leaves an orphaned external resource but no dangling local state. A
// prior handle is replaced wholesale.
func (s *KnowledgeService) Initialize(ctx context.Context, data []byte, fileName, name string) (*models.KnowledgeBaseHandle, error) {
	vectorStore, err := s.api.CreateVectorStore(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}

	fileID, err := s.api.UploadFile(ctx, data, fileName, "assistants")
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}
	if err := s.api.AttachFile(ctx, vectorStore.ID, fileID); err != nil {
		return nil, fmt.Errorf("failed to attach file: %w", err)
	}
	if err := s.api.WaitForIngestion(ctx, vectorStore.ID, fileID, ingestionWaitTimeout); err != nil {
		return nil, fmt.Errorf("failed to ingest file: %w", err)
	}

	now := time.Now().UTC()
	handle := &models.KnowledgeBaseHandle{
		VectorStoreID: vectorStore.ID,
		Name:          name,
		CreatedAt:     now,
		LastUpdated:   now,
	}
	if err := s.persist(handle); err != nil {
		return nil, err
	}

	s.logger.Info("knowledge base initialized",
		zap.String("vector_store_id", handle.VectorStoreID),
		zap.String("name", name),
		zap.String("file_id", fileID),
	)
	return handle, nil
}

// AddFile uploads and attaches another document to the existing knowledge
// base, waiting for ingestion before the handle's timestamp is bumped.
// Without an initialized handle it fails with ErrNoKnowledgeBase.
func (s *KnowledgeService) AddFile(ctx context.Context, data []byte, fileName string) (string, error) {
	handle, err := s.handle()
	if err != nil {
		return "", err
	}
	if handle == nil {
		return "", ErrNoKnowledgeBase
	}

	fileID, err := s.api.UploadFile(ctx, data, fileName, "assistants")
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	if err := s.api.AttachFile(ctx, handle.VectorStoreID, fileID); err != nil {
		return "", fmt.Errorf("failed to attach file: %w", err)
	}
	if err := s.api.WaitForIngestion(ctx, handle.VectorStoreID, fileID, ingestionWaitTimeout); err != nil {
		return "", fmt.Errorf("failed to ingest file: %w", err)
	}

	updated := *handle
	updated.LastUpdated = time.Now().UTC()
	if err := s.persist(&updated); err != nil {
		return "", err
	}

	s.logger.Info("file added to knowledge base",
		zap.String("vector_store_id", handle.VectorStoreID),
		zap.String("file_id", fileID),
	)
	return fileID, nil
}

// GetInfo returns a summary of the configured knowledge base, or nil when
// none exists. A handle whose vector store was deleted out-of-band counts
// as absent. Provider errors while querying degrade to a summary without
// file statuses; absence of detail is not a failure for a query.
func (s *KnowledgeService) GetInfo(ctx context.Context) (*KnowledgeBaseInfo, error) {
	handle, err := s.handle()
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, nil
	}

	info := &KnowledgeBaseInfo{Handle: *handle}

	vectorStore, err := s.api.GetVectorStore(ctx, handle.VectorStoreID)
	if err != nil {
		s.logger.Warn("failed to check vector store",
			zap.String("vector_store_id", handle.VectorStoreID),
			zap.Error(err),
		)
		return info, nil
	}
	if vectorStore == nil {
		s.logger.Warn("handle refers to a missing vector store",
			zap.String("vector_store_id", handle.VectorStoreID),
		)
		return nil, nil
	}

	files, err := s.api.ListVectorStoreFiles(ctx, handle.VectorStoreID)
	if err != nil {
		s.logger.Warn("failed to list knowledge base files",
			zap.String("vector_store_id", handle.VectorStoreID),
			zap.Error(err),
		)
		return info, nil
	}
	info.Files = files
	return info, nil
}

// Delete tears the knowledge base down: external resource first, then the
// persisted record. Returns false when there was nothing to delete.
func (s *KnowledgeService) Delete(ctx context.Context) (bool, error) {
	handle, err := s.handle()
	if err != nil {
		return false, err
	}
	if handle == nil {
		return false, nil
	}

	if err := s.api.DeleteVectorStore(ctx, handle.VectorStoreID); err != nil {
		return false, fmt.Errorf("failed to delete vector store %s: %w", handle.VectorStoreID, err)
	}
	if err := s.removeRecord(); err != nil {
		return false, err
	}

	s.logger.Info("knowledge base deleted", zap.String("vector_store_id", handle.VectorStoreID))
	return true, nil
}

// Description implements llm.ContextSource for the static injection mode:
// the same knowledge-base summary regardless of query. Empty when no
// knowledge base is configured.
func (s *KnowledgeService) Description(ctx context.Context, _ string) (string, error) {
	handle, err := s.handle()
	if err != nil {
		return "", err
	}
	if handle == nil {
		return "", nil
	}
	return fmt.Sprintf(
		"A knowledge base named %q is attached to this assistant (vector store %s, last updated %s). "+
			"Prefer its contents when answering questions about it.",
		handle.Name, handle.VectorStoreID, handle.LastUpdated.Format(time.RFC3339),
	), nil
}

// RelevantContext lets the static mode plug straight into the chat
// decorator.
func (s *KnowledgeService) RelevantContext(ctx context.Context, query string) (string, error) {
	return s.Description(ctx, query)
}

// Refresh drops the cached handle so the next access re-reads storage.
func (s *KnowledgeService) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
	s.checked = false
}

// handle returns the cached handle, reading it from disk on first use.
// A missing record is cached as "no handle" until Refresh.
func (s *KnowledgeService) handle() (*models.KnowledgeBaseHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checked {
		return s.cached, nil
	}

	data, err := os.ReadFile(s.handlePath)
	if errors.Is(err, os.ErrNotExist) {
		s.cached = nil
		s.checked = true
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge base record: %w", err)
	}

	var handle models.KnowledgeBaseHandle
	if err := json.Unmarshal(data, &handle); err != nil {
		return nil, fmt.Errorf("failed to parse knowledge base record: %w", err)
	}
	s.cached = &handle
	s.checked = true
	return s.cached, nil
}

// persist writes the record and updates the cache under one critical
// section so concurrent writers cannot commit file and cache in opposite
// orders.
func (s *KnowledgeService) persist(handle *models.KnowledgeBaseHandle) error {
	data, err := json.MarshalIndent(handle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode knowledge base record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.handlePath), 0o755); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}
	if err := os.WriteFile(s.handlePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write knowledge base record: %w", err)
	}
	s.cached = handle
	s.checked = true
	return nil
}

func (s *KnowledgeService) removeRecord() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.handlePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove knowledge base record: %w", err)
	}
	s.cached = nil
	s.checked = true
	return nil
}
