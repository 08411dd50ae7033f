package handlers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ragchat/internal/models"
	"ragchat/internal/openai"
)

// fakeKnowledgeAPI is an in-memory stand-in for the provider's files and
// vector-store endpoints.
type fakeKnowledgeAPI struct {
	mu       sync.Mutex
	nextID   int
	stores   map[string][]models.KnowledgeBaseFile
	storeIDs map[string]string
}

func newFakeKnowledgeAPI() *fakeKnowledgeAPI {
	return &fakeKnowledgeAPI{
		stores:   make(map[string][]models.KnowledgeBaseFile),
		storeIDs: make(map[string]string),
	}
}

func (f *fakeKnowledgeAPI) CreateVectorStore(ctx context.Context, name string) (*openai.VectorStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("vs_%d", f.nextID)
	f.stores[id] = nil
	f.storeIDs[id] = name
	return &openai.VectorStore{ID: id, Name: name, CreatedAt: time.Now().Unix()}, nil
}

func (f *fakeKnowledgeAPI) GetVectorStore(ctx context.Context, storeID string) (*openai.VectorStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.storeIDs[storeID]
	if !ok {
		return nil, nil
	}
	return &openai.VectorStore{ID: storeID, Name: name}, nil
}

func (f *fakeKnowledgeAPI) WaitForIngestion(ctx context.Context, storeID, fileID string, timeout time.Duration) error {
	return nil
}

func (f *fakeKnowledgeAPI) DeleteVectorStore(ctx context.Context, storeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stores, storeID)
	delete(f.storeIDs, storeID)
	return nil
}

func (f *fakeKnowledgeAPI) UploadFile(ctx context.Context, data []byte, fileName, purpose string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("file_%d", f.nextID), nil
}

func (f *fakeKnowledgeAPI) AttachFile(ctx context.Context, storeID, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.stores[storeID]; !ok {
		return fmt.Errorf("unknown vector store %s", storeID)
	}
	f.stores[storeID] = append(f.stores[storeID], models.KnowledgeBaseFile{
		ID:     fileID,
		Status: models.FileStatusCompleted,
	})
	return nil
}

func (f *fakeKnowledgeAPI) ListVectorStoreFiles(ctx context.Context, storeID string) ([]models.KnowledgeBaseFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	files, ok := f.stores[storeID]
	if !ok {
		return nil, fmt.Errorf("unknown vector store %s", storeID)
	}
	return append([]models.KnowledgeBaseFile(nil), files...), nil
}
