package openai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ragchat/internal/models"
)

// VectorStore is the provider-side named store documents are attached to.
type VectorStore struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// CreateVectorStore creates a named store and returns it.
func (c *Client) CreateVectorStore(ctx context.Context, name string) (*VectorStore, error) {
	var store VectorStore
	if err := c.postJSON(ctx, "/vector_stores", map[string]any{"name": name}, &store); err != nil {
		return nil, fmt.Errorf("failed to create vector store: %w", err)
	}
	c.logger.Info("vector store created",
		zap.String("vector_store_id", store.ID),
		zap.String("name", name),
	)
	return &store, nil
}

// GetVectorStore fetches a store by id; a missing store returns
// (nil, nil) so callers can treat absence as a benign negative.
func (c *Client) GetVectorStore(ctx context.Context, storeID string) (*VectorStore, error) {
	var store VectorStore
	err := c.getJSON(ctx, "/vector_stores/"+storeID, &store)
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vector store %s: %w", storeID, err)
	}
	return &store, nil
}

// DeleteVectorStore removes a store. An already-absent store is not an
// error.
func (c *Client) DeleteVectorStore(ctx context.Context, storeID string) error {
	err := c.delete(ctx, "/vector_stores/"+storeID)
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete vector store %s: %w", storeID, err)
	}
	c.logger.Info("vector store deleted", zap.String("vector_store_id", storeID))
	return nil
}

// AttachFile associates an uploaded file with a vector store so the
// provider ingests it.
func (c *Client) AttachFile(ctx context.Context, storeID, fileID string) error {
	payload := map[string]any{"file_id": fileID}
	if err := c.postJSON(ctx, "/vector_stores/"+storeID+"/files", payload, nil); err != nil {
		return fmt.Errorf("failed to attach file %s to vector store %s: %w", fileID, storeID, err)
	}
	return nil
}

// ListVectorStoreFiles returns the files attached to a store together
// with their ingestion status.
func (c *Client) ListVectorStoreFiles(ctx context.Context, storeID string) ([]models.KnowledgeBaseFile, error) {
	var resp struct {
		Data []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/vector_stores/"+storeID+"/files", &resp); err != nil {
		return nil, fmt.Errorf("failed to list vector store files: %w", err)
	}

	files := make([]models.KnowledgeBaseFile, 0, len(resp.Data))
	for _, f := range resp.Data {
		files = append(files, models.KnowledgeBaseFile{
			ID:     f.ID,
			Status: models.FileStatus(f.Status),
		})
	}
	return files, nil
}

// WaitForIngestion polls a file's status until it leaves in_progress or
// the deadline passes. Failed or cancelled ingestion is an error; a
// timeout is reported as such so callers can decide whether to care.
func (c *Client) WaitForIngestion(ctx context.Context, storeID, fileID string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		files, err := c.ListVectorStoreFiles(ctx, storeID)
		if err != nil {
			return err
		}
		for _, f := range files {
			if f.ID != fileID {
				continue
			}
			switch f.Status {
			case models.FileStatusCompleted:
				return nil
			case models.FileStatusFailed, models.FileStatusCancelled:
				return fmt.Errorf("ingestion of file %s ended with status %s", fileID, f.Status)
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("ingestion of file %s still in progress after %s", fileID, timeout)
		}
		if err := retryAfter(ctx, time.Second); err != nil {
			return err
		}
	}
}
