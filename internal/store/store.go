// Package store defines the persistence contract for documents, their
// chunks, and chunk embeddings. Two implementations exist: an in-memory
// store (store/memory) and a postgres-backed one (internal/repository).
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"ragchat/internal/models"
)

var ErrNotFound = errors.New("store: not found")

type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	// GetDocument returns ErrNotFound for an unknown id.
	GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error)
	// GetDocumentByHash returns ErrNotFound when no document has the hash.
	GetDocumentByHash(ctx context.Context, contentHash string) (*models.Document, error)
	ListDocuments(ctx context.Context) ([]*models.Document, error)

	// CreateChunks stores a document's chunks together with their
	// embeddings. Chunk seq values must be contiguous from 0; embeddings
	// must map 1:1 onto chunks by ChunkID.
	CreateChunks(ctx context.Context, chunks []*models.Chunk, embeddings []*models.Embedding) error
	// ListChunks returns a document's chunks ordered by seq. An unknown
	// document yields an empty result, not an error.
	ListChunks(ctx context.Context, documentID uuid.UUID) ([]*models.Chunk, error)
	GetChunk(ctx context.Context, chunkID uuid.UUID) (*models.Chunk, error)
	// ListEmbeddings returns every stored embedding; used to rebuild the
	// in-memory similarity index at startup.
	ListEmbeddings(ctx context.Context) ([]*models.Embedding, error)

	// DeleteDocument removes a document, its chunks, and their embeddings.
	// Deleting an unknown id is a no-op so retries stay cheap. It returns
	// the ids of the chunks that were removed.
	DeleteDocument(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
}
