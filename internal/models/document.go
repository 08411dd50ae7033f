package models

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	ID          uuid.UUID `db:"id"`
	FileName    string    `db:"file_name"`
	MediaType   string    `db:"media_type"`
	FileSize    int64     `db:"file_size"`
	ContentHash string    `db:"content_hash"` // SHA-256 hex of the raw bytes
	CreatedAt   time.Time `db:"created_at"`
}

// Chunk is a bounded contiguous span of a document's text, the unit of
// embedding and retrieval. Seq is zero-based and contiguous per document.
type Chunk struct {
	ID         uuid.UUID `db:"id"`
	DocumentID uuid.UUID `db:"document_id"`
	Seq        int       `db:"seq"`
	Text       string    `db:"text"`
	TokenCount int       `db:"token_count"`
	CreatedAt  time.Time `db:"created_at"`
}

// Embedding is the vector representation of exactly one chunk. It shares
// the chunk's lifecycle: deleting the chunk deletes the embedding.
type Embedding struct {
	ID      uuid.UUID `db:"id"`
	ChunkID uuid.UUID `db:"chunk_id"`
	Vector  []float32 `db:"vector"`
}
