// Package index provides an in-memory cosine-similarity index over chunk
// embeddings. Lookups are a linear scan over all stored vectors, which is
// adequate for the small single-document corpora this service targets; it
// is a scalability ceiling, not a correctness limit.
package index

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var ErrDimensionMismatch = errors.New("index: vector dimension mismatch")

// Match is one search hit: a chunk and its cosine similarity to the query.
type Match struct {
	ChunkID uuid.UUID
	Score   float64
}

type Index struct {
	mu        sync.RWMutex
	dimension int
	vectors   map[uuid.UUID][]float32
}

// New creates an index for vectors of the given fixed dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("index: dimension must be positive, got %d", dimension)
	}
	return &Index{
		dimension: dimension,
		vectors:   make(map[uuid.UUID][]float32),
	}, nil
}

func (ix *Index) Dimension() int { return ix.dimension }

// Add stores the vector for a chunk, replacing any previous vector for the
// same chunk. Vectors of the wrong dimension are rejected, never truncated
// or padded.
func (ix *Index) Add(chunkID uuid.UUID, vector []float32) error {
	if len(vector) != ix.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), ix.dimension)
	}
	owned := make([]float32, len(vector))
	copy(owned, vector)

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.vectors[chunkID] = owned
	return nil
}

// Remove drops the vectors for the given chunks. Unknown ids are ignored.
func (ix *Index) Remove(chunkIDs ...uuid.UUID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	for _, id := range chunkIDs {
		delete(ix.vectors, id)
	}
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// TopK returns the k most similar chunks to query, descending by score.
// Equal scores are ordered by ascending chunk id so repeated calls on an
// unchanged index return an identical result. k <= 0 yields an empty
// result; k larger than the index returns everything.
func (ix *Index) TopK(query []float32, k int) ([]Match, error) {
	if len(query) != ix.dimension {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(query), ix.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	ix.mu.RLock()
	matches := make([]Match, 0, len(ix.vectors))
	for id, vec := range ix.vectors {
		matches = append(matches, Match{ChunkID: id, Score: cosineSimilarity(query, vec)})
	}
	ix.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return bytes.Compare(matches[i].ChunkID[:], matches[j].ChunkID[:]) < 0
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// cosineSimilarity is dot(a,b) / (||a||*||b||); zero-norm vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
