package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ragchat/internal/chunker"
	"ragchat/internal/index"
	"ragchat/internal/store/memory"
)

// positionalEmbedder produces a deterministic vector per input so batch
// pipelines can run without canned fixtures.
type positionalEmbedder struct {
	dimension int
	err       error
}

func (p *positionalEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *positionalEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if p.err != nil {
		return nil, p.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, p.dimension)
		for j := range vec {
			vec[j] = float32(len(texts[i])%(j+2)) + float32(i)
		}
		out[i] = vec
	}
	return out, nil
}

func (p *positionalEmbedder) Dimension() int { return p.dimension }

func newDocumentService(t *testing.T, embedder *positionalEmbedder) (*DocumentService, *memory.Store, *index.Index) {
	t.Helper()
	docs := memory.New()
	ix, err := index.New(embedder.dimension)
	require.NoError(t, err)
	textChunker, err := chunker.New(8, 2)
	require.NoError(t, err)
	return NewDocumentService(docs, embedder, textChunker, ix, zap.NewNop()), docs, ix
}

func manyWords(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%d", i)
	}
	return strings.Join(parts, " ")
}

func TestUpload_ChunksEmbedsAndIndexes(t *testing.T) {
	svc, docs, ix := newDocumentService(t, &positionalEmbedder{dimension: 4})
	ctx := context.Background()

	doc, created, err := svc.Upload(ctx, []byte(manyWords(20)), "notes.txt")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "text/plain", doc.MediaType)
	assert.NotEmpty(t, doc.ContentHash)

	chunks, err := docs.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Seq)
		assert.Positive(t, chunk.TokenCount)
	}
	assert.Equal(t, len(chunks), ix.Len())
}

func TestUpload_IdenticalBytesAreIdempotent(t *testing.T) {
	svc, _, ix := newDocumentService(t, &positionalEmbedder{dimension: 4})
	ctx := context.Background()

	data := []byte(manyWords(20))
	first, created, err := svc.Upload(ctx, data, "a.txt")
	require.NoError(t, err)
	require.True(t, created)
	indexed := ix.Len()

	// Same bytes under a different name: no new document, no re-indexing.
	second, created, err := svc.Upload(ctx, data, "b.txt")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, indexed, ix.Len())
}

func TestUpload_EmbeddingFailureLeavesNoPartialState(t *testing.T) {
	svc, docs, ix := newDocumentService(t, &positionalEmbedder{dimension: 4, err: errors.New("quota exceeded")})
	ctx := context.Background()

	_, _, err := svc.Upload(ctx, []byte(manyWords(20)), "a.txt")
	require.Error(t, err)

	all, err := docs.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Zero(t, ix.Len())
}

func TestUpload_EmptyDocumentHasNoChunks(t *testing.T) {
	svc, docs, ix := newDocumentService(t, &positionalEmbedder{dimension: 4})
	ctx := context.Background()

	doc, created, err := svc.Upload(ctx, []byte("   \n  "), "empty.txt")
	require.NoError(t, err)
	assert.True(t, created)

	chunks, err := docs.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Zero(t, ix.Len())
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	svc, _, _ := newDocumentService(t, &positionalEmbedder{dimension: 4})

	_, _, err := svc.Upload(context.Background(), []byte("x"), "image.png")
	assert.Error(t, err)
}

func TestDelete_CascadesAndClearsIndex(t *testing.T) {
	svc, docs, ix := newDocumentService(t, &positionalEmbedder{dimension: 4})
	ctx := context.Background()

	doc, _, err := svc.Upload(ctx, []byte(manyWords(20)), "a.txt")
	require.NoError(t, err)
	require.Positive(t, ix.Len())

	require.NoError(t, svc.Delete(ctx, doc.ID))

	chunks, err := docs.ListChunks(ctx, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	assert.Zero(t, ix.Len())

	// Idempotent: deleting again is a no-op.
	require.NoError(t, svc.Delete(ctx, doc.ID))
}

func TestRebuildIndex(t *testing.T) {
	embedder := &positionalEmbedder{dimension: 4}
	svc, docs, _ := newDocumentService(t, embedder)
	ctx := context.Background()

	_, _, err := svc.Upload(ctx, []byte(manyWords(20)), "a.txt")
	require.NoError(t, err)

	// Simulate a restart: fresh index over the same store.
	fresh, err := index.New(4)
	require.NoError(t, err)
	restarted := NewDocumentService(docs, embedder, mustChunker(t), fresh, zap.NewNop())

	require.NoError(t, restarted.RebuildIndex(ctx))
	embeddings, err := docs.ListEmbeddings(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(embeddings), fresh.Len())
}

func mustChunker(t *testing.T) *chunker.Chunker {
	t.Helper()
	c, err := chunker.New(8, 2)
	require.NoError(t, err)
	return c
}
