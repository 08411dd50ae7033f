// Package repository is the postgres-backed DocumentStore. Chunks hang
// off documents with ON DELETE CASCADE, and embeddings hang off chunks
// the same way, so document deletion is a single statement. Embedding
// vectors live in a pgvector column.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	"ragchat/internal/models"
	"ragchat/internal/store"
)

type DocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

var _ store.DocumentStore = (*DocumentRepository)(nil)

func NewDocumentRepository(db *pgxpool.Pool, logger *zap.Logger) *DocumentRepository {
	return &DocumentRepository{db: db, logger: logger}
}

func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *models.Document) error {
	query := squirrel.Insert("documents").
		Columns("id", "file_name", "media_type", "file_size", "content_hash", "created_at").
		Values(doc.ID, doc.FileName, doc.MediaType, doc.FileSize, doc.ContentHash, doc.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, sql, args...)
	return err
}

func (r *DocumentRepository) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	query := squirrel.Select("id", "file_name", "media_type", "file_size", "content_hash", "created_at").
		From("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	return r.scanDocument(r.db.QueryRow(ctx, sql, args...))
}

func (r *DocumentRepository) GetDocumentByHash(ctx context.Context, contentHash string) (*models.Document, error) {
	query := squirrel.Select("id", "file_name", "media_type", "file_size", "content_hash", "created_at").
		From("documents").
		Where(squirrel.Eq{"content_hash": contentHash}).
		OrderBy("created_at ASC").
		Limit(1).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	return r.scanDocument(r.db.QueryRow(ctx, sql, args...))
}

func (r *DocumentRepository) scanDocument(row pgx.Row) (*models.Document, error) {
	var doc models.Document
	err := row.Scan(&doc.ID, &doc.FileName, &doc.MediaType, &doc.FileSize, &doc.ContentHash, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	query := squirrel.Select("id", "file_name", "media_type", "file_size", "content_hash", "created_at").
		From("documents").
		OrderBy("created_at ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documents []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.FileName, &doc.MediaType, &doc.FileSize, &doc.ContentHash, &doc.CreatedAt); err != nil {
			return nil, err
		}
		documents = append(documents, &doc)
	}
	return documents, rows.Err()
}

// CreateChunks writes a document's chunks and embeddings in one
// transaction so a failed embed insert never leaves text without its
// vector.
func (r *DocumentRepository) CreateChunks(ctx context.Context, chunks []*models.Chunk, embeddings []*models.Embedding) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("chunk/embedding count mismatch: %d vs %d", len(chunks), len(embeddings))
	}
	vectorByChunk := make(map[uuid.UUID]*models.Embedding, len(embeddings))
	for _, emb := range embeddings {
		vectorByChunk[emb.ChunkID] = emb
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, chunk := range chunks {
		emb, ok := vectorByChunk[chunk.ID]
		if !ok {
			return fmt.Errorf("missing embedding for chunk %s", chunk.ID)
		}

		insertChunk := squirrel.Insert("chunks").
			Columns("id", "document_id", "seq", "text", "token_count", "created_at").
			Values(chunk.ID, chunk.DocumentID, chunk.Seq, chunk.Text, chunk.TokenCount, chunk.CreatedAt).
			PlaceholderFormat(squirrel.Dollar)
		sql, args, err := insertChunk.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunk.ID, err)
		}

		insertEmbedding := squirrel.Insert("embeddings").
			Columns("id", "chunk_id", "vector").
			Values(emb.ID, emb.ChunkID, pgvector.NewVector(emb.Vector)).
			PlaceholderFormat(squirrel.Dollar)
		sql, args, err = insertEmbedding.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("failed to insert embedding for chunk %s: %w", chunk.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *DocumentRepository) ListChunks(ctx context.Context, documentID uuid.UUID) ([]*models.Chunk, error) {
	query := squirrel.Select("id", "document_id", "seq", "text", "token_count", "created_at").
		From("chunks").
		Where(squirrel.Eq{"document_id": documentID}).
		OrderBy("seq ASC").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*models.Chunk
	for rows.Next() {
		var chunk models.Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Seq, &chunk.Text, &chunk.TokenCount, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

func (r *DocumentRepository) GetChunk(ctx context.Context, chunkID uuid.UUID) (*models.Chunk, error) {
	query := squirrel.Select("id", "document_id", "seq", "text", "token_count", "created_at").
		From("chunks").
		Where(squirrel.Eq{"id": chunkID}).
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var chunk models.Chunk
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&chunk.ID, &chunk.DocumentID, &chunk.Seq, &chunk.Text, &chunk.TokenCount, &chunk.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

func (r *DocumentRepository) ListEmbeddings(ctx context.Context) ([]*models.Embedding, error) {
	query := squirrel.Select("id", "chunk_id", "vector").
		From("embeddings").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var embeddings []*models.Embedding
	for rows.Next() {
		var emb models.Embedding
		var vector pgvector.Vector
		if err := rows.Scan(&emb.ID, &emb.ChunkID, &vector); err != nil {
			return nil, err
		}
		emb.Vector = vector.Slice()
		embeddings = append(embeddings, &emb)
	}
	return embeddings, rows.Err()
}

// DeleteDocument removes the document row; the chunk and embedding rows
// go with it via ON DELETE CASCADE. The removed chunk ids are collected
// first so the caller can evict them from the similarity index.
func (r *DocumentRepository) DeleteDocument(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	chunks, err := r.ListChunks(ctx, id)
	if err != nil {
		return nil, err
	}
	removed := make([]uuid.UUID, 0, len(chunks))
	for _, chunk := range chunks {
		removed = append(removed, chunk.ID)
	}

	query := squirrel.Delete("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(squirrel.Dollar)
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}
	return removed, nil
}
