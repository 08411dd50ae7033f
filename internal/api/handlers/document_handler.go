package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"ragchat/internal/dto"
	"ragchat/internal/models"
	"ragchat/internal/service"
	"ragchat/internal/store"
	"ragchat/pkg/config"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DocumentHandler struct {
	docService *service.DocumentService
	upload     config.UploadConfig
	logger     *zap.Logger
}

func NewDocumentHandler(docService *service.DocumentService, upload config.UploadConfig, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		upload:     upload,
		logger:     logger,
	}
}

// validateUpload enforces the extension allow-list and the size cap
// before any bytes are read into memory.
func (h *DocumentHandler) validateUpload(file *multipart.FileHeader) error {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := false
	for _, e := range h.upload.AllowedExtensions {
		if ext == strings.TrimSpace(e) {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("file type %q is not supported", ext)
	}
	if file.Size > h.upload.MaxBytes {
		return fmt.Errorf("file exceeds the %d byte limit", h.upload.MaxBytes)
	}
	return nil
}

func readMultipartFile(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()
	return io.ReadAll(src)
}

// Upload godoc
// @Summary Upload a document into the retrieval corpus
// @Description Extracts text, chunks, embeds and indexes the document. Re-uploading identical bytes returns the existing document.
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document file (.pdf, .txt, .md, .docx)"
// @Security Bearer
// @Success 201 {object} dto.DocumentResponse
// @Success 200 {object} dto.DocumentResponse
// @Failure 400 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Router /api/v1/documents/upload [post]
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	if err := h.validateUpload(file); err != nil {
		status := fiber.StatusBadRequest
		if file.Size > h.upload.MaxBytes {
			status = fiber.StatusRequestEntityTooLarge
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	data, err := readMultipartFile(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}

	doc, created, err := h.docService.Upload(c.Context(), data, file.Filename)
	if err != nil {
		h.logger.Error("Failed to upload document", zap.String("file", file.Filename), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process document",
		})
	}

	status := fiber.StatusCreated
	if !created {
		status = fiber.StatusOK
	}
	resp := toDocumentResponse(doc)
	resp.Duplicate = !created
	return c.Status(status).JSON(resp)
}

// List godoc
// @Summary List indexed documents
// @Tags documents
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.ListDocumentsResponse
// @Router /api/v1/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	docs, err := h.docService.List(c.Context())
	if err != nil {
		h.logger.Error("Failed to list documents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list documents",
		})
	}

	resp := dto.ListDocumentsResponse{
		Documents: make([]dto.DocumentResponse, 0, len(docs)),
		Total:     len(docs),
	}
	for _, doc := range docs {
		resp.Documents = append(resp.Documents, toDocumentResponse(doc))
	}
	return c.JSON(resp)
}

// ListChunks godoc
// @Summary List the chunks of a document in ingestion order
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 200 {object} dto.ListChunksResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/v1/documents/{id}/chunks [get]
func (h *DocumentHandler) ListChunks(c *fiber.Ctx) error {
	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	if _, err := h.docService.Get(c.Context(), documentID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Document not found",
			})
		}
		h.logger.Error("Failed to load document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load document",
		})
	}

	chunks, err := h.docService.ListChunks(c.Context(), documentID)
	if err != nil {
		h.logger.Error("Failed to list chunks", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list chunks",
		})
	}

	resp := dto.ListChunksResponse{
		DocumentID: documentID.String(),
		Chunks:     make([]dto.ChunkResponse, 0, len(chunks)),
		Total:      len(chunks),
	}
	for _, chunk := range chunks {
		resp.Chunks = append(resp.Chunks, dto.ChunkResponse{
			ID:         chunk.ID.String(),
			DocumentID: chunk.DocumentID.String(),
			Seq:        chunk.Seq,
			Text:       chunk.Text,
			TokenCount: chunk.TokenCount,
		})
	}
	return c.JSON(resp)
}

// Delete godoc
// @Summary Delete a document and its chunks and embeddings
// @Tags documents
// @Produce json
// @Param id path string true "Document ID"
// @Security Bearer
// @Success 204
// @Failure 400 {object} map[string]string
// @Router /api/v1/documents/{id} [delete]
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	documentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	if err := h.docService.Delete(c.Context(), documentID); err != nil {
		h.logger.Error("Failed to delete document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete document",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toDocumentResponse(doc *models.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		ID:          doc.ID.String(),
		FileName:    doc.FileName,
		MediaType:   doc.MediaType,
		FileSize:    doc.FileSize,
		ContentHash: doc.ContentHash,
		CreatedAt:   doc.CreatedAt.Format(time.RFC3339),
	}
}
