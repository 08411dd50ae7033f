package handlers

import (
	"errors"
	"time"

	"ragchat/internal/dto"
	"ragchat/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type KnowledgeHandler struct {
	knowledge *service.KnowledgeService
	logger    *zap.Logger
}

func NewKnowledgeHandler(knowledge *service.KnowledgeService, logger *zap.Logger) *KnowledgeHandler {
	return &KnowledgeHandler{
		knowledge: knowledge,
		logger:    logger,
	}
}

// Initialize godoc
// @Summary Create the provider-side knowledge base from a seed document
// @Tags knowledge
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Seed document"
// @Param name formData string true "Knowledge base name"
// @Security Bearer
// @Success 201 {object} dto.KnowledgeBaseResponse
// @Failure 400 {object} map[string]string
// @Router /api/v1/knowledge [post]
func (h *KnowledgeHandler) Initialize(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}
	name := c.FormValue("name")
	if name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	data, err := readMultipartFile(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}

	handle, err := h.knowledge.Initialize(c.Context(), data, file.Filename, name)
	if err != nil {
		h.logger.Error("Failed to initialize knowledge base", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to initialize knowledge base",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.KnowledgeBaseResponse{
		VectorStoreID: handle.VectorStoreID,
		Name:          handle.Name,
		CreatedAt:     handle.CreatedAt.Format(time.RFC3339),
		LastUpdated:   handle.LastUpdated.Format(time.RFC3339),
	})
}

// AddFile godoc
// @Summary Attach another document to the existing knowledge base
// @Tags knowledge
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Document"
// @Security Bearer
// @Success 201 {object} dto.KnowledgeFileResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/v1/knowledge/files [post]
func (h *KnowledgeHandler) AddFile(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	data, err := readMultipartFile(file)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}

	fileID, err := h.knowledge.AddFile(c.Context(), data, file.Filename)
	if err != nil {
		if errors.Is(err, service.ErrNoKnowledgeBase) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "No knowledge base has been initialized",
			})
		}
		h.logger.Error("Failed to add knowledge file", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add file",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.KnowledgeFileResponse{ID: fileID})
}

// Info godoc
// @Summary Describe the knowledge base and its files
// @Tags knowledge
// @Produce json
// @Security Bearer
// @Success 200 {object} dto.KnowledgeBaseResponse
// @Failure 404 {object} map[string]string
// @Router /api/v1/knowledge [get]
func (h *KnowledgeHandler) Info(c *fiber.Ctx) error {
	info, err := h.knowledge.GetInfo(c.Context())
	if err != nil {
		h.logger.Error("Failed to read knowledge base info", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to read knowledge base info",
		})
	}
	if info == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No knowledge base has been initialized",
		})
	}

	resp := dto.KnowledgeBaseResponse{
		VectorStoreID: info.Handle.VectorStoreID,
		Name:          info.Handle.Name,
		CreatedAt:     info.Handle.CreatedAt.Format(time.RFC3339),
		LastUpdated:   info.Handle.LastUpdated.Format(time.RFC3339),
	}
	for _, f := range info.Files {
		resp.Files = append(resp.Files, dto.KnowledgeFileResponse{
			ID:     f.ID,
			Status: string(f.Status),
		})
	}
	return c.JSON(resp)
}

// Delete godoc
// @Summary Delete the knowledge base and its persisted handle
// @Tags knowledge
// @Produce json
// @Security Bearer
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/v1/knowledge [delete]
func (h *KnowledgeHandler) Delete(c *fiber.Ctx) error {
	deleted, err := h.knowledge.Delete(c.Context())
	if err != nil {
		h.logger.Error("Failed to delete knowledge base", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete knowledge base",
		})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No knowledge base has been initialized",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
