package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"

	"ragchat/internal/dto"
	"ragchat/internal/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type ChatHandler struct {
	client llm.Client
	logger *zap.Logger
}

// NewChatHandler takes the outermost llm.Client; context augmentation is
// already layered in by the wiring in cmd.
func NewChatHandler(client llm.Client, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		client: client,
		logger: logger,
	}
}

// Chat godoc
// @Summary Chat with the model over the knowledge base
// @Description Completes the conversation; relevant document context is injected automatically. Set stream=true for SSE.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Conversation"
// @Security Bearer
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/v1/chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one message is required",
		})
	}

	messages := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := llm.Role(m.Role)
		switch role {
		case llm.RoleSystem, llm.RoleUser, llm.RoleAssistant:
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Unknown role %q", m.Role),
			})
		}
		messages = append(messages, llm.Message{Role: role, Content: m.Content})
	}

	opts := llm.Options{
		Model:       req.Model,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}

	if req.Stream {
		return h.stream(c, messages, opts)
	}

	completion, err := h.client.Complete(c.Context(), messages, opts)
	if err != nil {
		h.logger.Error("Chat completion failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Upstream model request failed",
		})
	}

	return c.JSON(dto.ChatResponse{
		Content:      completion.Content,
		Model:        completion.Model,
		FinishReason: completion.FinishReason,
	})
}

// stream pushes fragments as SSE events, one flush per fragment so the
// client sees tokens as they arrive.
func (h *ChatHandler) stream(c *fiber.Ctx, messages []llm.Message, opts llm.Options) error {
	// The fasthttp request context outlives the fiber handler and is
	// cancelled when the client disconnects.
	reqCtx := c.Context()
	deltas, err := h.client.Stream(reqCtx, messages, opts)
	if err != nil {
		h.logger.Error("Chat stream failed to start", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Upstream model request failed",
		})
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	logger := h.logger
	reqCtx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		for delta := range deltas {
			if delta.Err != nil {
				logger.Error("Chat stream aborted", zap.Error(delta.Err))
				writeSSE(w, map[string]string{"error": "stream aborted"})
				return
			}
			if delta.Done {
				if _, err := w.WriteString("data: [DONE]\n\n"); err != nil {
					return
				}
				_ = w.Flush()
				return
			}
			if !writeSSE(w, map[string]string{"content": delta.Content}) {
				return
			}
		}
	}))
	return nil
}

func writeSSE(w *bufio.Writer, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		return false
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return false
	}
	return w.Flush() == nil
}
