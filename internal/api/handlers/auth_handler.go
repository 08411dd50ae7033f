package handlers

import (
	"crypto/subtle"
	"time"

	"ragchat/internal/dto"
	"ragchat/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	jwtManager *auth.JWTManager
	accessKey  string
	logger     *zap.Logger
}

func NewAuthHandler(jwtManager *auth.JWTManager, accessKey string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		jwtManager: jwtManager,
		accessKey:  accessKey,
		logger:     logger,
	}
}

// Token godoc
// @Summary Exchange the API access key for a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.TokenRequest true "Access key"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/token [post]
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if h.accessKey == "" || subtle.ConstantTimeCompare([]byte(req.AccessKey), []byte(h.accessKey)) != 1 {
		h.logger.Warn("Rejected token request", zap.String("ip", c.IP()))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid access key",
		})
	}

	token, expiresAt, err := h.jwtManager.GenerateToken()
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.JSON(dto.TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}
