package api

import (
	"ragchat/docs"
	"ragchat/internal/api/handlers"
	"ragchat/pkg/auth"
	"ragchat/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func SetupRouter(
	authHandler *handlers.AuthHandler,
	docHandler *handlers.DocumentHandler,
	chatHandler *handlers.ChatHandler,
	knowledgeHandler *handlers.KnowledgeHandler,
	jwtManager *auth.JWTManager,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// Importing docs registers the swagger spec through its init().
	_ = docs.SwaggerInfo
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes (public)
	app.Post("/auth/token", authHandler.Token)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	documents := protected.Group("/documents")
	documents.Post("/upload", docHandler.Upload)
	documents.Get("", docHandler.List)
	documents.Get("/:id/chunks", docHandler.ListChunks)
	documents.Delete("/:id", docHandler.Delete)

	protected.Post("/chat", chatHandler.Chat)

	knowledge := protected.Group("/knowledge")
	knowledge.Post("", knowledgeHandler.Initialize)
	knowledge.Post("/files", knowledgeHandler.AddFile)
	knowledge.Get("", knowledgeHandler.Info)
	knowledge.Delete("", knowledgeHandler.Delete)

	return app
}
