package api

import (
	"errors"

	_ "ai-receipt/docs"
	"ai-receipt/internal/api/handlers"
	"ai-receipt/pkg/auth"
	"ai-receipt/pkg/config"
	"ai-receipt/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Handlers struct {
	Receipt *handlers.ReceiptHandler
	Image   *handlers.ImageHandler
	User    *handlers.UserHandler
	Health  *handlers.HealthHandler
}

func SetupRouter(
	h Handlers,
	jwtManager *auth.JWTManager,
	cfg *config.Config,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "ai-receipt",
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal server error"
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
				msg = e.Message
			} else {
				appLogger.Error("Unhandled error", zap.String("path", c.Path()), zap.Error(err))
			}
			return c.Status(code).JSON(fiber.Map{
				"error": msg,
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// Swagger
	app.Get("/swagger/*", swagger.HandlerDefault)

	app.Get("/health", h.Health.Health)

	// Protected routes
	protected := app.Group("/api/v1",
		middleware.AuthMiddleware(jwtManager, appLogger),
		rateLimit(cfg.RateLimit),
	)

	protected.Post("/images", h.Image.UploadImage)

	receipts := protected.Group("/receipts")
	receipts.Post("/parse", h.Receipt.ParseReceipt)
	receipts.Get("/me", h.Receipt.ListMyReceipts)
	receipts.Get("/me/stats", h.Receipt.MonthlyStats)
	receipts.Get("/me/stats/categories", h.Receipt.CategoryStats)
	receipts.Get("/me/range", h.Receipt.ReceiptsByDateRange)
	receipts.Get("/:id", h.Receipt.GetReceipt)
	receipts.Put("/:id", h.Receipt.UpdateReceipt)
	receipts.Put("/:id/review", h.Receipt.UpdateReviewStatus)
	receipts.Delete("/:id", h.Receipt.DeleteReceipt)
	receipts.Delete("", h.Receipt.DeleteReceipts)

	users := protected.Group("/users")
	users.Get("/me", h.User.GetMyProfile)
	users.Put("/me", h.User.UpdateMyProfile)
	users.Get("/:username", h.User.GetProfile)
	users.Put("/:username", h.User.UpdateProfile)

	return app
}

// rateLimit limits each authenticated user, falling back to the client IP.
func rateLimit(cfg config.RateLimitConfig) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.Max,
		Expiration: cfg.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if principal, ok := c.Locals(middleware.PrincipalKey).(string); ok && principal != "" {
				return principal
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests",
			})
		},
	})
}
