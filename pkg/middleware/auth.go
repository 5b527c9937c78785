package middleware

import (
	"strings"

	"ai-receipt/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PrincipalKey is the fiber Locals key holding the authenticated principal.
const PrincipalKey = "principal"

func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(fiber.HeaderAuthorization)
		if token == "" {
			logger.Warn("Missing authorization token", zap.String("path", c.Path()))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization token required",
			})
		}

		token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))

		claims, err := jwtManager.ValidateToken(token)
		if err != nil {
			logger.Warn("Invalid token", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(PrincipalKey, claims.Principal())
		c.Locals("userID", claims.UserID)

		return c.Next()
	}
}
