package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/AmanDwivedi9335/ips-next-sub001/internal/models"
	"github.com/AmanDwivedi9335/ips-next-sub001/internal/utils"
)

const (
	userContextKey = "currentUserID"
	roleContextKey = "currentUserRole"
)

// AuthMiddleware validates JWT tokens and loads the caller's ID and role into context.
func AuthMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid authorization header")
		}

		identity, err := utils.ParseToken(secret, strings.TrimSpace(parts[1]))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(userContextKey, identity.UserID)
		c.Locals(roleContextKey, identity.Role)
		return c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if role, _ := c.Locals(roleContextKey).(string); role != models.RoleAdmin {
			return fiber.NewError(fiber.StatusForbidden, "admin access required")
		}
		return c.Next()
	}
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	value := c.Locals(userContextKey)
	if value == nil {
		return uuid.Nil, false
	}

	if id, ok := value.(uuid.UUID); ok {
		return id, true
	}

	return uuid.Nil, false
}

func GetCurrentRole(c *fiber.Ctx) string {
	role, _ := c.Locals(roleContextKey).(string)
	return role
}
