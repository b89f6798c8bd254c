package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"skateshop/internal/models"
	"skateshop/internal/services"
)

// Context keys populated by the auth middleware.
const (
	UserIDKey = "user_id"
	EmailKey  = "email"
	RoleKey   = "role"
)

// AuthRequired is a Fiber middleware that checks for a valid JWT and
// stores the caller's identity in the request context.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := bearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}

		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "invalid or expired token",
			})
		}

		c.Locals(UserIDKey, claims["user_id"])
		c.Locals(EmailKey, claims["email"])
		c.Locals(RoleKey, claims["role"])
		return c.Next()
	}
}

// OptionalAuth resolves the caller's identity when a bearer token is
// supplied but lets anonymous requests through. Used by the guest
// checkout path.
func OptionalAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return c.Next()
		}

		tokenString, err := bearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   err.Error(),
			})
		}
		claims, err := authService.ValidateToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"error":   "invalid or expired token",
			})
		}

		c.Locals(UserIDKey, claims["user_id"])
		c.Locals(EmailKey, claims["email"])
		c.Locals(RoleKey, claims["role"])
		return c.Next()
	}
}

// AdminRequired gates a route to admin accounts. Must run after
// AuthRequired.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(RoleKey).(string)
		if role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"error":   "admin access required",
			})
		}
		return c.Next()
	}
}

// CurrentUserID returns the authenticated user id, if any.
func CurrentUserID(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(UserIDKey).(string)
	return id, ok && id != ""
}

// IsAdmin reports whether the caller holds the admin role.
func IsAdmin(c *fiber.Ctx) bool {
	role, _ := c.Locals(RoleKey).(string)
	return role == models.RoleAdmin
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "authorization header is required")
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fiber.NewError(fiber.StatusUnauthorized, "authorization header format must be 'Bearer <token>'")
	}
	return parts[1], nil
}
