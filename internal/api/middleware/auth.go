package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rxtech-lab/actionkeeper/internal/utils"
)

// AuthConfig holds configuration for the auth middleware
type AuthConfig struct {
	// APIToken is the static bearer token. Empty disables the static check.
	APIToken string
	// JWTAuthenticator accepts HS256 bearer JWTs (optional)
	JWTAuthenticator *utils.JwtAuthenticator
}

// Enabled reports whether any credential is configured.
func (c AuthConfig) Enabled() bool {
	return c.APIToken != "" || c.JWTAuthenticator != nil
}

// AuthMiddleware returns a Fiber middleware for Bearer token authentication.
// With nothing configured every request passes.
func AuthMiddleware(cfg AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.Enabled() {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		var token string
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		}

		if token == "" {
			c.Set("WWW-Authenticate", `Bearer realm="actionkeeper"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid API token.",
			})
		}

		if cfg.APIToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(cfg.APIToken)) == 1 {
			return c.Next()
		}

		if cfg.JWTAuthenticator != nil {
			user, err := cfg.JWTAuthenticator.ValidateToken(token)
			if err == nil {
				c.Locals("user", user)
				return c.Next()
			}
		}

		c.Set("WWW-Authenticate", `Bearer realm="actionkeeper"`)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Missing or invalid API token.",
		})
	}
}

// GetAuthenticatedUser retrieves the JWT user from Fiber context.
// Returns nil for static-token callers or unauthenticated requests.
func GetAuthenticatedUser(c *fiber.Ctx) *utils.AuthenticatedUser {
	user, ok := c.Locals("user").(*utils.AuthenticatedUser)
	if !ok {
		return nil
	}
	return user
}
