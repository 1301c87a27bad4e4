package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

const (
	localUserID = "user_id"
	localToken  = "access_token"
)

// JWTMiddleware validates bearer tokens and stores user_id and the raw token in locals.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := parseClaims(token, secretBytes)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		c.Locals(localUserID, claims.UserID)
		c.Locals(localToken, token)
		return c.Next()
	}
}

// UserID returns the authenticated user, or "" when the route is not protected.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}

// Token returns the bearer token the request was authenticated with.
func Token(c *fiber.Ctx) string {
	token, _ := c.Locals(localToken).(string)
	return token
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
