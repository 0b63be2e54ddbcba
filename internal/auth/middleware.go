package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const identityLocal = "identity"

// JWTMiddleware validates bearer tokens and stores the caller identity in locals.
func JWTMiddleware(secret string) fiber.Handler {
	secretBytes := []byte(secret)
	return func(c *fiber.Ctx) error {
		token := bearerFromHeader(c.Get("Authorization"))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		parsed, err := parseMiddlewareClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
			return secretBytes, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		claims, ok := parsed.Claims.(*Claims)
		if !ok || !parsed.Valid || claims.UserID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token invalid")
		}

		c.Locals("user_id", claims.UserID)
		c.Locals(identityLocal, Identity{UserID: claims.UserID, Email: claims.Email})
		return c.Next()
	}
}

var parseMiddlewareClaimsFn = jwt.ParseWithClaims

// IdentityFrom returns the identity JWTMiddleware stored for this request.
func IdentityFrom(c *fiber.Ctx) (Identity, bool) {
	id, ok := c.Locals(identityLocal).(Identity)
	if !ok || id.Anonymous() {
		return Identity{}, false
	}
	return id, true
}

// RequireIdentity is IdentityFrom for handlers behind JWTMiddleware.
func RequireIdentity(c *fiber.Ctx) (Identity, error) {
	id, ok := IdentityFrom(c)
	if !ok {
		return Identity{}, fiber.NewError(fiber.StatusUnauthorized, "sign in required")
	}
	return id, nil
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
