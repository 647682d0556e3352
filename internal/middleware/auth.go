package middleware

import (
	"strings"

	"docquiz/internal/domain"
	"docquiz/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	UserIDKey           = "userID" // Key for storing UserID in fiber.Ctx locals
)

// RequireToken validates an HS256 bearer token signed with secret and stores
// its subject under UserIDKey. Handlers compare it with the user_id they act on.
func RequireToken(secret string) fiber.Handler {
	key := []byte(secret)
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(AuthorizationHeader)
		if authHeader == "" {
			return domain.NewUnauthorizedError("Authorization header is missing")
		}
		if !strings.HasPrefix(authHeader, BearerSchema) {
			return domain.NewUnauthorizedError("Authorization scheme is not Bearer")
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerSchema))
		if tokenString == "" {
			return domain.NewUnauthorizedError("Token is empty")
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			logger.Get().Debug("JWT validation failed", zap.Error(err))
			return domain.NewError(domain.CodeUnauthorized, "Invalid token", err)
		}
		if claims.Subject == "" {
			return domain.NewUnauthorizedError("Token has no subject")
		}

		c.Locals(UserIDKey, claims.Subject)
		return c.Next()
	}
}

// AuthorizeUser rejects a request whose token subject differs from userID.
// It is a no-op when no token was checked.
func AuthorizeUser(c *fiber.Ctx, userID string) error {
	subject, ok := c.Locals(UserIDKey).(string)
	if !ok || subject == "" {
		return nil
	}
	if subject != userID {
		return domain.NewForbiddenError("Token subject does not match user_id")
	}
	return nil
}
