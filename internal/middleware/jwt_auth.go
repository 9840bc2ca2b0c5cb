package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/circle/backend/internal/apperror"
)

// UserIDKey is the echo.Context key holding the authenticated user's id.
const UserIDKey = "userID"

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// JWTAuthMiddleware checks for a valid bearer token and stores the user id
// it carries in the context.
func JWTAuthMiddleware(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return apperror.ErrUnauthenticated
			}

			// Expecting "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				return apperror.ErrUnauthenticated
			}

			subject, err := verifier.VerifyToken(strings.TrimSpace(parts[1]))
			if err != nil {
				return apperror.ErrUnauthenticated.WithCause(err)
			}

			userID, err := primitive.ObjectIDFromHex(subject)
			if err != nil {
				return apperror.ErrUnauthenticated.WithCause(err)
			}

			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user's id stored by JWTAuthMiddleware.
func UserID(c echo.Context) (primitive.ObjectID, bool) {
	id, ok := c.Get(UserIDKey).(primitive.ObjectID)
	return id, ok
}
