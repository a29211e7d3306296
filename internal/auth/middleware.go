package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// userIDKey is the echo context key holding the authenticated user's ID.
const userIDKey = "user_id"

// Middleware returns echo middleware that rejects requests without a valid
// access token. On success the user ID from the token claims is stored in
// the context and can be read with GetUserID.
func (ts *TokenService) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return unauthorized(c, "MISSING_TOKEN", "authorization header with a bearer token is required")
			}

			claims, err := ts.ValidateAccessToken(token)
			if err != nil {
				return unauthorized(c, "INVALID_TOKEN", "access token is invalid or expired")
			}

			c.Set(userIDKey, claims.UserID)
			return next(c)
		}
	}
}

// bearerToken extracts the token from the Authorization header. It returns
// empty when the header is missing or uses a different scheme.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// unauthorized writes the API error envelope directly so auth failures look
// the same as handler errors.
func unauthorized(c echo.Context, code, message string) error {
	return c.JSON(http.StatusUnauthorized, map[string]map[string]string{
		"error": {"code": code, "message": message},
	})
}

// GetUserID returns the user ID stored by Middleware, or zero when the
// request is unauthenticated.
func GetUserID(c echo.Context) int64 {
	id, _ := c.Get(userIDKey).(int64)
	return id
}
