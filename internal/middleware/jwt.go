package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shopsathi/shopsathi-api/internal/model"
	"github.com/shopsathi/shopsathi-api/internal/utils"
)

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) bool
}

// OptionalAuth resolves the owner scope of every request.  It never
// rejects: a missing, malformed, expired or revoked Bearer token leaves the
// request in the guest partition.  Failures are logged at debug level so a
// misconfigured client can still be diagnosed.
func OptionalAuth(secret string, revoked RevocationChecker, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			WithScope(c, model.Guest())

			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if auth == "" {
				return next(c)
			}
			raw, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				logger.Debug("auth header is not a bearer token", zap.String("path", c.Path()))
				return next(c)
			}

			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				logger.Debug("bearer token rejected, continuing as guest", zap.String("path", c.Path()), zap.Error(err))
				return next(c)
			}
			if revoked != nil && revoked.IsRevoked(c.Request().Context(), claims.ID) {
				logger.Debug("bearer token revoked, continuing as guest", zap.String("jti", claims.ID))
				return next(c)
			}

			WithScope(c, model.Owner(claims.UserID))
			c.Set(claimsKey, claims)
			return next(c)
		}
	}
}
