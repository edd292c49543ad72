package middleware

// identity.go holds the context accessors shared by the middleware and the
// handlers.  OptionalAuth is the only writer.

import (
	"github.com/labstack/echo/v4"

	"github.com/shopsathi/shopsathi-api/internal/model"
	"github.com/shopsathi/shopsathi-api/internal/utils"
)

const (
	scopeKey  = "scope"
	claimsKey = "token_claims"
)

// ScopeFrom returns the owner scope of the request, Guest when OptionalAuth
// did not run or found no valid token.
func ScopeFrom(c echo.Context) model.Scope {
	if s, ok := c.Get(scopeKey).(model.Scope); ok {
		return s
	}
	return model.Guest()
}

// ClaimsFrom returns the verified token claims, if any.
func ClaimsFrom(c echo.Context) (utils.TokenClaims, bool) {
	cl, ok := c.Get(claimsKey).(utils.TokenClaims)
	return cl, ok
}

// WithScope stores s on the context.  Handler tests use it to skip token
// issuing.
func WithScope(c echo.Context, s model.Scope) {
	c.Set(scopeKey, s)
}
