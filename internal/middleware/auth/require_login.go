package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/tokens"
)

// RequireAuth admits a request only with a valid bearer token and attaches
// the verified claims to both the echo context and the request context.
func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		l := logging.FromContext(req.Context()).With("middleware", "auth.require_auth")

		raw, ok := bearerToken(req.Header.Get(echo.HeaderAuthorization))
		if !ok {
			l.Warn("auth_rejected", "status", 401, "reason", "missing access token")
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := g.verifier.Verify(raw)
		if err != nil {
			l.Warn("auth_rejected", "status", 401, "reason", reason(err), "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set(claimsKey, claims)
		c.SetRequest(req.WithContext(tokens.IntoContext(req.Context(), claims)))

		return next(c)
	}
}

func reason(err error) string {
	var ae *tokens.AuthError
	if errors.As(err, &ae) {
		return ae.Kind.String()
	}
	return tokens.KindUnauthorized.String()
}
