package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/blog_api/internal/tokens"
)

const claimsKey = "auth.claims"

// Verifier is the part of tokens.Issuer the gate needs.
type Verifier interface {
	Verify(raw string) (tokens.Claims, error)
}

type Gate struct {
	verifier Verifier
}

func NewGate(v Verifier) *Gate {
	return &Gate{verifier: v}
}

// ClaimsFrom returns the identity attached by RequireAuth.
func ClaimsFrom(c echo.Context) (tokens.Claims, bool) {
	claims, ok := c.Get(claimsKey).(tokens.Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
