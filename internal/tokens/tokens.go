// Package tokens issues and verifies the HS256 session tokens handed out on
// register and login.
package tokens

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the identity carried by a session token.
type Claims struct {
	ID    uint   `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionClaims struct {
	UserID uint   `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type Option func(*Issuer)

// WithClock replaces time.Now for both issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// Issuer signs and verifies session tokens with a single process-wide secret.
// It is immutable after construction and safe for concurrent use.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer builds an Issuer. A ttl of zero issues tokens without an exp
// claim; they stay valid until the secret is rotated.
func NewIssuer(secret []byte, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl < 0 {
		return nil, fmt.Errorf("tokens: negative ttl %s", ttl)
	}

	i := &Issuer{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

func (i *Issuer) Issue(c Claims) (string, error) {
	now := i.now()
	registered := jwt.RegisteredClaims{
		Subject:  strconv.FormatUint(uint64(c.ID), 10),
		IssuedAt: jwt.NewNumericDate(now),
		ID:       uuid.NewString(),
	}
	if i.ttl > 0 {
		registered.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		UserID:           c.ID,
		Email:            c.Email,
		Role:             c.Role,
		RegisteredClaims: registered,
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("tokens: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of raw and returns the claims it was
// issued with. Every failure is an *AuthError.
func (i *Issuer) Verify(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, &AuthError{Kind: KindMalformed, Err: errors.New("empty token")}
	}

	var sc sessionClaims
	_, err := jwt.ParseWithClaims(raw, &sc, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return Claims{}, classify(err)
	}

	return Claims{ID: sc.UserID, Email: sc.Email, Role: sc.Role}, nil
}

func classify(err error) *AuthError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &AuthError{Kind: KindExpired, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &AuthError{Kind: KindBadSignature, Err: err}
	case errors.Is(err, jwt.ErrTokenMalformed):
		return &AuthError{Kind: KindMalformed, Err: err}
	default:
		return &AuthError{Kind: KindUnauthorized, Err: err}
	}
}
