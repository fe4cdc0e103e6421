package tokens

import "errors"

// Kind classifies why a session token was rejected.
type Kind int

const (
	KindUnauthorized Kind = iota
	KindMalformed
	KindBadSignature
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindBadSignature:
		return "bad_signature"
	case KindExpired:
		return "expired"
	default:
		return "unauthorized"
	}
}

// AuthError is returned by Verify. Compare against the Err* values with
// errors.Is; the underlying jwt error is available through Unwrap.
type AuthError struct {
	Kind Kind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "tokens: " + e.Kind.String()
	}
	return "tokens: " + e.Kind.String() + ": " + e.Err.Error()
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Err == nil && t.Kind == e.Kind
}

var (
	ErrUnauthorized = &AuthError{Kind: KindUnauthorized}
	ErrMalformed    = &AuthError{Kind: KindMalformed}
	ErrBadSignature = &AuthError{Kind: KindBadSignature}
	ErrExpired      = &AuthError{Kind: KindExpired}

	ErrEmptySecret = errors.New("tokens: signing secret is empty")
)
