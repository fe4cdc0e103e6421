package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for every new digest.
const Cost = 10

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// ErrTooLong is returned for passwords over MaxPasswordBytes.
var ErrTooLong = errors.New("hash: password too long")

// ErrInternal marks a failure of the hashing primitive itself (malformed
// digest). It is never returned for a plain mismatch.
var ErrInternal = errors.New("hash: internal error")

func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrTooLong
	}
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInternal, err)
	}

	return string(hashbytes), nil
}

// CheckPassword reports whether password matches the bcrypt digest hash.
// A mismatch yields (false, nil); a digest bcrypt cannot parse yields an
// error wrapping ErrInternal.
func CheckPassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrInternal, err)
	}
}
