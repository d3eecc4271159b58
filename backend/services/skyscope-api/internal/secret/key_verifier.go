package secret

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrNoKey is returned when neither a plaintext key nor a hash is configured.
var ErrNoKey = errors.New("secret: registration key not configured")

// KeyVerifier checks a presented registration key.
type KeyVerifier interface {
	Verify(key string) bool
}

// PlainVerifier compares against a shared key in constant time.
type PlainVerifier struct {
	key []byte
}

// NewPlainVerifier returns a verifier for the given shared key.
func NewPlainVerifier(key string) *PlainVerifier {
	return &PlainVerifier{key: []byte(key)}
}

// Verify reports whether key equals the configured key.
func (v *PlainVerifier) Verify(key string) bool {
	return subtle.ConstantTimeCompare(v.key, []byte(key)) == 1
}

// BcryptVerifier compares against a bcrypt hash of the shared key.
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier returns a verifier for the given bcrypt hash.
func NewBcryptVerifier(hash string) *BcryptVerifier {
	return &BcryptVerifier{hash: []byte(hash)}
}

// Verify reports whether key matches the configured hash.
func (v *BcryptVerifier) Verify(key string) bool {
	if key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(v.hash, []byte(key)) == nil
}

// NewVerifier prefers the hash when both are set.
func NewVerifier(key, hash string) (KeyVerifier, error) {
	switch {
	case hash != "":
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, err
		}
		return NewBcryptVerifier(hash), nil
	case key != "":
		return NewPlainVerifier(key), nil
	default:
		return nil, ErrNoKey
	}
}

// HashKey produces a bcrypt hash suitable for REGISTRATION_KEY_HASH.
func HashKey(key string, cost int) (string, error) {
	if key == "" {
		return "", errors.New("secret: empty key")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
