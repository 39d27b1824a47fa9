package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Supported password hashing schemes.
const (
	HasherSHA256 = "sha256"
	HasherBcrypt = "bcrypt"
)

// PasswordHasher turns plaintext passwords into stored digests and checks
// candidates against them.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
}

// NewPasswordHasher returns the hasher for the named scheme.
func NewPasswordHasher(scheme string, bcryptCost int) (PasswordHasher, error) {
	switch scheme {
	case HasherSHA256:
		return SHA256Hasher{}, nil
	case HasherBcrypt:
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range", bcryptCost)
		}
		return BcryptHasher{Cost: bcryptCost}, nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", scheme)
	}
}

// SHA256Hasher stores the hex encoded, unsalted SHA-256 of the password.
// It is deterministic and fast, which keeps digests compatible with
// databases written by the previous deployment. Prefer BcryptHasher for new
// installations.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

func (h SHA256Hasher) Verify(password, digest string) bool {
	candidate, _ := h.Hash(password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}

// BcryptHasher stores salted bcrypt digests.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (BcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
