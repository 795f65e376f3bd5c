package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost is the default cost for bcrypt hashing.
	// A cost of 12 provides good security while keeping hashing time reasonable.
	DefaultBcryptCost = 12

	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

// CredentialHasher hashes passwords and refresh tokens before storage.
type CredentialHasher struct {
	cost int
}

// NewCredentialHasher creates a CredentialHasher. A cost outside bcrypt's
// accepted range falls back to DefaultBcryptCost.
func NewCredentialHasher(cost int) *CredentialHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &CredentialHasher{
		cost: cost,
	}
}

// Hash generates a bcrypt hash of the given plaintext.
func (h *CredentialHasher) Hash(plaintext string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify checks if the plaintext matches the hash. A malformed hash
// yields false.
func (h *CredentialHasher) Verify(plaintext, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	return err == nil
}

// HashToken hashes a refresh token. Signed tokens exceed bcrypt's input
// limit, so they are reduced with SHA-256 first.
func (h *CredentialHasher) HashToken(token string) (string, error) {
	return h.Hash(tokenDigest(token))
}

// VerifyToken checks a refresh token against a hash produced by HashToken.
func (h *CredentialHasher) VerifyToken(token, hash string) bool {
	return h.Verify(tokenDigest(token), hash)
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
