package user

import (
	"fmt"
	"time"
)

// SecretClass selects the signing secret and expiry policy of a token.
type SecretClass string

const (
	// AccessClass tokens are short-lived and presented on every request.
	AccessClass SecretClass = "access"
	// RefreshClass tokens are long-lived and only exchange for a new pair.
	RefreshClass SecretClass = "refresh"
)

// ParseSecretClass converts a wire value into a SecretClass.
func ParseSecretClass(s string) (SecretClass, error) {
	switch SecretClass(s) {
	case AccessClass, RefreshClass:
		return SecretClass(s), nil
	default:
		return "", fmt.Errorf("unknown secret class %q", s)
	}
}

// TokenPayload is the decoded content of a verified token.
type TokenPayload struct {
	UserID    string         `json:"user_id"`
	Username  string         `json:"username"`
	Claims    map[string]any `json:"claims,omitempty"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// RefreshPrincipal is attached to requests that passed the refresh guard.
// RefreshToken is the raw cookie value so it can be compared against the
// stored hash without re-reading the cookie.
type RefreshPrincipal struct {
	TokenPayload
	RefreshToken string
}

// Session is the result of a successful signup, login or refresh.
type Session struct {
	AccessToken      string
	ExpiresIn        int64
	RefreshToken     string
	RefreshExpiresAt time.Time
}
