package auth

import (
	"errors"
	"fmt"
	"time"

	domain "github.com/example/jwt-cookie-auth/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is wrapped by every token verification failure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMalformedToken is returned when the token cannot be parsed.
	ErrMalformedToken = fmt.Errorf("%w: malformed", ErrInvalidToken)
	// ErrSignatureInvalid is returned when the signature does not match the class secret.
	ErrSignatureInvalid = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = fmt.Errorf("%w: expired", ErrInvalidToken)
	// ErrWrongTokenClass is returned when a token of one class is verified as the other.
	ErrWrongTokenClass = fmt.Errorf("%w: wrong token class", ErrInvalidToken)
)

// JWTConfig holds JWT configuration. Access and refresh tokens are signed
// with independent secrets and expire independently.
type JWTConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
	Issuer        string
}

// JWTClaims represents the custom claims for JWT tokens.
type JWTClaims struct {
	UserID    string         `json:"user_id"`
	Username  string         `json:"username"`
	TokenType string         `json:"token_type"`
	Extra     map[string]any `json:"claims,omitempty"`
	jwt.RegisteredClaims
}

// SignedToken is a compact signed token with its expiry.
type SignedToken struct {
	Token     string
	ExpiresIn int64
	ExpiresAt time.Time
}

// TokenCodec signs and verifies access and refresh tokens.
type TokenCodec struct {
	config JWTConfig
	now    func() time.Time
}

// NewTokenCodec creates a new TokenCodec with the given configuration.
func NewTokenCodec(config JWTConfig) *TokenCodec {
	return &TokenCodec{
		config: config,
		now:    time.Now,
	}
}

// TTL returns the configured lifetime of the class.
func (c *TokenCodec) TTL(class domain.SecretClass) time.Duration {
	if class == domain.RefreshClass {
		return c.config.RefreshTTL
	}
	return c.config.AccessTTL
}

func (c *TokenCodec) secret(class domain.SecretClass) []byte {
	if class == domain.RefreshClass {
		return []byte(c.config.RefreshSecret)
	}
	return []byte(c.config.AccessSecret)
}

// Sign creates a token for the payload, signed with the class secret.
func (c *TokenCodec) Sign(payload domain.TokenPayload, class domain.SecretClass) (SignedToken, error) {
	if _, err := domain.ParseSecretClass(string(class)); err != nil {
		return SignedToken{}, err
	}

	now := c.now()
	ttl := c.TTL(class)
	expiresAt := now.Add(ttl)
	claims := JWTClaims{
		UserID:    payload.UserID,
		Username:  payload.Username,
		TokenType: string(class),
		Extra:     payload.Claims,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    c.config.Issuer,
			Subject:   payload.UserID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret(class))
	if err != nil {
		return SignedToken{}, fmt.Errorf("sign %s token: %w", class, err)
	}

	return SignedToken{
		Token:     token,
		ExpiresIn: int64(ttl.Seconds()),
		ExpiresAt: expiresAt,
	}, nil
}

// Verify validates the token against the class secret and returns its payload.
func (c *TokenCodec) Verify(tokenString string, class domain.SecretClass) (*domain.TokenPayload, error) {
	if _, err := domain.ParseSecretClass(string(class)); err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(*jwt.Token) (any, error) {
		return c.secret(class), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.config.Issuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != string(class) {
		return nil, ErrWrongTokenClass
	}

	return &domain.TokenPayload{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Claims:    claims.Extra,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
