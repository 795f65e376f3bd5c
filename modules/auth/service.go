package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	domain "github.com/example/jwt-cookie-auth/domain/user"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// dummyPassword is hashed once so that logins for unknown usernames still
// pay for a bcrypt comparison.
const dummyPassword = "dummy-password-for-unknown-users"

// UserStore is the persistence boundary of the auth flows.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateRefreshHash(ctx context.Context, id string, hash *string) error
	RotateRefreshHash(ctx context.Context, id, expected, next string) (bool, error)
}

// AuthService handles authentication business logic.
type AuthService struct {
	store     UserStore
	hasher    *CredentialHasher
	codec     *TokenCodec
	logger    types.Logger
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(store UserStore, hasher *CredentialHasher, codec *TokenCodec, logger types.Logger) *AuthService {
	s := &AuthService{
		store:  store,
		hasher: hasher,
		codec:  codec,
		logger: logger,
	}
	if hash, err := hasher.Hash(dummyPassword); err == nil {
		s.dummyHash = hash
	}
	return s
}

// Signup creates a new account and opens its first refresh session.
func (s *AuthService) Signup(ctx context.Context, username, email, password string) (*domain.Session, error) {
	if err := validateSignup(username, email, password); err != nil {
		return nil, err
	}

	if _, err := s.store.FindByUsername(ctx, username); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The user row is written together with its first refresh hash.
	session, refreshHash, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	user.RefreshTokenHash = &refreshHash

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrUserExists) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User signed up", "user_id", user.ID)
	return session, nil
}

// Login authenticates a user and replaces any previous refresh session.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.logger.Debug("Login rejected", "reason", "unknown username")
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.Debug("Login rejected", "reason", "wrong password", "user_id", user.ID)
		return nil, ErrUnauthorized
	}

	session, refreshHash, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateRefreshHash(ctx, user.ID, &refreshHash); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return session, nil
}

// Refresh exchanges the current refresh token for a new token pair. The
// presented token stops being valid as soon as this call succeeds.
func (s *AuthService) Refresh(ctx context.Context, userID, refreshToken string) (*domain.Session, error) {
	payload, err := s.codec.Verify(refreshToken, domain.RefreshClass)
	if err != nil {
		s.logger.Debug("Refresh rejected", "reason", err.Error())
		return nil, ErrUnauthorized
	}
	if payload.UserID != userID {
		s.logger.Warn("Refresh rejected", "reason", "subject mismatch", "user_id", userID)
		return nil, ErrUnauthorized
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.logger.Debug("Refresh rejected", "reason", "unknown user", "user_id", userID)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !user.HasRefreshSession() {
		s.logger.Debug("Refresh rejected", "reason", "no active session", "user_id", userID)
		return nil, ErrUnauthorized
	}
	storedHash := *user.RefreshTokenHash

	if !s.hasher.VerifyToken(refreshToken, storedHash) {
		s.logger.Warn("Refresh rejected", "reason", "token does not match stored hash", "user_id", userID)
		return nil, ErrUnauthorized
	}

	session, refreshHash, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	rotated, err := s.store.RotateRefreshHash(ctx, user.ID, storedHash, refreshHash)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if !rotated {
		s.logger.Warn("Refresh rejected", "reason", "concurrent rotation", "user_id", userID)
		return nil, ErrUnauthorized
	}

	return session, nil
}

// Logout revokes the user's refresh session. Repeated calls succeed.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.store.UpdateRefreshHash(ctx, userID, nil); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// VerifyToken validates a token of the given class and returns its payload.
// The returned error wraps both ErrUnauthorized and the codec cause.
func (s *AuthService) VerifyToken(_ context.Context, token string, class domain.SecretClass) (*domain.TokenPayload, error) {
	payload, err := s.codec.Verify(token, class)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return payload, nil
}

// GetUser returns the outward-facing profile of a user.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.Profile, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	profile := user.ToProfile()
	return &profile, nil
}

// issue signs a new token pair for the user and hashes the refresh token.
// Nothing is persisted here.
func (s *AuthService) issue(user *domain.User) (*domain.Session, string, error) {
	payload := domain.TokenPayload{
		UserID:   user.ID,
		Username: user.Username,
	}

	access, err := s.codec.Sign(payload, domain.AccessClass)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate access token: %w", err)
	}

	refresh, err := s.codec.Sign(payload, domain.RefreshClass)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate refresh token: %w", err)
	}

	refreshHash, err := s.hasher.HashToken(refresh.Token)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash refresh token: %w", err)
	}

	return &domain.Session{
		AccessToken:      access.Token,
		ExpiresIn:        access.ExpiresIn,
		RefreshToken:     refresh.Token,
		RefreshExpiresAt: refresh.ExpiresAt,
	}, refreshHash, nil
}

func validateSignup(username, email, password string) error {
	if strings.TrimSpace(username) == "" {
		return &ValidationError{Field: "username", Message: "must not be empty"}
	}
	// Display-name forms like "Bob <bob@x.com>" parse too; only the bare
	// address is accepted.
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return &ValidationError{Field: "email", Message: "must be a valid email address"}
	}
	if password == "" {
		return &ValidationError{Field: "password", Message: "must not be empty"}
	}
	if len(password) > MaxPasswordBytes {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes)}
	}
	return nil
}
