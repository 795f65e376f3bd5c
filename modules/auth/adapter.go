package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/example/jwt-cookie-auth/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface for authentication operations.
// This is the port that other modules use to access auth functionality.
// Both AuthAdapter and AuthService implement it.
type AuthPort interface {
	Signup(ctx context.Context, username, email, password string) (*domain.Session, error)
	Login(ctx context.Context, username, password string) (*domain.Session, error)
	Refresh(ctx context.Context, userID, refreshToken string) (*domain.Session, error)
	Logout(ctx context.Context, userID string) error
	VerifyToken(ctx context.Context, token string, class domain.SecretClass) (*domain.TokenPayload, error)
	GetUser(ctx context.Context, userID string) (*domain.Profile, error)
}

var (
	_ AuthPort = (*AuthAdapter)(nil)
	_ AuthPort = (*AuthService)(nil)
)

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	return &AuthAdapter{
		container: container,
	}
}

// Signup creates a new account.
func (a *AuthAdapter) Signup(ctx context.Context, username, email, password string) (*domain.Session, error) {
	req := SignupRequest{Username: username, Email: email, Password: password}
	return a.callSession(ctx, ServiceSignup, &req)
}

// Login authenticates a user.
func (a *AuthAdapter) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	req := LoginRequest{Username: username, Password: password}
	return a.callSession(ctx, ServiceLogin, &req)
}

// Refresh rotates the user's refresh token.
func (a *AuthAdapter) Refresh(ctx context.Context, userID, refreshToken string) (*domain.Session, error) {
	req := RefreshRequest{UserID: userID, RefreshToken: refreshToken}
	return a.callSession(ctx, ServiceRefresh, &req)
}

// Logout revokes the user's refresh session.
func (a *AuthAdapter) Logout(ctx context.Context, userID string) error {
	req := LogoutRequest{UserID: userID}
	var resp LogoutResponse

	if err := callService(ctx, a.container, ServiceLogout, &req, &resp); err != nil {
		return err
	}
	return resp.err()
}

// VerifyToken validates a token of the given class and returns its payload.
func (a *AuthAdapter) VerifyToken(ctx context.Context, token string, class domain.SecretClass) (*domain.TokenPayload, error) {
	req := VerifyTokenRequest{Token: token, Class: string(class)}
	var resp VerifyTokenResponse

	if err := callService(ctx, a.container, ServiceVerifyToken, &req, &resp); err != nil {
		return nil, err
	}

	if !resp.Valid {
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, resp.Reason)
	}

	return &domain.TokenPayload{
		UserID:    resp.UserID,
		Username:  resp.Username,
		Claims:    resp.Claims,
		ExpiresAt: resp.ExpiresAt,
	}, nil
}

// GetUser retrieves a user profile by ID.
func (a *AuthAdapter) GetUser(ctx context.Context, userID string) (*domain.Profile, error) {
	req := GetUserRequest{UserID: userID}
	var resp GetUserResponse

	if err := callService(ctx, a.container, ServiceGetUser, &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}

	return &domain.Profile{
		ID:        resp.ID,
		Username:  resp.Username,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt,
	}, nil
}

func (a *AuthAdapter) callSession(ctx context.Context, service string, req any) (*domain.Session, error) {
	var resp SessionResponse
	if err := callService(ctx, a.container, service, req, &resp); err != nil {
		return nil, err
	}
	if err := resp.err(); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, errors.New(service + ": empty session in reply")
	}

	return &domain.Session{
		AccessToken:      resp.AccessToken,
		ExpiresIn:        resp.ExpiresIn,
		RefreshToken:     resp.RefreshToken,
		RefreshExpiresAt: resp.RefreshExpiresAt,
	}, nil
}

// callService calls an auth service and decodes its reply into resp.
func callService[Req any, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}
