package auth

import (
	"errors"
	"time"
)

// ErrorReply is embedded in every reply. Domain failures travel as a code
// instead of a transport error so the adapter can rebuild the sentinel.
type ErrorReply struct {
	ErrorCode  string `json:"error_code,omitempty"`
	ErrorField string `json:"error_field,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SignupRequest represents a user signup request.
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest carries the principal established by the refresh guard.
type RefreshRequest struct {
	UserID       string `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

// SessionResponse is the reply of signup, login and refresh.
type SessionResponse struct {
	ErrorReply
	AccessToken      string    `json:"access_token,omitempty"`
	ExpiresIn        int64     `json:"expires_in,omitempty"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// LogoutRequest represents a logout request.
type LogoutRequest struct {
	UserID string `json:"user_id"`
}

// LogoutResponse represents a logout response.
type LogoutResponse struct {
	ErrorReply
}

// VerifyTokenRequest represents a token verification request.
type VerifyTokenRequest struct {
	Token string `json:"token"`
	Class string `json:"class"`
}

// VerifyTokenResponse represents a token verification response.
// Reason is only set on failure and is meant for logs.
type VerifyTokenResponse struct {
	ErrorReply
	Valid     bool           `json:"valid"`
	UserID    string         `json:"user_id,omitempty"`
	Username  string         `json:"username,omitempty"`
	Claims    map[string]any `json:"claims,omitempty"`
	ExpiresAt time.Time      `json:"expires_at"`
	Reason    string         `json:"reason,omitempty"`
}

// GetUserRequest represents a get user request.
type GetUserRequest struct {
	UserID string `json:"user_id"`
}

// GetUserResponse represents a get user response.
type GetUserResponse struct {
	ErrorReply
	ID        string    `json:"id,omitempty"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func errorReply(err error) ErrorReply {
	if err == nil {
		return ErrorReply{}
	}
	reply := ErrorReply{
		ErrorCode: ErrorCode(err),
		Error:     err.Error(),
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		reply.ErrorField = ve.Field
		reply.Error = ve.Message
	}
	return reply
}

func (r ErrorReply) err() error {
	return errorFromCode(r.ErrorCode, r.ErrorField, r.Error)
}
