package api

import (
	"errors"

	domain "github.com/example/jwt-cookie-auth/domain/user"
	"github.com/example/jwt-cookie-auth/modules/auth"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	authPort auth.AuthPort
	logger   types.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(authPort auth.AuthPort, logger types.Logger) *Handlers {
	return &Handlers{
		authPort: authPort,
		logger:   logger,
	}
}

// Signup handles user signup.
func (h *Handlers) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	session, err := h.authPort.Signup(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return h.handleAuthError(c, err)
	}

	return sendSession(c, fiber.StatusCreated, session)
}

// Login handles user login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if req.Username == "" || req.Password == "" {
		return badRequest(c, "Username and password are required")
	}

	session, err := h.authPort.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return h.handleAuthError(c, err)
	}

	return sendSession(c, fiber.StatusOK, session)
}

// Refresh rotates the refresh token. It runs behind the refresh guard.
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	principal, ok := RefreshPrincipalFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	session, err := h.authPort.Refresh(c.UserContext(), principal.UserID, principal.RefreshToken)
	if err != nil {
		return h.handleAuthError(c, err)
	}

	return sendSession(c, fiber.StatusOK, session)
}

// Logout revokes the refresh session. It runs behind the access guard.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	payload, ok := PayloadFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.authPort.Logout(c.UserContext(), payload.UserID); err != nil {
		return h.handleAuthError(c, err)
	}

	expireRefreshCookie(c)
	return c.SendStatus(fiber.StatusOK)
}

// Profile returns the current user's profile. It runs behind the access guard.
func (h *Handlers) Profile(c *fiber.Ctx) error {
	payload, ok := PayloadFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	profile, err := h.authPort.GetUser(c.UserContext(), payload.UserID)
	if err != nil {
		return h.handleAuthError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(ProfileResponse{
		ID:        profile.ID,
		Username:  profile.Username,
		Email:     profile.Email,
		CreatedAt: profile.CreatedAt,
	})
}

func sendSession(c *fiber.Ctx, status int, session *domain.Session) error {
	setRefreshCookie(c, session.RefreshToken, session.RefreshExpiresAt)
	return c.Status(status).JSON(TokenResponse{
		AccessToken: session.AccessToken,
		ExpiresIn:   session.ExpiresIn,
	})
}

// handleAuthError maps auth errors to responses without exposing internals.
func (h *Handlers) handleAuthError(c *fiber.Ctx, err error) error {
	var verr *auth.ValidationError

	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "bad_request",
			Message: verr.Field + " " + verr.Message,
			Field:   verr.Field,
		})
	case errors.Is(err, auth.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "Username is already taken",
		})
	case errors.Is(err, auth.ErrUnauthorized):
		return unauthorized(c)
	default:
		h.logger.Error("Internal error", "path", c.Path(), "error", err)
		return internalError(c)
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}
