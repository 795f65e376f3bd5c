package api

import (
	"context"
	"errors"
	"strings"

	domain "github.com/example/jwt-cookie-auth/domain/user"
	"github.com/example/jwt-cookie-auth/modules/auth"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
)

const (
	// UserContextKey is the key used to store the access token payload in the Fiber context.
	UserContextKey = "user"
	// RefreshContextKey is the key used to store the refresh principal in the Fiber context.
	RefreshContextKey = "refresh_principal"
)

// TokenVerifier verifies a token against the secret of its class.
// Rejected tokens must be reported with an error wrapping auth.ErrUnauthorized.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string, class domain.SecretClass) (*domain.TokenPayload, error)
}

// TokenGuard authenticates requests with a token of one secret class.
// The verification steps are shared; where the token comes from and what
// gets attached to the request vary per guard.
type TokenGuard struct {
	name     string
	class    domain.SecretClass
	extract  func(c *fiber.Ctx) (string, bool)
	attach   func(c *fiber.Ctx, payload *domain.TokenPayload, token string)
	verifier TokenVerifier
	logger   types.Logger
}

// NewAccessGuard accepts "Authorization: Bearer <access token>" and stores
// the payload under UserContextKey.
func NewAccessGuard(verifier TokenVerifier, logger types.Logger) *TokenGuard {
	return &TokenGuard{
		name:     "access",
		class:    domain.AccessClass,
		extract:  bearerToken,
		verifier: verifier,
		logger:   logger,
		attach: func(c *fiber.Ctx, payload *domain.TokenPayload, _ string) {
			c.Locals(UserContextKey, payload)
		},
	}
}

// NewRefreshGuard accepts the refresh_token cookie and stores the payload
// together with the raw token under RefreshContextKey.
func NewRefreshGuard(verifier TokenVerifier, logger types.Logger) *TokenGuard {
	return &TokenGuard{
		name:     "refresh",
		class:    domain.RefreshClass,
		extract:  refreshCookieToken,
		verifier: verifier,
		logger:   logger,
		attach: func(c *fiber.Ctx, payload *domain.TokenPayload, token string) {
			c.Locals(RefreshContextKey, &domain.RefreshPrincipal{
				TokenPayload: *payload,
				RefreshToken: token,
			})
		},
	}
}

// Handler returns the Fiber middleware. Every rejection produces the same
// 401 response; the cause is only logged. Verifier errors that are not
// rejections, such as an unreachable auth module, produce a 500.
func (g *TokenGuard) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := g.extract(c)
		if !ok {
			g.logger.Debug("Request rejected", "guard", g.name, "reason", "token missing", "path", c.Path())
			return unauthorized(c)
		}

		payload, err := g.verifier.VerifyToken(c.UserContext(), token, g.class)
		if errors.Is(err, auth.ErrUnauthorized) {
			g.logger.Debug("Request rejected", "guard", g.name, "reason", err.Error(), "path", c.Path())
			return unauthorized(c)
		}
		if err != nil {
			g.logger.Error("Token verification failed", "guard", g.name, "path", c.Path(), "error", err)
			return internalError(c)
		}

		g.attach(c, payload, token)
		return c.Next()
	}
}

// PayloadFromContext returns the payload attached by the access guard.
func PayloadFromContext(c *fiber.Ctx) (*domain.TokenPayload, bool) {
	payload, ok := c.Locals(UserContextKey).(*domain.TokenPayload)
	return payload, ok && payload != nil
}

// RefreshPrincipalFromContext returns the principal attached by the refresh guard.
func RefreshPrincipalFromContext(c *fiber.Ctx) (*domain.RefreshPrincipal, bool) {
	principal, ok := c.Locals(RefreshContextKey).(*domain.RefreshPrincipal)
	return principal, ok && principal != nil
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	scheme, token, found := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func refreshCookieToken(c *fiber.Ctx) (string, bool) {
	token := c.Cookies(RefreshCookieName)
	return token, token != ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: "Unauthorized",
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
