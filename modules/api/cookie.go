package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	// RefreshCookieName is the cookie that carries the refresh token.
	RefreshCookieName = "refresh_token"

	authBasePath = "/api/auth"
	// RefreshPath is the only path the refresh cookie is sent to.
	RefreshPath = authBasePath + "/refresh"
)

// setRefreshCookie stores the refresh token in an HttpOnly, Secure,
// SameSite=Strict cookie scoped to RefreshPath. Its expiry is the refresh
// token's own expiry.
func setRefreshCookie(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     RefreshPath,
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// expireRefreshCookie tells the client to drop the refresh cookie.
func expireRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     RefreshPath,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}
