package api

import (
	"context"
	"fmt"

	"github.com/example/jwt-cookie-auth/modules/auth"
	"github.com/example/jwt-cookie-auth/modules/ratelimit"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// APIModule is the HTTP API module.
type APIModule struct {
	app             *fiber.App
	addr            string
	authAdapter     auth.AuthPort
	rateLimitModule *ratelimit.Module
	logger          types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*APIModule)(nil)
var _ mono.DependentModule = (*APIModule)(nil)
var _ mono.HealthCheckableModule = (*APIModule)(nil)

// NewModule creates a new APIModule listening on addr.
func NewModule(addr string, logger types.Logger) *APIModule {
	return &APIModule{
		addr:   addr,
		logger: logger.WithModule("api"),
	}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.authAdapter = auth.NewAuthAdapter(container)
	}
}

// SetRateLimitModule enables throttling of the signup and login routes.
func (m *APIModule) SetRateLimitModule(rlm *ratelimit.Module) {
	m.rateLimitModule = rlm
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if m.authAdapter == nil {
		return fmt.Errorf("auth dependency not set")
	}

	var limiter *ratelimit.Middleware
	if m.rateLimitModule != nil {
		limiter = m.rateLimitModule.Middleware()
	}

	m.app = NewApp(m.authAdapter, limiter, m.logger)

	go func() {
		if err := m.app.Listen(m.addr); err != nil {
			m.logger.Error("HTTP server error", "error", err)
		}
	}()

	m.logger.Info("HTTP server started", "addr", m.addr, "rate_limited", limiter != nil)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	m.logger.Info("Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"addr": m.addr,
		},
	}
}

// NewApp builds the Fiber application with all routes. limiter may be nil.
func NewApp(authPort auth.AuthPort, limiter *ratelimit.Middleware, log types.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	setupRoutes(app, authPort, limiter, log)
	return app
}

// setupRoutes configures all API routes.
func setupRoutes(app *fiber.App, authPort auth.AuthPort, limiter *ratelimit.Middleware, log types.Logger) {
	handlers := NewHandlers(authPort, log)
	accessGuard := NewAccessGuard(authPort, log)
	refreshGuard := NewRefreshGuard(authPort, log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"module": "api",
		})
	})

	authRoutes := app.Group(authBasePath)

	signup := []fiber.Handler{handlers.Signup}
	login := []fiber.Handler{handlers.Login}
	if limiter != nil {
		signup = append([]fiber.Handler{limiter.Limit("signup")}, signup...)
		login = append([]fiber.Handler{limiter.Limit("login")}, login...)
	}
	authRoutes.Post("/signup", signup...)
	authRoutes.Post("/login", login...)

	authRoutes.Get("/refresh", refreshGuard.Handler(), handlers.Refresh)
	authRoutes.Get("/logout", accessGuard.Handler(), handlers.Logout)
	authRoutes.Get("/profile", accessGuard.Handler(), handlers.Profile)
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}
