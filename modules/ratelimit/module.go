package ratelimit

import (
	"context"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
)

// Module owns the Redis client behind the login throttle.
type Module struct {
	client     *redis.Client
	middleware *Middleware
	redisAddr  string
	logger     types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a rate limiting module. The Redis connection is
// verified on Start.
func NewModule(redisAddr string, config Config, logger types.Logger) *Module {
	logger = logger.WithModule("rate-limiter")
	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	return &Module{
		client:     client,
		middleware: NewMiddleware(NewSlidingWindowLimiter(client, config, "ratelimit:auth:"), logger),
		redisAddr:  redisAddr,
		logger:     logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rate-limiter"
}

// Start checks the Redis connection.
func (m *Module) Start(ctx context.Context) error {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	m.logger.Info("Module started", "redis", m.redisAddr)
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if err := m.client.Close(); err != nil {
		m.logger.Warn("Error closing Redis connection", "error", err)
	}
	m.logger.Info("Module stopped")
	return nil
}

// Health reports whether Redis answers.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if err := m.client.Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis": m.redisAddr,
		},
	}
}

// Middleware returns the rate limiting middleware.
func (m *Module) Middleware() *Middleware {
	return m.middleware
}
