package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/jwt-cookie-auth/config"
	"github.com/example/jwt-cookie-auth/modules/api"
	"github.com/example/jwt-cookie-auth/modules/auth"
	"github.com/example/jwt-cookie-auth/modules/ratelimit"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== JWT Cookie Authentication ===")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	logger := app.Logger()

	apiModule := api.NewModule(cfg.HTTPAddr, logger)

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	app.Register(auth.NewModule(cfg, logger))

	if cfg.RateLimitRedisAddr != "" {
		rateLimitModule := ratelimit.NewModule(cfg.RateLimitRedisAddr, ratelimit.Config{
			RequestsPerWindow: cfg.RateLimitLoginRequests,
			WindowSize:        cfg.RateLimitLoginWindow,
		}, logger)
		app.Register(rateLimitModule)
		apiModule.SetRateLimitModule(rateLimitModule)
	}

	app.Register(apiModule) // Depends on auth module

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(cfg)

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(cfg config.Config) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("Access tokens expire after %s, refresh tokens after %s", cfg.AccessTTL, cfg.RefreshTTL)
	if cfg.RateLimitRedisAddr != "" {
		log.Printf("Signup and login limited to %d requests per %s", cfg.RateLimitLoginRequests, cfg.RateLimitLoginWindow)
	}
	log.Println("")
	log.Printf("REST API Endpoints (%s):", cfg.HTTPAddr)
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/auth/signup   - Create an account and start a session")
	log.Println("  POST   /api/auth/login    - Start a session")
	log.Println("  GET    /health            - Health check")
	log.Println("")
	log.Println("  Refresh cookie required:")
	log.Println("  GET    /api/auth/refresh  - Rotate the refresh token")
	log.Println("")
	log.Println("  Bearer access token required:")
	log.Println("  GET    /api/auth/logout   - End the session")
	log.Println("  GET    /api/auth/profile  - Current user profile")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
