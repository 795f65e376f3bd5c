package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/jwt-cookie-auth/config"
	domain "github.com/example/jwt-cookie-auth/domain/user"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Service names registered by the auth module.
const (
	ServiceSignup      = "signup"
	ServiceLogin       = "login"
	ServiceRefresh     = "refresh"
	ServiceLogout      = "logout"
	ServiceVerifyToken = "verify-token"
	ServiceGetUser     = "get-user"
)

// AuthModule provides authentication services.
type AuthModule struct {
	db      *gorm.DB
	service *AuthService
	config  config.Config
	logger  types.Logger
}

// Compile-time interface checks.
var _ mono.Module = (*AuthModule)(nil)
var _ mono.ServiceProviderModule = (*AuthModule)(nil)
var _ mono.HealthCheckableModule = (*AuthModule)(nil)

// NewModule creates a new AuthModule.
func NewModule(cfg config.Config, logger types.Logger) *AuthModule {
	return &AuthModule{
		config: cfg,
		logger: logger.WithModule("auth"),
	}
}

// Name returns the module name.
func (m *AuthModule) Name() string {
	return "auth"
}

// Start opens the user store and wires the auth components.
func (m *AuthModule) Start(_ context.Context) error {
	db, err := gorm.Open(sqlite.Open(m.config.DBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	m.db = db

	if err := db.AutoMigrate(&domain.User{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	codec := NewTokenCodec(JWTConfig{
		AccessSecret:  m.config.AccessSecret,
		AccessTTL:     m.config.AccessTTL,
		RefreshSecret: m.config.RefreshSecret,
		RefreshTTL:    m.config.RefreshTTL,
		Issuer:        m.config.Issuer,
	})

	m.service = NewAuthService(
		NewUserRepository(db),
		NewCredentialHasher(m.config.BcryptCost),
		codec,
		m.logger,
	)

	m.logger.Info("Module started", "database", m.config.DBPath)
	return nil
}

// Stop shuts down the module.
func (m *AuthModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	m.logger.Info("Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *AuthModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"database": m.config.DBPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *AuthModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceSignup, json.Unmarshal, json.Marshal, m.handleSignup,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceSignup, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogin, json.Unmarshal, json.Marshal, m.handleLogin,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogin, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRefresh, json.Unmarshal, json.Marshal, m.handleRefresh,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRefresh, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLogout, json.Unmarshal, json.Marshal, m.handleLogout,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLogout, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceVerifyToken, json.Unmarshal, json.Marshal, m.handleVerifyToken,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceVerifyToken, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetUser, json.Unmarshal, json.Marshal, m.handleGetUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetUser, err)
	}

	m.logger.Info("Registered services",
		"services", []string{ServiceSignup, ServiceLogin, ServiceRefresh, ServiceLogout, ServiceVerifyToken, ServiceGetUser})
	return nil
}

func (m *AuthModule) handleSignup(ctx context.Context, req SignupRequest, _ *mono.Msg) (SessionResponse, error) {
	session, err := m.service.Signup(ctx, req.Username, req.Email, req.Password)
	return m.sessionResponse(ServiceSignup, session, err), nil
}

func (m *AuthModule) handleLogin(ctx context.Context, req LoginRequest, _ *mono.Msg) (SessionResponse, error) {
	session, err := m.service.Login(ctx, req.Username, req.Password)
	return m.sessionResponse(ServiceLogin, session, err), nil
}

func (m *AuthModule) handleRefresh(ctx context.Context, req RefreshRequest, _ *mono.Msg) (SessionResponse, error) {
	session, err := m.service.Refresh(ctx, req.UserID, req.RefreshToken)
	return m.sessionResponse(ServiceRefresh, session, err), nil
}

func (m *AuthModule) handleLogout(ctx context.Context, req LogoutRequest, _ *mono.Msg) (LogoutResponse, error) {
	err := m.service.Logout(ctx, req.UserID)
	m.logInternal(ServiceLogout, err)
	return LogoutResponse{ErrorReply: errorReply(err)}, nil
}

// handleVerifyToken reports failures in the reply body, not as a
// transport error.
func (m *AuthModule) handleVerifyToken(ctx context.Context, req VerifyTokenRequest, _ *mono.Msg) (VerifyTokenResponse, error) {
	class, err := domain.ParseSecretClass(req.Class)
	if err != nil {
		return VerifyTokenResponse{Valid: false, Reason: err.Error()}, nil
	}

	payload, err := m.service.VerifyToken(ctx, req.Token, class)
	if err != nil {
		return VerifyTokenResponse{Valid: false, Reason: err.Error()}, nil
	}

	return VerifyTokenResponse{
		Valid:     true,
		UserID:    payload.UserID,
		Username:  payload.Username,
		Claims:    payload.Claims,
		ExpiresAt: payload.ExpiresAt,
	}, nil
}

func (m *AuthModule) handleGetUser(ctx context.Context, req GetUserRequest, _ *mono.Msg) (GetUserResponse, error) {
	profile, err := m.service.GetUser(ctx, req.UserID)
	if err != nil {
		m.logInternal(ServiceGetUser, err)
		return GetUserResponse{ErrorReply: errorReply(err)}, nil
	}

	return GetUserResponse{
		ID:        profile.ID,
		Username:  profile.Username,
		Email:     profile.Email,
		CreatedAt: profile.CreatedAt,
	}, nil
}

func (m *AuthModule) sessionResponse(service string, session *domain.Session, err error) SessionResponse {
	if err != nil {
		m.logInternal(service, err)
		return SessionResponse{ErrorReply: errorReply(err)}
	}
	return SessionResponse{
		AccessToken:      session.AccessToken,
		ExpiresIn:        session.ExpiresIn,
		RefreshToken:     session.RefreshToken,
		RefreshExpiresAt: session.RefreshExpiresAt,
	}
}

func (m *AuthModule) logInternal(service string, err error) {
	if ErrorCode(err) == CodeInternal {
		m.logger.Error("Service failed", "service", service, "error", err)
	}
}
