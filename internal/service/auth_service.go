package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/task-service/internal/auth"
	"github.com/spec-kit/task-service/internal/config"
	"github.com/spec-kit/task-service/internal/domain"
	"github.com/spec-kit/task-service/internal/events"
	"github.com/spec-kit/task-service/internal/repository"
	apperrors "github.com/spec-kit/task-service/pkg/util/errorutil"
)

// LoginResult carries everything a successful login returns.
type LoginResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
	User            *domain.User
}

// RefreshResult carries the outcome of a refresh exchange. The refresh token
// is returned unchanged: rotation is deliberately not performed.
type RefreshResult struct {
	AccessToken     string
	AccessExpiresAt time.Time
	RefreshToken    string
}

// AuthService coordinates login, refresh and logout flows.
type AuthService struct {
	users      repository.UserRepository
	refresh    repository.RefreshTokenRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	refreshTTL time.Duration
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo         repository.UserRepository
	RefreshTokenRepo repository.RefreshTokenRepository
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		refresh:    deps.RefreshTokenRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		refreshTTL: cfg.Auth.RefreshTokenTTL(),
	}
}

// Login verifies credentials and mints an access token plus a persisted
// opaque refresh token. An unknown username and a wrong password produce the
// same error so callers cannot probe for accounts.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Info("login rejected: unknown username", zap.String("username", username))
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.logger.Info("login rejected: password mismatch", zap.String("username", username))
		return nil, apperrors.NewInvalidCredentials()
	}

	accessToken, expiresAt, err := s.tokenMgr.Issue(user.Username)
	if err != nil {
		return nil, err
	}

	opaque, err := auth.NewOpaqueToken()
	if err != nil {
		return nil, err
	}
	record := &domain.RefreshToken{
		Token:     opaque,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.refreshTTL),
	}
	if err := s.refresh.Create(ctx, record); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventUserLoggedIn,
		UserID:  user.ID,
		Payload: events.UserLoggedInPayload{Username: user.Username},
	})
	s.logger.Info("user logged in", zap.String("username", user.Username))

	return &LoginResult{
		AccessToken:     accessToken,
		AccessExpiresAt: expiresAt,
		RefreshToken:    opaque,
		User:            user,
	}, nil
}

// Refresh exchanges a stored refresh token for a new access token. An expired
// row is deleted on presentation; the refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	record, err := s.refresh.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewRefreshNotFound()
		}
		return nil, err
	}

	now := time.Now()
	if !record.Usable(now) {
		if !now.Before(record.ExpiresAt) {
			if err := s.refresh.Delete(ctx, record.ID); err != nil {
				s.logger.Warn("failed to delete expired refresh token", zap.Error(err))
			}
		}
		return nil, apperrors.NewRefreshExpired()
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewRefreshNotFound()
		}
		return nil, err
	}

	accessToken, expiresAt, err := s.tokenMgr.Issue(user.Username)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventTokenRefreshed,
		UserID:  user.ID,
		Payload: events.TokenRefreshedPayload{Username: user.Username},
	})

	return &RefreshResult{
		AccessToken:     accessToken,
		AccessExpiresAt: expiresAt,
		RefreshToken:    refreshToken,
	}, nil
}

// Logout revokes the presented refresh token. The access token stays valid
// until its expiry; there is no server-side access token state to clear.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refresh.Revoke(ctx, refreshToken); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewRefreshNotFound()
		}
		return err
	}
	return nil
}

// TokenManager exposes the underlying token manager for the request gate.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
