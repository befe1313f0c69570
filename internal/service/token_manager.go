package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/lwa"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/models"
	"github.com/elchunenfreund/amazon-vendor-sync/internal/repository"
)

// Access tokens are refreshed when they expire within this margin
const tokenExpiryMargin = 5 * time.Minute

// AuthError means no usable access token could be obtained. No SP-API call
// can proceed without one.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth error: %s: %v", e.Reason, e.Err)
	}
	return "auth error: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// TokenStore interface for dependency injection
type TokenStore interface {
	Latest(ctx context.Context) (*models.OAuthToken, error)
	Create(ctx context.Context, token *models.OAuthToken) error
	UpdateAccessToken(ctx context.Context, refreshToken, accessToken string, expiresAt time.Time) error
}

// TokenRefresher exchanges a refresh token for a new access token
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (*lwa.TokenRefreshResult, error)
}

// TokenManager owns the stored OAuth token. The token is read from the store
// on every call and never cached in memory.
type TokenManager struct {
	store     TokenStore
	refresher TokenRefresher
	logger    *zap.Logger
	now       func() time.Time
}

func NewTokenManager(store TokenStore, refresher TokenRefresher, logger *zap.Logger) *TokenManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenManager{
		store:     store,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// GetValidAccessToken returns the stored access token, refreshing it first
// when it expires within five minutes.
func (m *TokenManager) GetValidAccessToken(ctx context.Context) (string, error) {
	token, err := m.store.Latest(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return "", &AuthError{Reason: "no stored OAuth token, run the authorization flow first"}
		}
		return "", fmt.Errorf("failed to load OAuth token: %w", err)
	}

	if token.UsableAt(m.now(), tokenExpiryMargin) {
		return token.AccessToken, nil
	}

	m.logger.Info("access token expired or expiring, refreshing", zap.Time("expires_at", token.ExpiresAt))
	return m.Refresh(ctx, token.RefreshToken)
}

// Refresh exchanges refreshToken for a new access token and stores it
func (m *TokenManager) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", &AuthError{Reason: "stored token has no refresh token"}
	}

	result, err := m.refresher.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &AuthError{Reason: "token refresh failed", Err: err}
	}

	if err := m.store.UpdateAccessToken(ctx, refreshToken, result.AccessToken, result.ExpiresAt); err != nil {
		return "", fmt.Errorf("failed to store refreshed token: %w", err)
	}

	// LWA may rotate the refresh token; the new pair becomes the latest record
	if result.RefreshToken != "" && result.RefreshToken != refreshToken {
		err := m.store.Create(ctx, &models.OAuthToken{
			RefreshToken: result.RefreshToken,
			AccessToken:  result.AccessToken,
			ExpiresAt:    result.ExpiresAt,
		})
		if err != nil {
			return "", fmt.Errorf("failed to store rotated refresh token: %w", err)
		}
		m.logger.Info("refresh token rotated")
	}

	m.logger.Info("access token refreshed", zap.Time("expires_at", result.ExpiresAt))
	return result.AccessToken, nil
}
