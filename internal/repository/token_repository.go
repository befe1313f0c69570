package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/elchunenfreund/amazon-vendor-sync/internal/models"
	"gorm.io/gorm"
)

var ErrTokenNotFound = errors.New("oauth token not found")

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Latest retrieves the most recently created token record
func (r *TokenRepository) Latest(ctx context.Context) (*models.OAuthToken, error) {
	var token models.OAuthToken
	result := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		First(&token)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get token: %w", result.Error)
	}
	return &token, nil
}

// Create stores a new token record
func (r *TokenRepository) Create(ctx context.Context, token *models.OAuthToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	return nil
}

// UpdateAccessToken replaces the access token and its expiry for the given refresh token
func (r *TokenRepository) UpdateAccessToken(ctx context.Context, refreshToken string, accessToken string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.OAuthToken{}).
		Where("refresh_token = ?", refreshToken).
		Updates(map[string]interface{}{
			"access_token": accessToken,
			"expires_at":   expiresAt,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}
