package models

import "time"

// OAuthToken is a Login With Amazon token pair. The most recently created row is the active one.
type OAuthToken struct {
	ID           uint      `gorm:"column:id;primaryKey"`
	RefreshToken string    `gorm:"column:refresh_token;not null;index"`
	AccessToken  string    `gorm:"column:access_token"`
	ExpiresAt    time.Time `gorm:"column:expires_at"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (OAuthToken) TableName() string {
	return "oauth_tokens"
}

// UsableAt reports whether the access token is still valid for at least margin after now
func (t OAuthToken) UsableAt(now time.Time, margin time.Duration) bool {
	if t.AccessToken == "" {
		return false
	}
	return t.ExpiresAt.After(now.Add(margin))
}
