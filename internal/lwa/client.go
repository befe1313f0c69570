// Package lwa exchanges Login With Amazon refresh tokens for SP-API access tokens.
package lwa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const DefaultTokenURL = "https://api.amazon.com/auth/o2/token"

// LWA access tokens live for an hour; used when the response carries no expires_in
const defaultTokenLifetime = time.Hour

var ErrMissingCredentials = errors.New("LWA client credentials are not configured")

type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
}

type TokenRefreshResult struct {
	AccessToken  string
	ExpiresAt    time.Time
	RefreshToken string // May be same or new
}

func NewClient(clientID, clientSecret, tokenURL string, httpClient *http.Client) *Client {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		httpClient:   httpClient,
	}
}

// RefreshAccessToken performs the refresh_token grant. Client credentials are
// sent as form parameters, which is what the LWA endpoint expects.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenRefreshResult, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is empty")
	}

	config := &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	newToken, err := config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	if newToken.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}

	result := &TokenRefreshResult{
		AccessToken:  newToken.AccessToken,
		ExpiresAt:    newToken.Expiry,
		RefreshToken: refreshToken,
	}
	if result.ExpiresAt.IsZero() {
		result.ExpiresAt = time.Now().Add(defaultTokenLifetime)
	}
	if newToken.RefreshToken != "" {
		result.RefreshToken = newToken.RefreshToken
	}

	return result, nil
}
