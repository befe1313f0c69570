package models

import (
	"testing"
	"time"
)

func TestOAuthToken_UsableAt(t *testing.T) {
	now := time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)
	margin := 5 * time.Minute

	tests := []struct {
		name     string
		token    OAuthToken
		expected bool
	}{
		{"fresh", OAuthToken{AccessToken: "a", ExpiresAt: now.Add(time.Hour)}, true},
		{"just outside margin", OAuthToken{AccessToken: "a", ExpiresAt: now.Add(margin + time.Second)}, true},
		{"exactly at margin", OAuthToken{AccessToken: "a", ExpiresAt: now.Add(margin)}, false},
		{"inside margin", OAuthToken{AccessToken: "a", ExpiresAt: now.Add(time.Minute)}, false},
		{"expired", OAuthToken{AccessToken: "a", ExpiresAt: now.Add(-time.Hour)}, false},
		{"no access token", OAuthToken{ExpiresAt: now.Add(time.Hour)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.token.UsableAt(now, margin); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSyncRunStatus_Constants(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		expected string
	}{
		{"succeeded", SyncRunSucceeded, "succeeded"},
		{"partial", SyncRunPartial, "partial"},
		{"failed", SyncRunFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.status != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, tt.status)
			}
		})
	}
}

func TestTableNames(t *testing.T) {
	tests := map[string]string{
		OAuthToken{}.TableName():    "oauth_tokens",
		VendorReport{}.TableName():  "vendor_reports",
		PurchaseOrder{}.TableName(): "purchase_orders",
		POLineItem{}.TableName():    "po_line_items",
		SyncRun{}.TableName():       "sync_runs",
	}
	for got, want := range tests {
		if got != want {
			t.Errorf("Expected table %s, got %s", want, got)
		}
	}
}
