package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShortLink_IsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	tests := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiry", nil, false},
		{"expired", &past, true},
		{"not yet expired", &future, false},
		{"expires exactly now", &now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ShortLink{Code: "abc123", ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, l.IsExpired(now))
		})
	}
}

func TestNewLinkResponse(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	l := ShortLink{
		Code:        "abc123",
		Destination: "https://example.com",
		CreatedAt:   now.Add(-48 * time.Hour),
		ExpiresAt:   &past,
		AccessCount: 5,
		Creator:     "user1",
		Notes:       "note",
	}

	resp := NewLinkResponse(l, "http://localhost:8080/abc123", now)

	assert.Equal(t, "http://localhost:8080/abc123", resp.ShortURL)
	assert.Equal(t, StatusExpired, resp.Status)
	assert.Equal(t, int64(5), resp.AccessCount)
	assert.Equal(t, "user1", resp.Creator)
	assert.Equal(t, "note", resp.Notes)
}
