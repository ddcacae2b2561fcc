// Package models содержит типы данных реестра коротких ссылок и DTO транспортного слоя.
package models

import "time"

// Статусы ссылки, вычисляемые в момент чтения
const (
	StatusActive  = "active"
	StatusExpired = "expired"
)

// ShortLink описывает запись реестра: короткий код и ссылку назначения с метаданными
type ShortLink struct {
	ID             int64      `json:"id"`
	Code           string     `json:"code"`
	Destination    string     `json:"destination"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	AccessCount    int64      `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	Creator        string     `json:"creator,omitempty"`
	IsCustom       bool       `json:"is_custom"`
	Notes          string     `json:"notes,omitempty"`
}

// IsExpired сообщает, истёк ли срок действия ссылки к моменту now.
// Ссылка без ExpiresAt не истекает никогда.
func (l ShortLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// Status возвращает StatusActive или StatusExpired
func (l ShortLink) Status(now time.Time) string {
	if l.IsExpired(now) {
		return StatusExpired
	}
	return StatusActive
}

// Stats содержит агрегированную статистику реестра
type Stats struct {
	TotalLinks  int64   `json:"total_links"`
	TotalClicks int64   `json:"total_clicks"`
	MaxClicks   int64   `json:"max_clicks"`
	AvgClicks   float64 `json:"avg_clicks"`
}

// CreateLinkRequest содержит параметры создания короткой ссылки
type CreateLinkRequest struct {
	URL        string `json:"url"`
	CustomCode string `json:"custom_code,omitempty"`
	ExpiryDays int    `json:"expiry_days,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Creator    string `json:"creator,omitempty"`
}

type CreateLinkResponse struct {
	Result    string     `json:"result"`
	Code      string     `json:"code"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// LinkResponse описывает ссылку в ответах API
type LinkResponse struct {
	ShortURL       string     `json:"short_url"`
	Code           string     `json:"code"`
	Destination    string     `json:"destination"`
	Status         string     `json:"status"`
	AccessCount    int64      `json:"access_count"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	IsCustom       bool       `json:"is_custom"`
	Creator        string     `json:"creator,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// NewLinkResponse собирает LinkResponse из записи реестра
func NewLinkResponse(l ShortLink, shortURL string, now time.Time) LinkResponse {
	return LinkResponse{
		ShortURL:       shortURL,
		Code:           l.Code,
		Destination:    l.Destination,
		Status:         l.Status(now),
		AccessCount:    l.AccessCount,
		CreatedAt:      l.CreatedAt,
		ExpiresAt:      l.ExpiresAt,
		LastAccessedAt: l.LastAccessedAt,
		IsCustom:       l.IsCustom,
		Creator:        l.Creator,
		Notes:          l.Notes,
	}
}

type AdminLoginRequest struct {
	Password string `json:"password"`
}

type AdminLoginResponse struct {
	Token string `json:"token"`
}
