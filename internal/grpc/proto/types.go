// Package proto содержит сообщения и описание gRPC сервиса реестра коротких ссылок.
// Сообщения передаются в JSON через кодек, зарегистрированный под подтипом "json".
package proto

import "time"

// CreateLinkRequest представляет запрос на создание короткой ссылки
type CreateLinkRequest struct {
	URL        string `json:"url"`
	CustomCode string `json:"custom_code,omitempty"`
	ExpiryDays int32  `json:"expiry_days,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Creator    string `json:"creator,omitempty"`
}

// CreateLinkResponse представляет ответ с созданной ссылкой.
// Created равен false, если вернулась существующая ссылка на тот же адрес.
type CreateLinkResponse struct {
	Link    *Link `json:"link"`
	Created bool  `json:"created"`
}

// ResolveLinkRequest представляет запрос перехода по коду
type ResolveLinkRequest struct {
	Code string `json:"code"`
}

// ResolveLinkResponse содержит адрес назначения
type ResolveLinkResponse struct {
	Destination string `json:"destination"`
}

// GetLinkRequest представляет запрос сведений о ссылке
type GetLinkRequest struct {
	Code string `json:"code"`
}

// GetLinkResponse содержит сведения о ссылке
type GetLinkResponse struct {
	Link *Link `json:"link"`
}

// ListTopLinksRequest представляет запрос самых посещаемых ссылок
type ListTopLinksRequest struct {
	Limit int32 `json:"limit,omitempty"`
}

// ListTopLinksResponse содержит список ссылок по убыванию числа переходов
type ListTopLinksResponse struct {
	Links []*Link `json:"links"`
}

// GetStatsRequest представляет запрос статистики
type GetStatsRequest struct{}

// GetStatsResponse представляет ответ со статистикой
type GetStatsResponse struct {
	TotalLinks  int64   `json:"total_links"`
	TotalClicks int64   `json:"total_clicks"`
	MaxClicks   int64   `json:"max_clicks"`
	AvgClicks   float64 `json:"avg_clicks"`
}

// DeleteLinkRequest представляет запрос удаления ссылки
type DeleteLinkRequest struct {
	Code string `json:"code"`
}

// DeleteLinkResponse пустой ответ на удаление
type DeleteLinkResponse struct{}

// PingRequest представляет запрос проверки состояния
type PingRequest struct{}

// PingResponse представляет ответ проверки состояния
type PingResponse struct {
	StoreAvailable bool `json:"store_available"`
}

// Link описывает короткую ссылку
type Link struct {
	Code           string     `json:"code"`
	ShortURL       string     `json:"short_url"`
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
