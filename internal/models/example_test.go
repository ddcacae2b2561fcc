package models_test

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tempizhere/shortlinks/internal/models"
)

// ExampleCreateLinkRequest демонстрирует JSON запроса на создание ссылки с собственным кодом
func ExampleCreateLinkRequest() {
	req := models.CreateLinkRequest{
		URL:        "https://example.com/very-long-url",
		CustomCode: "promo",
		ExpiryDays: 7,
	}

	jsonData, _ := json.Marshal(req)
	fmt.Printf("JSON запрос: %s\n", jsonData)

	// Output:
	// JSON запрос: {"url":"https://example.com/very-long-url","custom_code":"promo","expiry_days":7}
}

// ExampleShortLink_Status демонстрирует вычисление статуса ссылки в момент чтения
func ExampleShortLink_Status() {
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)

	active := models.ShortLink{Code: "abc123"}
	expired := models.ShortLink{Code: "old", ExpiresAt: &yesterday}

	fmt.Println(active.Status(now))
	fmt.Println(expired.Status(now))

	// Output:
	// active
	// expired
}
