package service_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tempizhere/shortlinks/internal/models"
	"github.com/tempizhere/shortlinks/internal/repository"
	"github.com/tempizhere/shortlinks/internal/service"
)

// ExampleService_Create демонстрирует создание короткой ссылки с собственным кодом
func ExampleService_Create() {
	// Создаём сервис с in-memory репозиторием
	repo := repository.NewMemoryRepository()
	svc := service.NewService(repo, "http://localhost:8080")

	link, created, err := svc.Create(context.Background(), models.CreateLinkRequest{
		URL:        "https://example.com/very-long-url",
		CustomCode: "promo",
	})
	if err != nil {
		fmt.Printf("Ошибка создания: %v\n", err)
		return
	}

	fmt.Printf("Создана: %t\n", created)
	fmt.Printf("Короткий URL: %s\n", svc.ShortURL(link.Code))

	// Output:
	// Создана: true
	// Короткий URL: http://localhost:8080/promo
}

// ExampleService_Resolve демонстрирует переход по ссылке с истёкшим сроком
func ExampleService_Resolve() {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	repo := repository.NewMemoryRepository()
	svc := service.NewService(repo, "http://localhost:8080", service.WithClock(clock))

	ctx := context.Background()
	link, _, _ := svc.Create(ctx, models.CreateLinkRequest{URL: "https://example.com", ExpiryDays: 1})

	destination, _ := svc.Resolve(ctx, link.Code)
	fmt.Println(destination)

	// Через двое суток ссылка истекла
	now = now.Add(48 * time.Hour)
	_, err := svc.Resolve(ctx, link.Code)
	fmt.Println(errors.Is(err, service.ErrExpired))

	// Output:
	// https://example.com
	// true
}

// ExampleService_Stats демонстрирует получение статистики
func ExampleService_Stats() {
	repo := repository.NewMemoryRepository()
	svc := service.NewService(repo, "http://localhost:8080")
	ctx := context.Background()

	svc.Create(ctx, models.CreateLinkRequest{URL: "https://a.com", CustomCode: "a"})
	svc.Create(ctx, models.CreateLinkRequest{URL: "https://b.com", CustomCode: "b"})
	svc.Resolve(ctx, "a")

	stats, _ := svc.Stats(ctx)
	fmt.Printf("Ссылок: %d, переходов: %d, среднее: %.1f\n", stats.TotalLinks, stats.TotalClicks, stats.AvgClicks)

	// Output:
	// Ссылок: 2, переходов: 1, среднее: 0.5
}
