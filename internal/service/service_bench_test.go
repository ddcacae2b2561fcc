package service

import (
	"context"
	"strconv"
	"testing"

	"github.com/tempizhere/shortlinks/internal/models"
	"github.com/tempizhere/shortlinks/internal/repository"
)

// BenchmarkGenerateCode измеряет производительность генерации кода
func BenchmarkGenerateCode(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := GenerateCode(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkService_Create измеряет производительность создания ссылок
func BenchmarkService_Create(b *testing.B) {
	ctx := context.Background()
	svc := NewService(repository.NewMemoryRepository(), "http://localhost:8080")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := models.CreateLinkRequest{URL: "https://example.com/" + strconv.Itoa(i)}
		if _, _, err := svc.Create(ctx, req); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkService_Resolve измеряет производительность перехода по ссылке
func BenchmarkService_Resolve(b *testing.B) {
	ctx := context.Background()
	svc := NewService(repository.NewMemoryRepository(), "http://localhost:8080")
	link, _, err := svc.Create(ctx, models.CreateLinkRequest{URL: "https://example.com"})
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Resolve(ctx, link.Code); err != nil {
			b.Fatal(err)
		}
	}
}
