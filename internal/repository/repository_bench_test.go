package repository

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/tempizhere/shortlinks/internal/models"
	"go.uber.org/zap"
)

// BenchmarkMemoryRepository_Save измеряет производительность сохранения в memory репозитории
func BenchmarkMemoryRepository_Save(b *testing.B) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		code := "code-" + strconv.Itoa(i)
		_, err := repo.Save(ctx, models.ShortLink{Code: code, Destination: "https://example.com/" + code})
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMemoryRepository_RecordAccess измеряет конкурентный учёт обращений
func BenchmarkMemoryRepository_RecordAccess(b *testing.B) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	if _, err := repo.Save(ctx, models.ShortLink{Code: "hot", Destination: "https://example.com"}); err != nil {
		b.Fatal(err)
	}
	now := time.Now()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := repo.RecordAccess(ctx, "hot", now); err != nil {
				b.Error(err)
			}
		}
	})
}

// BenchmarkFileRepository_Save измеряет производительность записи в журнал
func BenchmarkFileRepository_Save(b *testing.B) {
	ctx := context.Background()
	repo, err := NewFileRepository(filepath.Join(b.TempDir(), "links.jsonl"), zap.NewNop())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		code := "code-" + strconv.Itoa(i)
		_, err := repo.Save(ctx, models.ShortLink{Code: code, Destination: "https://example.com/" + code})
		if err != nil {
			b.Fatal(err)
		}
	}
}
