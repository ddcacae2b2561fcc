//go:build integration

package repository

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/tempizhere/shortlinks/internal/models"
	"go.uber.org/zap"
)

func newIntegrationRepository(t *testing.T) *PostgresRepository {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("shortlinks"),
		postgres.WithUsername("shortlinks"),
		postgres.WithPassword("shortlinks"),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))
	// Повторная миграция не должна падать
	require.NoError(t, Migrate(ctx, db))

	repo, err := NewPostgresRepository(db, zap.NewNop(), 5*time.Second)
	require.NoError(t, err)
	return repo
}

func TestPostgresRepository_Integration(t *testing.T) {
	repo := newIntegrationRepository(t)
	ctx := context.Background()

	first, err := repo.Save(ctx, models.ShortLink{Code: "abc123", Destination: "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)

	// Дедупликация обеспечивается частичным уникальным индексом
	existing, err := repo.Save(ctx, models.ShortLink{Code: "zzz999", Destination: "https://example.com"})
	assert.ErrorIs(t, err, ErrURLExists)
	assert.Equal(t, "abc123", existing.Code)

	_, err = repo.Save(ctx, models.ShortLink{Code: "promo", Destination: "https://example.com", IsCustom: true})
	require.NoError(t, err)
	_, err = repo.Save(ctx, models.ShortLink{Code: "promo", Destination: "https://other.com", IsCustom: true})
	assert.ErrorIs(t, err, ErrCodeExists)

	past := time.Now().Add(-time.Hour)
	_, err = repo.Save(ctx, models.ShortLink{Code: "old", Destination: "https://old.com", IsCustom: true, ExpiresAt: &past})
	require.NoError(t, err)
	_, err = repo.RecordAccess(ctx, "old", time.Now())
	assert.ErrorIs(t, err, ErrExpired)
	_, err = repo.RecordAccess(ctx, "missing", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)

	// Параллельные обращения не теряют инкременты
	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.RecordAccess(ctx, "abc123", time.Now())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	link, err := repo.Get(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, int64(n), link.AccessCount)

	top, err := repo.ListTop(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "abc123", top[0].Code)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalLinks)
	assert.Equal(t, int64(n), stats.TotalClicks)

	require.NoError(t, repo.Delete(ctx, "abc123"))
	assert.ErrorIs(t, repo.Delete(ctx, "abc123"), ErrNotFound)
	require.NoError(t, repo.Clear(ctx))

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{}, stats)
}
