package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/tempizhere/shortlinks/internal/config"
	"github.com/tempizhere/shortlinks/internal/repository"
	"go.uber.org/zap"
)

// NewDB открывает пул соединений с PostgreSQL, дожидается доступности базы и применяет схему.
// Подключение повторяется cfg.ConnectRetries раз с паузой cfg.ConnectRetryDelay.
func NewDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", repository.ErrStoreUnavailable, err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := connect(ctx, db, cfg, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := repository.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// connect проверяет соединение с ограниченным числом повторов
func connect(ctx context.Context, db repository.Database, cfg *config.Config, logger *zap.Logger) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.ConnectRetryDelay), uint64(cfg.ConnectRetries)),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, cfg.QueryTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			logger.Warn("Database is not reachable",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", cfg.ConnectRetries+1),
				zap.Error(err))
			return err
		}
		return nil
	}, policy)
	if err != nil {
		return fmt.Errorf("%w: connect: %w", repository.ErrStoreUnavailable, err)
	}

	logger.Info("Connected to database", zap.Int("attempts", attempt))
	return nil
}
