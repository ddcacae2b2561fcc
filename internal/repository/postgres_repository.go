package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tempizhere/shortlinks/internal/models"
	"go.uber.org/zap"
)

// DefaultQueryTimeout используется, если таймаут запроса не задан
const DefaultQueryTimeout = 5 * time.Second

const linkColumns = `id, code, destination, created_at, expires_at, access_count, last_accessed_at, creator, is_custom, notes`

// schemaStatements создают таблицу и индексы; повторный запуск безопасен
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS short_links (
		id BIGSERIAL PRIMARY KEY,
		destination TEXT NOT NULL,
		code VARCHAR(32) NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at TIMESTAMPTZ NULL,
		access_count BIGINT NOT NULL DEFAULT 0,
		last_accessed_at TIMESTAMPTZ NULL,
		creator TEXT NULL,
		is_custom BOOLEAN NOT NULL DEFAULT FALSE,
		notes TEXT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS short_links_created_at_idx ON short_links (created_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS short_links_generated_destination_key ON short_links (destination) WHERE NOT is_custom`,
}

// Migrate создаёт схему хранилища
func Migrate(ctx context.Context, db Database) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// PostgresRepository реализует интерфейс Repository с использованием PostgreSQL
type PostgresRepository struct {
	db      Database
	logger  *zap.Logger
	timeout time.Duration
}

// NewPostgresRepository создаёт новый экземпляр PostgresRepository
func NewPostgresRepository(db Database, logger *zap.Logger, timeout time.Duration) (*PostgresRepository, error) {
	if db == nil {
		return nil, errors.New("database is nil")
	}
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	return &PostgresRepository{
		db:      db,
		logger:  logger,
		timeout: timeout,
	}, nil
}

// Save вставляет запись одним запросом; конфликты определяет уникальный индекс
func (r *PostgresRepository) Save(ctx context.Context, link models.ShortLink) (models.ShortLink, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO short_links (destination, code, created_at, expires_at, creator, is_custom, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
		RETURNING id`,
		link.Destination, link.Code, link.CreatedAt, nullTime(link.ExpiresAt),
		nullString(link.Creator), link.IsCustom, nullString(link.Notes),
	).Scan(&link.ID)
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.logger.Error("Failed to save link", zap.String("code", link.Code), zap.Error(err))
		return models.ShortLink{}, r.classify("save", err)
	}

	// Вставка не выполнена: либо адрес уже сокращён, либо код занят
	if !link.IsCustom {
		existing, err := r.findGenerated(ctx, link.Destination)
		if err == nil {
			return existing, ErrURLExists
		}
		if !errors.Is(err, ErrNotFound) {
			return models.ShortLink{}, err
		}
	}
	return models.ShortLink{}, ErrCodeExists
}

// Get возвращает запись по коду
func (r *PostgresRepository) Get(ctx context.Context, code string) (models.ShortLink, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	link, err := scanLink(r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM short_links WHERE code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ShortLink{}, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get link", zap.String("code", code), zap.Error(err))
		return models.ShortLink{}, r.classify("get", err)
	}
	return link, nil
}

// RecordAccess увеличивает счётчик одним условным UPDATE
func (r *PostgresRepository) RecordAccess(ctx context.Context, code string, now time.Time) (models.ShortLink, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	link, err := scanLink(r.db.QueryRowContext(ctx,
		`UPDATE short_links
		SET access_count = access_count + 1, last_accessed_at = $2
		WHERE code = $1 AND (expires_at IS NULL OR expires_at >= $2)
		RETURNING `+linkColumns, code, now))
	if err == nil {
		return link, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.logger.Error("Failed to record access", zap.String("code", code), zap.Error(err))
		return models.ShortLink{}, r.classify("record access", err)
	}

	// Строка не обновлена: кода нет или ссылка истекла
	link, err = r.Get(ctx, code)
	if err != nil {
		return models.ShortLink{}, err
	}
	return link, ErrExpired
}

// ListTop возвращает самые посещаемые ссылки
func (r *PostgresRepository) ListTop(ctx context.Context, limit int) ([]models.ShortLink, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM short_links ORDER BY access_count DESC, id ASC LIMIT $1`,
		sql.NullInt64{Int64: int64(limit), Valid: limit > 0})
	if err != nil {
		r.logger.Error("Failed to list top links", zap.Error(err))
		return nil, r.classify("list top", err)
	}
	defer rows.Close()

	var links []models.ShortLink
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, r.classify("list top", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, r.classify("list top", err)
	}
	return links, nil
}

// Stats возвращает агрегаты по всем записям
func (r *PostgresRepository) Stats(ctx context.Context) (models.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var stats models.Stats
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(access_count), 0), COALESCE(MAX(access_count), 0),
		COALESCE(AVG(access_count), 0)::float8 FROM short_links`,
	).Scan(&stats.TotalLinks, &stats.TotalClicks, &stats.MaxClicks, &stats.AvgClicks)
	if err != nil {
		r.logger.Error("Failed to get stats", zap.Error(err))
		return models.Stats{}, r.classify("stats", err)
	}
	return stats, nil
}

// Delete удаляет запись по коду
func (r *PostgresRepository) Delete(ctx context.Context, code string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM short_links WHERE code = $1`, code)
	if err != nil {
		r.logger.Error("Failed to delete link", zap.String("code", code), zap.Error(err))
		return r.classify("delete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return r.classify("delete", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear очищает все записи в таблице short_links
func (r *PostgresRepository) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `TRUNCATE TABLE short_links RESTART IDENTITY`); err != nil {
		r.logger.Error("Failed to clear database", zap.Error(err))
		return r.classify("clear", err)
	}
	return nil
}

// Ping проверяет соединение с базой данных
func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return r.classify("ping", err)
	}
	return nil
}

func (r *PostgresRepository) findGenerated(ctx context.Context, destination string) (models.ShortLink, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM short_links WHERE destination = $1 AND NOT is_custom`, destination))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ShortLink{}, ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to find generated link", zap.String("destination", destination), zap.Error(err))
		return models.ShortLink{}, r.classify("find generated", err)
	}
	return link, nil
}

// classify относит ошибку драйвера к ErrStoreUnavailable или ErrStoreFault
func (r *PostgresRepository) classify(op string, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrStoreFault, op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08 - ошибки соединения, 57P0x - остановка сервера, 53300 - слишком много соединений
		return strings.HasPrefix(pgErr.Code, "08") || strings.HasPrefix(pgErr.Code, "57P0") || pgErr.Code == "53300"
	}
	if pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (models.ShortLink, error) {
	var (
		link           models.ShortLink
		expiresAt      sql.NullTime
		lastAccessedAt sql.NullTime
		creator        sql.NullString
		notes          sql.NullString
	)
	err := row.Scan(&link.ID, &link.Code, &link.Destination, &link.CreatedAt, &expiresAt,
		&link.AccessCount, &lastAccessedAt, &creator, &link.IsCustom, &notes)
	if err != nil {
		return models.ShortLink{}, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		link.ExpiresAt = &t
	}
	if lastAccessedAt.Valid {
		t := lastAccessedAt.Time
		link.LastAccessedAt = &t
	}
	link.Creator = creator.String
	link.Notes = notes.String
	return link, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
