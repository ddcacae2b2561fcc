// Package repository содержит хранилища реестра коротких ссылок:
// PostgreSQL, файловый журнал и in-memory реализацию.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tempizhere/shortlinks/internal/models"
)

var (
	// ErrNotFound возвращается, если записи с указанным кодом нет
	ErrNotFound = errors.New("short link not found")
	// ErrExpired возвращается при обращении к ссылке с истёкшим сроком действия
	ErrExpired = errors.New("short link has expired")
	// ErrCodeExists возвращается, если код уже занят другой записью
	ErrCodeExists = errors.New("short code already exists")
	// ErrURLExists возвращается вместе с существующей записью, если сгенерированная
	// ссылка для того же адреса назначения уже сохранена
	ErrURLExists = errors.New("URL already exists")
	// ErrStoreUnavailable означает временную недоступность хранилища, операцию можно повторить
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrStoreFault означает непредвиденную ошибку хранилища
	ErrStoreFault = errors.New("store fault")
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// Repository определяет интерфейс хранилища коротких ссылок.
// Все операции чтения-изменения-записи выполняются хранилищем атомарно.
type Repository interface {
	// Save атомарно сохраняет новую запись и возвращает её с заполненным ID.
	// Для занятого кода возвращает ErrCodeExists. Для несобственной ссылки, адрес
	// которой уже сокращён, возвращает существующую запись и ErrURLExists.
	Save(ctx context.Context, link models.ShortLink) (models.ShortLink, error)
	// Get возвращает запись по коду без изменения счётчиков
	Get(ctx context.Context, code string) (models.ShortLink, error)
	// RecordAccess атомарно увеличивает счётчик обращений активной ссылки и
	// выставляет время последнего обращения. Для истёкшей ссылки возвращает ErrExpired.
	RecordAccess(ctx context.Context, code string, now time.Time) (models.ShortLink, error)
	// ListTop возвращает до limit записей по убыванию числа обращений
	ListTop(ctx context.Context, limit int) ([]models.ShortLink, error)
	// Stats возвращает агрегированную статистику без округления
	Stats(ctx context.Context) (models.Stats, error)
	// Delete удаляет запись; для неизвестного кода возвращает ErrNotFound
	Delete(ctx context.Context, code string) error
	// Clear очищает хранилище
	Clear(ctx context.Context) error
}

// Database определяет интерфейс для работы с базой данных
type Database interface {
	// PingContext проверяет соединение с базой данных
	PingContext(ctx context.Context) error
	// Close закрывает пул соединений
	Close() error
	// ExecContext выполняет SQL-команду без возврата результатов
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	// QueryContext выполняет SQL-запрос и возвращает результаты
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	// QueryRowContext выполняет SQL-запрос и возвращает одну строку результата
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
