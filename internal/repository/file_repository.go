package repository

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/tempizhere/shortlinks/internal/models"
	"go.uber.org/zap"
)

// Операции журнала
const (
	opCreate = "create"
	opAccess = "access"
	opDelete = "delete"
)

// journalRecord представляет строку JSON-журнала
type journalRecord struct {
	Op   string            `json:"op"`
	Link *models.ShortLink `json:"link,omitempty"`
	Code string            `json:"code,omitempty"`
	At   *time.Time        `json:"at,omitempty"`
}

// FileRepository хранит состояние в памяти и дописывает каждое изменение в журнал.
// Запись в журнал выполняется до изменения состояния, поэтому неудачная запись
// не оставляет изменений.
type FileRepository struct {
	mem      *MemoryRepository
	filePath string
	logger   *zap.Logger
	mutex    sync.Mutex // сериализует изменения и порядок строк журнала
}

// NewFileRepository создаёт FileRepository, восстанавливает состояние из журнала
// и переписывает журнал текущим снимком
func NewFileRepository(filePath string, logger *zap.Logger) (*FileRepository, error) {
	repo := &FileRepository{
		mem:      NewMemoryRepository(),
		filePath: filePath,
		logger:   logger,
	}

	// Создаём директорию, если не существует
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return nil, err
	}

	if err := repo.replay(); err != nil {
		return nil, err
	}
	if err := repo.compact(); err != nil {
		return nil, err
	}
	return repo, nil
}

// Save проверяет конфликты, пишет запись в журнал и затем применяет её
func (r *FileRepository) Save(_ context.Context, link models.ShortLink) (models.ShortLink, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.mem.mu.RLock()
	existing, err := r.mem.conflict(link)
	nextID := r.mem.lastID + 1
	r.mem.mu.RUnlock()
	if err != nil {
		return existing, err
	}

	link.ID = nextID
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	if err := r.append(journalRecord{Op: opCreate, Link: &link}); err != nil {
		return models.ShortLink{}, err
	}

	r.mem.mu.Lock()
	r.mem.put(link)
	r.mem.mu.Unlock()
	return link, nil
}

// Get возвращает запись по коду
func (r *FileRepository) Get(ctx context.Context, code string) (models.ShortLink, error) {
	return r.mem.Get(ctx, code)
}

// RecordAccess фиксирует обращение к активной ссылке
func (r *FileRepository) RecordAccess(ctx context.Context, code string, now time.Time) (models.ShortLink, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	link, err := r.mem.Get(ctx, code)
	if err != nil {
		return models.ShortLink{}, err
	}
	if link.IsExpired(now) {
		return link, ErrExpired
	}
	if err := r.append(journalRecord{Op: opAccess, Code: code, At: &now}); err != nil {
		return models.ShortLink{}, err
	}

	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()
	return r.mem.touch(code, now), nil
}

// ListTop возвращает самые посещаемые ссылки
func (r *FileRepository) ListTop(ctx context.Context, limit int) ([]models.ShortLink, error) {
	return r.mem.ListTop(ctx, limit)
}

// Stats возвращает агрегированную статистику
func (r *FileRepository) Stats(ctx context.Context) (models.Stats, error) {
	return r.mem.Stats(ctx)
}

// Delete удаляет запись по коду
func (r *FileRepository) Delete(ctx context.Context, code string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, err := r.mem.Get(ctx, code); err != nil {
		return err
	}
	if err := r.append(journalRecord{Op: opDelete, Code: code}); err != nil {
		return err
	}

	r.mem.mu.Lock()
	r.mem.remove(code)
	r.mem.mu.Unlock()
	return nil
}

// Clear очищает хранилище и файл
func (r *FileRepository) Clear(ctx context.Context) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := os.WriteFile(r.filePath, nil, 0644); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFault, err)
	}
	return r.mem.Clear(ctx)
}

// append дописывает запись в конец журнала
func (r *FileRepository) append(rec journalRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreFault, err)
	}
	data = append(data, '\n')

	file, err := os.OpenFile(r.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		r.logger.Error("Failed to open journal", zap.String("path", r.filePath), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		r.logger.Error("Failed to write journal", zap.String("op", rec.Op), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStoreFault, err)
	}
	return nil
}

// replay применяет журнал к пустому состоянию
func (r *FileRepository) replay() error {
	file, err := os.Open(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	r.mem.mu.Lock()
	defer r.mem.mu.Unlock()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var rec journalRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			// Пропускаем некорректные строки и логируем это
			r.logger.Warn("Skipping invalid journal line", zap.String("line", scanner.Text()), zap.Error(err))
			continue
		}
		switch rec.Op {
		case opCreate:
			if rec.Link != nil {
				r.mem.put(*rec.Link)
			}
		case opAccess:
			if _, ok := r.mem.links[rec.Code]; ok && rec.At != nil {
				r.mem.touch(rec.Code, *rec.At)
			}
		case opDelete:
			if _, ok := r.mem.links[rec.Code]; ok {
				r.mem.remove(rec.Code)
			}
		default:
			r.logger.Warn("Skipping unknown journal operation", zap.String("op", rec.Op))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	r.logger.Info("Journal loaded", zap.String("path", r.filePath), zap.Int("links", len(r.mem.links)))
	return nil
}

// compact переписывает журнал снимком текущего состояния через временный файл
func (r *FileRepository) compact() error {
	r.mem.mu.RLock()
	links := make([]models.ShortLink, 0, len(r.mem.links))
	for _, link := range r.mem.links {
		links = append(links, link)
	}
	r.mem.mu.RUnlock()
	slices.SortFunc(links, func(a, b models.ShortLink) int {
		return cmp.Compare(a.ID, b.ID)
	})

	tmpPath := r.filePath + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return err
	}
	writer := bufio.NewWriter(file)
	for i := range links {
		data, err := json.Marshal(journalRecord{Op: opCreate, Link: &links[i]})
		if err != nil {
			file.Close()
			return err
		}
		if _, err := writer.Write(append(data, '\n')); err != nil {
			file.Close()
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, r.filePath)
}
