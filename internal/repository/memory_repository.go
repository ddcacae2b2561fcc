package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/tempizhere/shortlinks/internal/models"
)

// MemoryRepository реализует интерфейс Repository в памяти процесса
type MemoryRepository struct {
	mu        sync.RWMutex
	links     map[string]models.ShortLink // code -> link
	generated map[string]string           // destination -> code для несобственных ссылок
	lastID    int64
}

// NewMemoryRepository создаёт новый экземпляр MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		links:     make(map[string]models.ShortLink),
		generated: make(map[string]string),
	}
}

// Save сохраняет запись, если код свободен
func (r *MemoryRepository) Save(_ context.Context, link models.ShortLink) (models.ShortLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, err := r.conflict(link); err != nil {
		return existing, err
	}
	link.ID = r.lastID + 1
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now().UTC()
	}
	r.put(link)
	return link, nil
}

// Get возвращает запись по коду
func (r *MemoryRepository) Get(_ context.Context, code string) (models.ShortLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	link, ok := r.links[code]
	if !ok {
		return models.ShortLink{}, ErrNotFound
	}
	return link, nil
}

// RecordAccess увеличивает счётчик обращений под блокировкой
func (r *MemoryRepository) RecordAccess(_ context.Context, code string, now time.Time) (models.ShortLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	link, ok := r.links[code]
	if !ok {
		return models.ShortLink{}, ErrNotFound
	}
	if link.IsExpired(now) {
		return link, ErrExpired
	}
	return r.touch(code, now), nil
}

// ListTop возвращает самые посещаемые ссылки; при равенстве раньше идёт более старая запись
func (r *MemoryRepository) ListTop(_ context.Context, limit int) ([]models.ShortLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]models.ShortLink, 0, len(r.links))
	for _, link := range r.links {
		result = append(result, link)
	}
	slices.SortFunc(result, compareByAccess)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Stats считает статистику по всем записям, включая истёкшие
func (r *MemoryRepository) Stats(_ context.Context) (models.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats models.Stats
	for _, link := range r.links {
		stats.TotalLinks++
		stats.TotalClicks += link.AccessCount
		stats.MaxClicks = max(stats.MaxClicks, link.AccessCount)
	}
	if stats.TotalLinks > 0 {
		stats.AvgClicks = float64(stats.TotalClicks) / float64(stats.TotalLinks)
	}
	return stats, nil
}

// Delete удаляет запись по коду
func (r *MemoryRepository) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.links[code]; !ok {
		return ErrNotFound
	}
	r.remove(code)
	return nil
}

// Clear очищает хранилище
func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.links = make(map[string]models.ShortLink)
	r.generated = make(map[string]string)
	r.lastID = 0
	return nil
}

// conflict проверяет уникальность кода и дедупликацию сгенерированных ссылок.
// Вызывается под блокировкой.
func (r *MemoryRepository) conflict(link models.ShortLink) (models.ShortLink, error) {
	if !link.IsCustom {
		if code, ok := r.generated[link.Destination]; ok {
			return r.links[code], ErrURLExists
		}
	}
	if _, ok := r.links[link.Code]; ok {
		return models.ShortLink{}, ErrCodeExists
	}
	return models.ShortLink{}, nil
}

// put записывает запись как есть, сохраняя её ID
func (r *MemoryRepository) put(link models.ShortLink) {
	r.links[link.Code] = link
	if !link.IsCustom {
		r.generated[link.Destination] = link.Code
	}
	r.lastID = max(r.lastID, link.ID)
}

func (r *MemoryRepository) touch(code string, at time.Time) models.ShortLink {
	link := r.links[code]
	link.AccessCount++
	accessed := at
	link.LastAccessedAt = &accessed
	r.links[code] = link
	return link
}

func (r *MemoryRepository) remove(code string) {
	link := r.links[code]
	delete(r.links, code)
	if !link.IsCustom && r.generated[link.Destination] == code {
		delete(r.generated, link.Destination)
	}
}

func compareByAccess(a, b models.ShortLink) int {
	switch {
	case a.AccessCount > b.AccessCount:
		return -1
	case a.AccessCount < b.AccessCount:
		return 1
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
