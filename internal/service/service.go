// Package service реализует реестр коротких ссылок: создание, переход,
// статистику и удаление поверх хранилища repository.Repository.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tempizhere/shortlinks/internal/models"
	"github.com/tempizhere/shortlinks/internal/repository"
)

var (
	ErrEmptyURL      = errors.New("empty URL")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrInvalidCode   = errors.New("invalid short code")
	ErrInvalidExpiry = errors.New("expiry_days is too large")
	ErrCodeConflict  = errors.New("short code already taken")

	ErrNotFound = repository.ErrNotFound
	ErrExpired  = repository.ErrExpired
)

const (
	// CodeLength длина сгенерированного кода
	CodeLength = 6
	// DefaultTopLimit используется, если лимит не задан
	DefaultTopLimit = 20
	// MaxTopLimit максимальный размер списка популярных ссылок
	MaxTopLimit = 100
	// MaxExpiryDays наибольший срок действия ссылки, примерно сто лет
	MaxExpiryDays = 36500

	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// байты не меньше этого значения отбрасываются, чтобы символы были равновероятны
	maxUnbiasedByte = 256 - 256%len(codeAlphabet)
)

var customCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// reservedCodes заняты маршрутами HTTP и не могут быть собственными кодами
var reservedCodes = map[string]struct{}{
	"api":  {},
	"ping": {},
}

// Option настраивает Service
type Option func(*Service)

// WithClock задаёт источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithCodeGenerator задаёт генератор кодов
func WithCodeGenerator(generate func() (string, error)) Option {
	return func(s *Service) {
		s.generate = generate
	}
}

// Service реализует логику работы с короткими ссылками.
// Изменяемого состояния не хранит: атомарность обеспечивает хранилище.
type Service struct {
	repo     repository.Repository
	baseURL  string
	now      func() time.Time
	generate func() (string, error)
	validate *validator.Validate
}

// NewService создаёт новый экземпляр Service
func NewService(repo repository.Repository, baseURL string, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
		generate: GenerateCode,
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateCode возвращает случайный код из CodeLength символов алфавита [A-Za-z0-9]
func GenerateCode() (string, error) {
	code := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)
	for len(code) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= maxUnbiasedByte {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == CodeLength {
				break
			}
		}
	}
	return string(code), nil
}

// Create создаёт короткую ссылку. created равен false, если вернулась
// уже существующая сгенерированная ссылка на тот же адрес.
func (s *Service) Create(ctx context.Context, req models.CreateLinkRequest) (link models.ShortLink, created bool, err error) {
	destination := strings.TrimSpace(req.URL)
	if destination == "" {
		return models.ShortLink{}, false, ErrEmptyURL
	}
	if !s.validURL(destination) {
		return models.ShortLink{}, false, ErrInvalidURL
	}
	if req.ExpiryDays > MaxExpiryDays {
		return models.ShortLink{}, false, ErrInvalidExpiry
	}

	now := s.now().UTC()
	link = models.ShortLink{
		Destination: destination,
		CreatedAt:   now,
		Creator:     strings.TrimSpace(req.Creator),
		Notes:       req.Notes,
	}
	if req.ExpiryDays > 0 {
		expiresAt := now.AddDate(0, 0, req.ExpiryDays)
		link.ExpiresAt = &expiresAt
	}

	if custom := strings.TrimSpace(req.CustomCode); custom != "" {
		if !customCodePattern.MatchString(custom) {
			return models.ShortLink{}, false, ErrInvalidCode
		}
		if _, reserved := reservedCodes[custom]; reserved {
			return models.ShortLink{}, false, ErrInvalidCode
		}
		link.Code = custom
		link.IsCustom = true
		saved, err := s.repo.Save(ctx, link)
		if errors.Is(err, repository.ErrCodeExists) {
			return models.ShortLink{}, false, ErrCodeConflict
		}
		if err != nil {
			return models.ShortLink{}, false, err
		}
		return saved, true, nil
	}

	// Перебираем коды, пока не найдётся свободный
	for {
		if err := ctx.Err(); err != nil {
			return models.ShortLink{}, false, err
		}
		code, err := s.generate()
		if err != nil {
			return models.ShortLink{}, false, err
		}
		link.Code = code

		saved, err := s.repo.Save(ctx, link)
		switch {
		case err == nil:
			return saved, true, nil
		case errors.Is(err, repository.ErrURLExists):
			return saved, false, nil
		case errors.Is(err, repository.ErrCodeExists):
			continue
		default:
			return models.ShortLink{}, false, err
		}
	}
}

// Resolve возвращает адрес назначения и учитывает обращение
func (s *Service) Resolve(ctx context.Context, code string) (string, error) {
	link, err := s.repo.RecordAccess(ctx, code, s.now().UTC())
	if err != nil {
		return "", err
	}
	return link.Destination, nil
}

// Lookup возвращает ссылку без учёта обращения
func (s *Service) Lookup(ctx context.Context, code string) (models.ShortLink, error) {
	return s.repo.Get(ctx, code)
}

// ListTop возвращает самые посещаемые ссылки
func (s *Service) ListTop(ctx context.Context, limit int) ([]models.ShortLink, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	limit = min(limit, MaxTopLimit)
	return s.repo.ListTop(ctx, limit)
}

// Stats возвращает статистику; среднее округляется до одного знака
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	stats.AvgClicks = math.Round(stats.AvgClicks*10) / 10
	return stats, nil
}

// Delete удаляет ссылку
func (s *Service) Delete(ctx context.Context, code string) error {
	return s.repo.Delete(ctx, code)
}

// Ping проверяет доступность хранилища, если оно это поддерживает
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.repo.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// ShortURL возвращает полный короткий адрес для кода
func (s *Service) ShortURL(code string) string {
	return s.baseURL + "/" + code
}

// Describe собирает представление ссылки для ответа клиенту
func (s *Service) Describe(link models.ShortLink) models.LinkResponse {
	return models.NewLinkResponse(link, s.ShortURL(link.Code), s.now())
}

func (s *Service) validURL(raw string) bool {
	if err := s.validate.Var(raw, "required,url"); err != nil {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
