// Package app содержит HTTP обработчики реестра коротких ссылок и сборку маршрутизатора.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
	"github.com/tempizhere/shortlinks/internal/auth"
	"github.com/tempizhere/shortlinks/internal/middleware"
	"github.com/tempizhere/shortlinks/internal/models"
	"github.com/tempizhere/shortlinks/internal/repository"
	"github.com/tempizhere/shortlinks/internal/service"
	"go.uber.org/zap"
)

// Размеры QR-кода в пикселях
const (
	DefaultQRSize = 256
	MinQRSize     = 64
	MaxQRSize     = 1024
)

// maxBodySize ограничивает размер тела запроса
const maxBodySize = 1 << 20

// App содержит хендлеры и зависимости
type App struct {
	svc    *service.Service
	tokens *auth.Manager
	logger *zap.Logger
}

// NewApp создаёт новое приложение
func NewApp(svc *service.Service, tokens *auth.Manager, logger *zap.Logger) *App {
	return &App{svc: svc, tokens: tokens, logger: logger}
}

// createLink создаёт ссылку; автором по умолчанию становится пользователь из куки
func (a *App) createLink(r *http.Request, req models.CreateLinkRequest) (models.ShortLink, bool, error) {
	if strings.TrimSpace(req.Creator) == "" {
		req.Creator, _ = middleware.GetUserID(r)
	}
	return a.svc.Create(r.Context(), req)
}

// HandlePostURL обрабатывает POST-запросы на "/" с адресом в теле
func (a *App) HandlePostURL(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	link, created, err := a.createLink(r, models.CreateLinkRequest{URL: string(body)})
	if err != nil {
		a.writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(a.svc.ShortURL(link.Code))); err != nil {
		a.logger.Error("Failed to write response", zap.Error(err))
	}
}

// HandleRedirect обрабатывает GET-запросы на "/{code}" и "/?code=": перенаправляет на адрес назначения
func (a *App) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		code = r.URL.Query().Get("code")
	}
	if code == "" {
		http.Error(w, "Missing short code", http.StatusBadRequest)
		return
	}

	destination, err := a.svc.Resolve(r.Context(), code)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.Header().Set("Location", destination)
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// HandleJSONShorten обрабатывает POST-запросы на "/api/shorten"
func (a *App) HandleJSONShorten(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	var reqBody models.CreateLinkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	link, created, err := a.createLink(r, reqBody)
	if err != nil {
		a.writeError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	a.writeJSONResponse(w, status, models.CreateLinkResponse{
		Result:    a.svc.ShortURL(link.Code),
		Code:      link.Code,
		ExpiresAt: link.ExpiresAt,
	})
}

// HandleTopLinks обрабатывает GET-запросы на "/api/links/top"
func (a *App) HandleTopLinks(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil || limit < 0 {
		http.Error(w, "Invalid limit", http.StatusBadRequest)
		return
	}

	links, err := a.svc.ListTop(r.Context(), limit)
	if err != nil {
		a.writeError(w, err)
		return
	}

	resp := make([]models.LinkResponse, len(links))
	for i, link := range links {
		resp[i] = a.svc.Describe(link)
	}
	a.writeJSONResponse(w, http.StatusOK, resp)
}

// HandleGetLink обрабатывает GET-запросы на "/api/links/{code}"; счётчик переходов не меняется
func (a *App) HandleGetLink(w http.ResponseWriter, r *http.Request) {
	link, err := a.svc.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, a.svc.Describe(link))
}

// HandleQRCode обрабатывает GET-запросы на "/api/links/{code}/qr" и отдаёт PNG с коротким адресом
func (a *App) HandleQRCode(w http.ResponseWriter, r *http.Request) {
	size, err := queryInt(r, "size", DefaultQRSize)
	if err != nil {
		http.Error(w, "Invalid size", http.StatusBadRequest)
		return
	}
	size = min(max(size, MinQRSize), MaxQRSize)

	link, err := a.svc.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		a.writeError(w, err)
		return
	}

	png, err := qrcode.Encode(a.svc.ShortURL(link.Code), qrcode.Low, size)
	if err != nil {
		a.logger.Error("Failed to encode QR code", zap.String("code", link.Code), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		a.logger.Error("Failed to write response", zap.Error(err))
	}
}

// HandleStats обрабатывает GET-запросы на "/api/stats"
func (a *App) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.svc.Stats(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, stats)
}

// HandleAdminLogin обрабатывает POST-запросы на "/api/admin/login" и выдаёт токен администратора
func (a *App) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var reqBody models.AdminLoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&reqBody); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := a.tokens.CheckPassword(reqBody.Password); err != nil {
		if errors.Is(err, auth.ErrAdminDisabled) {
			http.Error(w, "Admin login disabled", http.StatusForbidden)
			return
		}
		a.logger.Warn("Admin login failed", zap.String("client_ip", middleware.ClientIP(r)))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := a.tokens.IssueAdminToken()
	if err != nil {
		a.logger.Error("Failed to issue admin token", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	a.writeJSONResponse(w, http.StatusOK, models.AdminLoginResponse{Token: token})
}

// HandleDeleteLink обрабатывает DELETE-запросы на "/api/links/{code}"
func (a *App) HandleDeleteLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if err := a.svc.Delete(r.Context(), code); err != nil {
		a.writeError(w, err)
		return
	}
	a.logger.Info("Link deleted", zap.String("code", code))
	w.WriteHeader(http.StatusNoContent)
}

// HandlePing обрабатывает GET-запросы на "/ping"
func (a *App) HandlePing(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Ping(r.Context()); err != nil {
		a.logger.Warn("Store ping failed", zap.Error(err))
		http.Error(w, "Store connection failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// statusFor сопоставляет ошибку сервиса HTTP-статусу
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyURL),
		errors.Is(err, service.ErrInvalidURL),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrInvalidExpiry):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrCodeConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrExpired):
		return http.StatusGone
	case errors.Is(err, repository.ErrStoreUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError пишет ответ с ошибкой; внутренние детали в ответ не попадают
func (a *App) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusBadRequest, http.StatusConflict:
		http.Error(w, err.Error(), status)
	case http.StatusNotFound:
		http.Error(w, "Link not found", status)
	case http.StatusGone:
		http.Error(w, "Link expired", status)
	case http.StatusServiceUnavailable:
		a.logger.Error("Store unavailable", zap.Error(err))
		http.Error(w, "Service unavailable", status)
	default:
		a.logger.Error("Internal error", zap.Error(err))
		http.Error(w, "Internal server error", status)
	}
}

// writeJSONResponse пишет JSON-ответ с проверкой ошибок
func (a *App) writeJSONResponse(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		a.logger.Error("Failed to encode JSON", zap.Error(err))
		http.Error(w, "Failed to encode JSON", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		a.logger.Error("Failed to write response", zap.Error(err))
	}
}

// queryInt читает целый параметр запроса; пустое значение даёт def
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
