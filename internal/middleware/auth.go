package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tempizhere/shortlinks/internal/auth"
	"go.uber.org/zap"
)

// CookieName имя куки с JWT пользователя
const CookieName = "jwt_token"

// UserIDKey для хранения UserID в контексте
type UserIDKey struct{}

// AuthMiddleware проверяет куку с JWT и выдаёт новую, если её нет или она недействительна.
// Идентификатор пользователя кладётся в контекст и используется как автор ссылок.
func AuthMiddleware(tokens *auth.Manager, cookieTTL time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string

			// Проверяем куку с JWT
			if cookie, err := r.Cookie(CookieName); err == nil {
				userID, err = tokens.ParseUserToken(cookie.Value)
				if err != nil {
					logger.Warn("Invalid JWT token", zap.Error(err))
				}
			}

			// Если userID не установлен, генерируем новый
			if userID == "" {
				userID = auth.NewUserID()
				token, err := tokens.IssueUserToken(userID)
				if err != nil {
					logger.Error("Failed to issue user token", zap.Error(err))
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    token,
					Expires:  time.Now().Add(cookieTTL),
					Path:     "/",
					HttpOnly: true,
				})
			}

			// Добавляем UserID в контекст
			ctx := context.WithValue(r.Context(), UserIDKey{}, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID извлекает UserID из контекста
func GetUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDKey{}).(string)
	return userID, ok
}

// AdminMiddleware пропускает только запросы с токеном администратора в заголовке Authorization
func AdminMiddleware(tokens *auth.Manager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if err := tokens.VerifyAdminToken(token); err != nil {
				logger.Warn("Admin token rejected",
					zap.String("method", r.Method),
					zap.String("uri", r.RequestURI),
					zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken извлекает токен из значения "Bearer <token>"
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
