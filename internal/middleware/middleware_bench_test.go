package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BenchmarkLoggingMiddleware измеряет производительность middleware логирования
func BenchmarkLoggingMiddleware(b *testing.B) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	loggingMiddleware := LoggingMiddleware(zap.NewNop())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()
		loggingMiddleware(handler).ServeHTTP(w, req)
	}
}

// BenchmarkGzipMiddleware измеряет производительность middleware сжатия с большим ответом
func BenchmarkGzipMiddleware(b *testing.B) {
	largeResponse := []byte(strings.Repeat(`{"code":"abc123"},`, 500))
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(largeResponse)
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		w := httptest.NewRecorder()
		GzipMiddleware(handler).ServeHTTP(w, req)
	}
}

// BenchmarkRateLimitMiddleware измеряет производительность конкурентного ограничения частоты
func BenchmarkRateLimitMiddleware(b *testing.B) {
	handler := RateLimitMiddleware(NewIPRateLimiter(rate.Inf, 1), zap.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
		}
	})
}
