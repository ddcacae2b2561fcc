package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	middleware := LoggingMiddleware(zap.New(core))

	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusCreated)
		if _, err := w.Write([]byte("test response")); err != nil {
			t.Logf("Ошибка при записи в response: %v", err)
		}
	})

	req := httptest.NewRequest("POST", "/test", nil)
	w := httptest.NewRecorder()

	chimw.RequestID(middleware(handler)).ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "test response", w.Body.String())

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	fields := entry.ContextMap()
	assert.Equal(t, "HTTP request", entry.Message)
	assert.Equal(t, "POST", fields["method"])
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.Equal(t, int64(len("test response")), fields["size"])
	assert.NotEmpty(t, fields["request_id"])
}

func TestLoggingMiddleware_DifferentStatusCodes(t *testing.T) {
	tests := []struct {
		status int
		level  zapcore.Level
	}{
		{http.StatusOK, zapcore.InfoLevel},
		{http.StatusTemporaryRedirect, zapcore.InfoLevel},
		{http.StatusNotFound, zapcore.WarnLevel},
		{http.StatusGone, zapcore.WarnLevel},
		{http.StatusServiceUnavailable, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run("Status"+strconv.Itoa(tt.status), func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			w := httptest.NewRecorder()
			LoggingMiddleware(zap.New(core))(handler).ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

			assert.Equal(t, tt.status, w.Code)
			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.level, logs.All()[0].Level)
		})
	}
}

func TestLoggingResponseWriter_Write(t *testing.T) {
	w := httptest.NewRecorder()
	lw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	n, err := lw.Write([]byte("test data"))
	assert.NoError(t, err)
	assert.Equal(t, 9, n)

	_, err = lw.Write([]byte(" more"))
	assert.NoError(t, err)
	assert.Equal(t, 14, lw.size)
	assert.Equal(t, "test data more", w.Body.String())

	lw.WriteHeader(http.StatusNotFound)
	assert.Equal(t, http.StatusNotFound, lw.statusCode)
}
