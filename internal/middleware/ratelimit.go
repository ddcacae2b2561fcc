package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// idleLimiterTTL время, после которого лимитер неактивного IP удаляется
const idleLimiterTTL = 3 * time.Minute

// IPRateLimiter хранит отдельный лимитер для каждого IP
type IPRateLimiter struct {
	mu        sync.Mutex
	ips       map[string]*rateLimiterEntry
	r         rate.Limit
	burst     int
	lastSweep time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter создаёт лимитер: r запросов в секунду, burst запросов подряд
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:       make(map[string]*rateLimiterEntry),
		r:         r,
		burst:     burst,
		lastSweep: time.Now(),
	}
}

// GetLimiter возвращает лимитер для IP, заодно удаляя давно неактивные
func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastSweep) > time.Minute {
		for key, entry := range rl.ips {
			if now.Sub(entry.lastSeen) > idleLimiterTTL {
				delete(rl.ips, key)
			}
		}
		rl.lastSweep = now
	}

	entry, exists := rl.ips[ip]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.ips[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// Allow сообщает, можно ли выполнить запрос с этого IP
func (rl *IPRateLimiter) Allow(ip string) bool {
	return rl.GetLimiter(ip).Allow()
}

// RateLimitMiddleware отклоняет запросы сверх лимита со статусом 429.
// Ключом служит адрес соединения: X-Real-IP задаёт клиент и для лимита не годится.
func RateLimitMiddleware(limiter *IPRateLimiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := PeerIP(r)
			if !limiter.Allow(ip) {
				logger.Warn("Rate limit exceeded",
					zap.String("ip", ip),
					zap.String("path", r.URL.Path))
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP возвращает IP клиента из X-Real-IP или адреса соединения; годится только для логов
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return PeerIP(r)
}

// PeerIP возвращает IP из адреса соединения
func PeerIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
