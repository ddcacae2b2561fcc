// Package middleware содержит HTTP middleware для обработки запросов.
// Включает аутентификацию, логирование, сжатие ответов, ограничение частоты
// и проверку доверенных подсетей.
package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"
)

// ParseTrustedSubnet разбирает CIDR доверенной подсети; пустая строка даёт nil
func ParseTrustedSubnet(cidr string) (*net.IPNet, error) {
	if cidr == "" {
		return nil, nil
	}
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, err
	}
	return network, nil
}

// InSubnet сообщает, входит ли IP из строки в подсеть. nil-подсеть не пропускает никого.
func InSubnet(network *net.IPNet, clientIP string) bool {
	if network == nil {
		return false
	}
	ip := net.ParseIP(clientIP)
	return ip != nil && network.Contains(ip)
}

// TrustedSubnetMiddleware создаёт middleware для проверки IP-адреса в доверенной подсети.
// Проверяет заголовок X-Real-IP; при nil-подсети доступ запрещён.
func TrustedSubnetMiddleware(network *net.IPNet, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := r.Header.Get("X-Real-IP")
			if !InSubnet(network, clientIP) {
				logger.Warn("Access denied: IP not in trusted subnet",
					zap.String("method", r.Method),
					zap.String("uri", r.RequestURI),
					zap.String("client_ip", clientIP),
					zap.String("remote_addr", r.RemoteAddr))
				http.Error(w, "Access denied", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
