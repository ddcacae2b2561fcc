package app

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tempizhere/shortlinks/internal/middleware"
)

// RouterOptions настройки маршрутизатора
type RouterOptions struct {
	// CookieTTL срок жизни куки пользователя
	CookieTTL time.Duration
	// CreateLimiter ограничивает частоту создания ссылок и входа администратора; nil отключает ограничение
	CreateLimiter *middleware.IPRateLimiter
	// TrustedSubnet дополнительно ограничивает маршруты администратора; nil отключает проверку
	TrustedSubnet *net.IPNet
}

// Router собирает маршрутизатор со всеми middleware
func (a *App) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.LoggingMiddleware(a.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Encoding"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.GzipMiddleware)
	r.Use(middleware.AuthMiddleware(a.tokens, opts.CookieTTL, a.logger))

	limited := func(r chi.Router) chi.Router {
		if opts.CreateLimiter == nil {
			return r
		}
		return r.With(middleware.RateLimitMiddleware(opts.CreateLimiter, a.logger))
	}

	limited(r).Post("/", a.HandlePostURL)
	r.Get("/", a.HandleRedirect)
	r.Get("/{code}", a.HandleRedirect)
	r.Get("/ping", a.HandlePing)

	r.Route("/api", func(r chi.Router) {
		limited(r).Post("/shorten", a.HandleJSONShorten)
		limited(r).Post("/admin/login", a.HandleAdminLogin)

		r.Get("/stats", a.HandleStats)
		r.Get("/links/top", a.HandleTopLinks)
		r.Get("/links/{code}", a.HandleGetLink)
		r.Get("/links/{code}/qr", a.HandleQRCode)

		r.Group(func(r chi.Router) {
			if opts.TrustedSubnet != nil {
				r.Use(middleware.TrustedSubnetMiddleware(opts.TrustedSubnet, a.logger))
			}
			r.Use(middleware.AdminMiddleware(a.tokens, a.logger))
			r.Delete("/links/{code}", a.HandleDeleteLink)
		})
	})

	return r
}
