// Команда shortener запускает HTTP и gRPC серверы реестра коротких ссылок.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tempizhere/shortlinks/internal/app"
	"github.com/tempizhere/shortlinks/internal/auth"
	"github.com/tempizhere/shortlinks/internal/config"
	grpcserver "github.com/tempizhere/shortlinks/internal/grpc"
	"github.com/tempizhere/shortlinks/internal/log"
	"github.com/tempizhere/shortlinks/internal/middleware"
	"github.com/tempizhere/shortlinks/internal/repository"
	"github.com/tempizhere/shortlinks/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

// shutdownTimeout время на завершение активных запросов
const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		panic(err)
	}
}

func run(args []string) error {
	// Получаем конфигурацию
	cfg, err := config.NewConfig(args)
	if err != nil {
		return err
	}

	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := newRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens, err := newTokenManager(cfg, logger)
	if err != nil {
		return err
	}

	network, err := middleware.ParseTrustedSubnet(cfg.TrustedSubnet)
	if err != nil {
		return err
	}

	svc := service.NewService(repo, cfg.BaseURL)
	appInstance := app.NewApp(svc, tokens, logger)

	httpServer := &http.Server{
		Addr: cfg.RunAddr,
		Handler: appInstance.Router(app.RouterOptions{
			CookieTTL:     cfg.CookieTTL,
			CreateLimiter: middleware.NewIPRateLimiter(rate.Limit(cfg.CreateRateLimit), cfg.CreateRateBurst),
			TrustedSubnet: network,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcServer *grpc.Server
	var grpcListener net.Listener
	if cfg.GRPCAddr != "" {
		grpcListener, err = net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		grpcServer = grpcserver.New(svc, tokens, network, logger)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server",
			zap.String("address", cfg.RunAddr),
			zap.String("base_url", cfg.BaseURL),
			zap.String("storage", cfg.StorageType()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if grpcServer != nil {
		g.Go(func() error {
			logger.Info("Starting gRPC server", zap.String("address", cfg.GRPCAddr))
			return grpcServer.Serve(grpcListener)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if grpcServer != nil {
			stopped := make(chan struct{})
			go func() {
				grpcServer.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-shutdownCtx.Done():
				grpcServer.Stop()
			}
		}

		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// newRepository выбирает хранилище по настройкам и возвращает функцию его закрытия
func newRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Repository, func(), error) {
	switch cfg.StorageType() {
	case config.StoragePostgres:
		db, err := app.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		repo, err := repository.NewPostgresRepository(db, logger, cfg.QueryTimeout)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database", zap.Error(err))
			}
		}
		return repo, closeDB, nil

	case config.StorageFile:
		repo, err := repository.NewFileRepository(cfg.FileStoragePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil

	default:
		logger.Warn("Using in-memory storage, links will be lost on restart")
		return repository.NewMemoryRepository(), func() {}, nil
	}
}

// newTokenManager готовит проверку пароля администратора: готовый хеш важнее открытого пароля
func newTokenManager(cfg *config.Config, logger *zap.Logger) (*auth.Manager, error) {
	var adminHash []byte
	switch {
	case cfg.AdminPasswordHash != "":
		adminHash = []byte(cfg.AdminPasswordHash)
	case cfg.AdminPassword != "":
		hash, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			return nil, err
		}
		adminHash = hash
	default:
		logger.Warn("Admin password is not configured, admin endpoints are disabled")
	}
	return auth.NewManager(cfg.JWTSecret, adminHash, cfg.CookieTTL, cfg.AdminTokenTTL), nil
}
