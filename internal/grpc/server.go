// Package grpc содержит реализацию gRPC сервера реестра коротких ссылок
package grpc

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/tempizhere/shortlinks/internal/auth"
	"github.com/tempizhere/shortlinks/internal/grpc/proto"
	"github.com/tempizhere/shortlinks/internal/models"
	"github.com/tempizhere/shortlinks/internal/repository"
	"github.com/tempizhere/shortlinks/internal/service"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server реализует gRPC сервис LinkRegistry поверх service.Service
type Server struct {
	proto.UnimplementedLinkRegistryServer
	svc    *service.Service
	logger *zap.Logger
}

// NewServer создаёт новый gRPC сервер
func NewServer(svc *service.Service, logger *zap.Logger) *Server {
	return &Server{
		svc:    svc,
		logger: logger,
	}
}

// New собирает grpc.Server с интерцепторами и зарегистрированным сервисом.
// Проверка подсети для DeleteLink включается, только если network не nil.
func New(svc *service.Service, tokens *auth.Manager, network *net.IPNet, logger *zap.Logger) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		LoggingInterceptor(logger),
	}
	if network != nil {
		interceptors = append(interceptors, TrustedSubnetInterceptor(network, logger))
	}
	interceptors = append(interceptors, AuthInterceptor(tokens, logger))

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	proto.RegisterLinkRegistryServer(srv, NewServer(svc, logger))
	return srv
}

// CreateLink создаёт короткую ссылку; без явного автора им становится пользователь из токена
func (s *Server) CreateLink(ctx context.Context, req *proto.CreateLinkRequest) (*proto.CreateLinkResponse, error) {
	creator := strings.TrimSpace(req.Creator)
	if creator == "" {
		creator, _ = ctx.Value(userIDKey).(string)
	}

	link, created, err := s.svc.Create(ctx, models.CreateLinkRequest{
		URL:        req.URL,
		CustomCode: req.CustomCode,
		ExpiryDays: int(req.ExpiryDays),
		Notes:      req.Notes,
		Creator:    creator,
	})
	if err != nil {
		return nil, s.mapError(err)
	}

	return &proto.CreateLinkResponse{
		Link:    s.toProto(link),
		Created: created,
	}, nil
}

// ResolveLink возвращает адрес назначения и учитывает обращение
func (s *Server) ResolveLink(ctx context.Context, req *proto.ResolveLinkRequest) (*proto.ResolveLinkResponse, error) {
	if req.Code == "" {
		return nil, status.Error(codes.InvalidArgument, "code is required")
	}

	destination, err := s.svc.Resolve(ctx, req.Code)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &proto.ResolveLinkResponse{Destination: destination}, nil
}

// GetLink возвращает сведения о ссылке без учёта обращения
func (s *Server) GetLink(ctx context.Context, req *proto.GetLinkRequest) (*proto.GetLinkResponse, error) {
	if req.Code == "" {
		return nil, status.Error(codes.InvalidArgument, "code is required")
	}

	link, err := s.svc.Lookup(ctx, req.Code)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &proto.GetLinkResponse{Link: s.toProto(link)}, nil
}

// ListTopLinks возвращает самые посещаемые ссылки
func (s *Server) ListTopLinks(ctx context.Context, req *proto.ListTopLinksRequest) (*proto.ListTopLinksResponse, error) {
	if req.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}

	links, err := s.svc.ListTop(ctx, int(req.Limit))
	if err != nil {
		return nil, s.mapError(err)
	}

	resp := &proto.ListTopLinksResponse{Links: make([]*proto.Link, 0, len(links))}
	for _, link := range links {
		resp.Links = append(resp.Links, s.toProto(link))
	}
	return resp, nil
}

// GetStats возвращает статистику реестра
func (s *Server) GetStats(ctx context.Context, _ *proto.GetStatsRequest) (*proto.GetStatsResponse, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return &proto.GetStatsResponse{
		TotalLinks:  stats.TotalLinks,
		TotalClicks: stats.TotalClicks,
		MaxClicks:   stats.MaxClicks,
		AvgClicks:   stats.AvgClicks,
	}, nil
}

// DeleteLink удаляет ссылку; доступ проверяется интерцепторами
func (s *Server) DeleteLink(ctx context.Context, req *proto.DeleteLinkRequest) (*proto.DeleteLinkResponse, error) {
	if req.Code == "" {
		return nil, status.Error(codes.InvalidArgument, "code is required")
	}

	if err := s.svc.Delete(ctx, req.Code); err != nil {
		return nil, s.mapError(err)
	}
	s.logger.Info("Link deleted via gRPC", zap.String("code", req.Code))
	return &proto.DeleteLinkResponse{}, nil
}

// Ping проверяет доступность хранилища
func (s *Server) Ping(ctx context.Context, _ *proto.PingRequest) (*proto.PingResponse, error) {
	if err := s.svc.Ping(ctx); err != nil {
		s.logger.Warn("Store ping failed", zap.Error(err))
		return &proto.PingResponse{StoreAvailable: false}, nil
	}
	return &proto.PingResponse{StoreAvailable: true}, nil
}

func (s *Server) toProto(link models.ShortLink) *proto.Link {
	view := s.svc.Describe(link)
	return &proto.Link{
		Code:           view.Code,
		ShortURL:       view.ShortURL,
		Destination:    view.Destination,
		Status:         view.Status,
		AccessCount:    view.AccessCount,
		CreatedAt:      view.CreatedAt,
		ExpiresAt:      view.ExpiresAt,
		LastAccessedAt: view.LastAccessedAt,
		IsCustom:       view.IsCustom,
		Creator:        view.Creator,
		Notes:          view.Notes,
	}
}

// mapError преобразует ошибки сервиса в gRPC статусы
func (s *Server) mapError(err error) error {
	switch {
	case errors.Is(err, service.ErrEmptyURL),
		errors.Is(err, service.ErrInvalidURL),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrInvalidExpiry):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrCodeConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "link not found")
	case errors.Is(err, service.ErrExpired):
		return status.Error(codes.FailedPrecondition, "link expired")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, repository.ErrStoreUnavailable):
		s.logger.Error("Store unavailable", zap.Error(err))
		return status.Error(codes.Unavailable, "store unavailable")
	default:
		s.logger.Error("Internal error", zap.Error(err))
		return status.Error(codes.Internal, "internal server error")
	}
}
