package grpc

import (
	"context"
	"net"
	"time"

	"github.com/tempizhere/shortlinks/internal/auth"
	"github.com/tempizhere/shortlinks/internal/grpc/proto"
	"github.com/tempizhere/shortlinks/internal/middleware"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// contextKey определяет тип для ключей контекста
type contextKey string

const userIDKey contextKey = "userID"

// AuthInterceptor проверяет токены из метаданных authorization.
// DeleteLink требует токен администратора. CreateLink получает идентификатор
// пользователя из токена или выдаёт новый токен в заголовке ответа.
func AuthInterceptor(tokens *auth.Manager, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		switch info.FullMethod {
		case proto.DeleteLinkMethod:
			token, _ := bearerFromMetadata(ctx)
			if err := tokens.VerifyAdminToken(token); err != nil {
				logger.Warn("Rejected admin gRPC call", zap.String("method", info.FullMethod), zap.Error(err))
				return nil, status.Error(codes.Unauthenticated, "admin token required")
			}
			return handler(ctx, req)

		case proto.CreateLinkMethod:
			var userID string
			if token, ok := bearerFromMetadata(ctx); ok {
				parsed, err := tokens.ParseUserToken(token)
				if err != nil {
					logger.Warn("Invalid JWT token", zap.Error(err))
				}
				userID = parsed
			}

			if userID == "" {
				userID = auth.NewUserID()
				token, err := tokens.IssueUserToken(userID)
				if err != nil {
					logger.Error("Failed to generate JWT", zap.Error(err))
					return nil, status.Error(codes.Internal, "failed to generate JWT")
				}
				if err := grpc.SetHeader(ctx, metadata.Pairs("authorization", "Bearer "+token)); err != nil {
					logger.Error("Failed to set response header", zap.Error(err))
				}
				logger.Info("Generated new JWT for gRPC", zap.String("user_id", userID))
			}

			return handler(context.WithValue(ctx, userIDKey, userID), req)

		default:
			return handler(ctx, req)
		}
	}
}

// TrustedSubnetInterceptor пропускает DeleteLink только из доверенной подсети.
// Адрес клиента берётся из метаданных x-real-ip, иначе из адреса соединения.
func TrustedSubnetInterceptor(network *net.IPNet, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if info.FullMethod != proto.DeleteLinkMethod {
			return handler(ctx, req)
		}

		clientIP := clientIPFromContext(ctx)
		if !middleware.InSubnet(network, clientIP) {
			logger.Warn("Access denied from untrusted IP", zap.String("ip", clientIP))
			return nil, status.Error(codes.PermissionDenied, "access denied")
		}

		return handler(ctx, req)
	}
}

// LoggingInterceptor создаёт интерцептор для логирования gRPC запросов
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()

		resp, err := handler(ctx, req)

		var clientIP string
		if p, ok := peer.FromContext(ctx); ok {
			clientIP = p.Addr.String()
		}

		code := status.Code(err)
		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.String("client_ip", clientIP),
			zap.String("status_code", code.String()),
			zap.Duration("duration", time.Since(start)),
		}

		switch code {
		case codes.OK:
			logger.Info("gRPC request", fields...)
		case codes.Internal, codes.Unavailable, codes.Unknown:
			logger.Error("gRPC request", append(fields, zap.Error(err))...)
		default:
			logger.Warn("gRPC request", append(fields, zap.Error(err))...)
		}

		return resp, err
	}
}

func bearerFromMetadata(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	values := md.Get("authorization")
	if len(values) == 0 {
		return "", false
	}
	return middleware.BearerToken(values[0])
}

func clientIPFromContext(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("x-real-ip"); len(values) > 0 && values[0] != "" {
			return values[0]
		}
	}
	p, ok := peer.FromContext(ctx)
	if !ok {
		return ""
	}
	if tcpAddr, ok := p.Addr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}
	host, _, err := net.SplitHostPort(p.Addr.String())
	if err != nil {
		return p.Addr.String()
	}
	return host
}
