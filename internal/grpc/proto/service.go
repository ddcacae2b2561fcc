package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName полное имя gRPC сервиса
const ServiceName = "shortlinks.v1.LinkRegistry"

// Полные имена методов
const (
	CreateLinkMethod   = "/" + ServiceName + "/CreateLink"
	ResolveLinkMethod  = "/" + ServiceName + "/ResolveLink"
	GetLinkMethod      = "/" + ServiceName + "/GetLink"
	ListTopLinksMethod = "/" + ServiceName + "/ListTopLinks"
	GetStatsMethod     = "/" + ServiceName + "/GetStats"
	DeleteLinkMethod   = "/" + ServiceName + "/DeleteLink"
	PingMethod         = "/" + ServiceName + "/Ping"
)

// LinkRegistryServer представляет интерфейс gRPC сервиса
type LinkRegistryServer interface {
	CreateLink(context.Context, *CreateLinkRequest) (*CreateLinkResponse, error)
	ResolveLink(context.Context, *ResolveLinkRequest) (*ResolveLinkResponse, error)
	GetLink(context.Context, *GetLinkRequest) (*GetLinkResponse, error)
	ListTopLinks(context.Context, *ListTopLinksRequest) (*ListTopLinksResponse, error)
	GetStats(context.Context, *GetStatsRequest) (*GetStatsResponse, error)
	DeleteLink(context.Context, *DeleteLinkRequest) (*DeleteLinkResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
}

// UnimplementedLinkRegistryServer возвращает codes.Unimplemented для всех методов
type UnimplementedLinkRegistryServer struct{}

func (UnimplementedLinkRegistryServer) CreateLink(context.Context, *CreateLinkRequest) (*CreateLinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateLink not implemented")
}

func (UnimplementedLinkRegistryServer) ResolveLink(context.Context, *ResolveLinkRequest) (*ResolveLinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ResolveLink not implemented")
}

func (UnimplementedLinkRegistryServer) GetLink(context.Context, *GetLinkRequest) (*GetLinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetLink not implemented")
}

func (UnimplementedLinkRegistryServer) ListTopLinks(context.Context, *ListTopLinksRequest) (*ListTopLinksResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListTopLinks not implemented")
}

func (UnimplementedLinkRegistryServer) GetStats(context.Context, *GetStatsRequest) (*GetStatsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetStats not implemented")
}

func (UnimplementedLinkRegistryServer) DeleteLink(context.Context, *DeleteLinkRequest) (*DeleteLinkResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteLink not implemented")
}

func (UnimplementedLinkRegistryServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}

// RegisterLinkRegistryServer регистрирует реализацию сервиса в gRPC сервере
func RegisterLinkRegistryServer(s grpc.ServiceRegistrar, srv LinkRegistryServer) {
	s.RegisterService(&LinkRegistryServiceDesc, srv)
}

// unaryHandler собирает обработчик метода: декодирует запрос и вызывает call через интерцептор
func unaryHandler[Req any, Resp any](method string, call func(LinkRegistryServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LinkRegistryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LinkRegistryServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// LinkRegistryServiceDesc описание сервиса для grpc.Server
var LinkRegistryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LinkRegistryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateLink", Handler: unaryHandler(CreateLinkMethod, LinkRegistryServer.CreateLink)},
		{MethodName: "ResolveLink", Handler: unaryHandler(ResolveLinkMethod, LinkRegistryServer.ResolveLink)},
		{MethodName: "GetLink", Handler: unaryHandler(GetLinkMethod, LinkRegistryServer.GetLink)},
		{MethodName: "ListTopLinks", Handler: unaryHandler(ListTopLinksMethod, LinkRegistryServer.ListTopLinks)},
		{MethodName: "GetStats", Handler: unaryHandler(GetStatsMethod, LinkRegistryServer.GetStats)},
		{MethodName: "DeleteLink", Handler: unaryHandler(DeleteLinkMethod, LinkRegistryServer.DeleteLink)},
		{MethodName: "Ping", Handler: unaryHandler(PingMethod, LinkRegistryServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shortlinks/v1/link_registry.proto",
}

// LinkRegistryClient клиент gRPC сервиса, использующий JSON-кодек
type LinkRegistryClient struct {
	cc grpc.ClientConnInterface
}

// NewLinkRegistryClient создаёт клиента поверх соединения
func NewLinkRegistryClient(cc grpc.ClientConnInterface) *LinkRegistryClient {
	return &LinkRegistryClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LinkRegistryClient) CreateLink(ctx context.Context, in *CreateLinkRequest, opts ...grpc.CallOption) (*CreateLinkResponse, error) {
	return invoke[CreateLinkResponse](ctx, c.cc, CreateLinkMethod, in, opts)
}

func (c *LinkRegistryClient) ResolveLink(ctx context.Context, in *ResolveLinkRequest, opts ...grpc.CallOption) (*ResolveLinkResponse, error) {
	return invoke[ResolveLinkResponse](ctx, c.cc, ResolveLinkMethod, in, opts)
}

func (c *LinkRegistryClient) GetLink(ctx context.Context, in *GetLinkRequest, opts ...grpc.CallOption) (*GetLinkResponse, error) {
	return invoke[GetLinkResponse](ctx, c.cc, GetLinkMethod, in, opts)
}

func (c *LinkRegistryClient) ListTopLinks(ctx context.Context, in *ListTopLinksRequest, opts ...grpc.CallOption) (*ListTopLinksResponse, error) {
	return invoke[ListTopLinksResponse](ctx, c.cc, ListTopLinksMethod, in, opts)
}

func (c *LinkRegistryClient) GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*GetStatsResponse, error) {
	return invoke[GetStatsResponse](ctx, c.cc, GetStatsMethod, in, opts)
}

func (c *LinkRegistryClient) DeleteLink(ctx context.Context, in *DeleteLinkRequest, opts ...grpc.CallOption) (*DeleteLinkResponse, error) {
	return invoke[DeleteLinkResponse](ctx, c.cc, DeleteLinkMethod, in, opts)
}

func (c *LinkRegistryClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, PingMethod, in, opts)
}
