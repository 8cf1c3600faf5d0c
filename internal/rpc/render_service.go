// Package rpc defines the propcord.v1.RenderService gRPC contract. Messages are
// protobuf well-known types, so the service is described by hand rather than
// generated from a .proto file.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "propcord.v1.RenderService"

// Full method names, as seen by interceptors.
const (
	MethodRenderProperty = "/" + ServiceName + "/RenderProperty"
	MethodRenderPage     = "/" + ServiceName + "/RenderPage"
	MethodHealth         = "/" + ServiceName + "/Health"
)

// ActorMetadataKey names the caller in RenderPage audit records.
const ActorMetadataKey = "x-propcord-actor"

// RenderServiceServer is the server API for RenderService.
type RenderServiceServer interface {
	// RenderProperty renders one property object to chat text.
	RenderProperty(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	// RenderPage fetches a page by id and returns property name -> text.
	RenderPage(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Health(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// RegisterRenderServiceServer registers srv on s.
func RegisterRenderServiceServer(s grpc.ServiceRegistrar, srv RenderServiceServer) {
	s.RegisterService(&RenderServiceDesc, srv)
}

// RenderServiceDesc is the grpc.ServiceDesc for RenderService.
var RenderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RenderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RenderProperty", Handler: renderPropertyHandler},
		{MethodName: "RenderPage", Handler: renderPageHandler},
		{MethodName: "Health", Handler: healthHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "propcord/v1/render.proto",
}

func renderPropertyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RenderServiceServer).RenderProperty(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodRenderProperty}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RenderServiceServer).RenderProperty(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func renderPageHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RenderServiceServer).RenderPage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodRenderPage}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RenderServiceServer).RenderPage(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func healthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RenderServiceServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodHealth}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RenderServiceServer).Health(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// RenderServiceClient is the client API for RenderService.
type RenderServiceClient interface {
	RenderProperty(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	RenderPage(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	Health(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
}

type renderServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRenderServiceClient returns a RenderServiceClient over cc.
func NewRenderServiceClient(cc grpc.ClientConnInterface) RenderServiceClient {
	return &renderServiceClient{cc: cc}
}

func (c *renderServiceClient) RenderProperty(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, MethodRenderProperty, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *renderServiceClient) RenderPage(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodRenderPage, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *renderServiceClient) Health(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, MethodHealth, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
