package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alfredjeanlab/propcord/internal/rpc"
)

// NewGRPCServer creates a gRPC server with the standard interceptor chain and
// registers the RenderService.
func NewGRPCServer(rs *RenderServer, authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(rs.logger),
			LoggingInterceptor(rs.logger),
			AuthInterceptor(authToken),
		),
	)
	rpc.RegisterRenderServiceServer(srv, &grpcService{rs: rs})
	return srv
}

// grpcService adapts RenderServer to rpc.RenderServiceServer.
type grpcService struct {
	rs *RenderServer
}

var _ rpc.RenderServiceServer = (*grpcService)(nil)

func (g *grpcService) RenderProperty(ctx context.Context, in *structpb.Struct) (*wrapperspb.StringValue, error) {
	raw, err := protojson.Marshal(in)
	if err != nil {
		return nil, grpcError(inputError("invalid property: " + err.Error()))
	}
	_, text, err := g.rs.RenderProperty(ctx, raw)
	if err != nil {
		return nil, grpcError(err)
	}
	return wrapperspb.String(text), nil
}

func (g *grpcService) RenderPage(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	rec, err := g.rs.RenderPage(ctx, in.GetValue(), actorFromMetadata(ctx))
	if err != nil {
		return nil, grpcError(err)
	}
	out := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(rec.Fields))}
	for _, f := range rec.Fields {
		out.Fields[f.Name] = structpb.NewStringValue(f.Text)
	}
	return out, nil
}

func (g *grpcService) Health(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error) {
	return wrapperspb.String("ok"), nil
}

func actorFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if vals := md.Get(rpc.ActorMetadataKey); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// grpcError converts a service error to a gRPC status error.
func grpcError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	_, code := classify(err)
	return status.Error(code, err.Error())
}
