package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/alfredjeanlab/propcord/internal/model"
	"github.com/alfredjeanlab/propcord/internal/rpc"
)

// GRPCClient implements RenderClient over the gRPC transport.
type GRPCClient struct {
	conn   *grpc.ClientConn
	client rpc.RenderServiceClient
	token  string

	// Actor, when set, is recorded on page renders.
	Actor string
}

var _ RenderClient = (*GRPCClient)(nil)

// NewGRPCClient connects to addr. Extra dial options are appended after the
// default insecure transport credentials.
func NewGRPCClient(addr, token string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return &GRPCClient{
		conn:   conn,
		client: rpc.NewRenderServiceClient(conn),
		token:  token,
	}, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// outgoing attaches credentials and the actor to ctx.
func (c *GRPCClient) outgoing(ctx context.Context) context.Context {
	var kv []string
	if c.token != "" {
		kv = append(kv, "authorization", "Bearer "+c.token)
	}
	if c.Actor != "" {
		kv = append(kv, rpc.ActorMetadataKey, c.Actor)
	}
	if len(kv) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

func (c *GRPCClient) RenderProperty(ctx context.Context, property json.RawMessage) (string, error) {
	in := &structpb.Struct{}
	if err := protojson.Unmarshal(property, in); err != nil {
		return "", fmt.Errorf("property must be a JSON object: %w", err)
	}
	resp, err := c.client.RenderProperty(c.outgoing(ctx), in)
	if err != nil {
		return "", err
	}
	return resp.GetValue(), nil
}

// RenderPage renders a page. The gRPC response carries only name and text, so
// fields come back ordered by name with no type.
func (c *GRPCClient) RenderPage(ctx context.Context, pageID string) (*RenderedPage, error) {
	resp, err := c.client.RenderPage(c.outgoing(ctx), wrapperspb.String(pageID))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(resp.GetFields()))
	for name := range resp.GetFields() {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]model.Field, len(names))
	for i, name := range names {
		fields[i] = model.Field{Name: name, Text: resp.GetFields()[name].GetStringValue()}
	}
	return &RenderedPage{PageID: pageID, Actor: c.Actor, Fields: fields, Text: fieldsText(fields)}, nil
}

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	resp, err := c.client.Health(c.outgoing(ctx), &emptypb.Empty{})
	if err != nil {
		return "", err
	}
	return resp.GetValue(), nil
}
