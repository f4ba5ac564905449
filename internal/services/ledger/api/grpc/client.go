package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the ledger service.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Call invokes method with fields as the request struct.
func (c *Client) Call(ctx context.Context, method string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// WithCaller attaches caller headers to outgoing calls.
func WithCaller(ctx context.Context, userID, clubID string) context.Context {
	pairs := []string{HeaderUserID, userID}
	if clubID != "" {
		pairs = append(pairs, HeaderClubID, clubID)
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}

// WithBearer attaches an identity token to outgoing calls.
func WithBearer(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, HeaderAuthorization, "Bearer "+token)
}

// WithLocale asks for user messages in locale.
func WithLocale(ctx context.Context, locale string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, HeaderLocale, locale)
}
