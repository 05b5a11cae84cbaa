// Package client talks to the shackstack gRPC service and turns its status
// codes back into the sentinel errors in internal/common.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shackstack/shackstack/internal/common"
	pb "github.com/shackstack/shackstack/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var ErrUnavailable = errors.New("server unavailable")

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.ResourceServiceClient
	accessToken string
}

func NewGRPCClient(endpointURL, accessToken string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}

	conn, err := grpc.NewClient(endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.metadataInterceptor))
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewResourceServiceClient(conn)
	return c, nil
}

func (c *GRPCClient) SetAccessToken(token string) {
	c.accessToken = token
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// metadataInterceptor attaches the access token, when set, and a request id.
func (c *GRPCClient) metadataInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if c.accessToken != "" {
		md.Set(common.AccessTokenHeaderName, c.accessToken)
	}
	if len(md.Get(common.RequestIDHeaderName)) == 0 {
		md.Set(common.RequestIDHeaderName, uuid.NewString())
	}
	return invoker(metadata.NewOutgoingContext(ctx, md), method, req, reply, cc, opts...)
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(ctx, &structpb.Struct{})
	if err != nil {
		return mapError(err)
	}
	if s := resp.GetFields()["status"].GetStringValue(); s != "OK" {
		return fmt.Errorf("unexpected ping status %q", s)
	}
	return nil
}

func (c *GRPCClient) Create(ctx context.Context, data any, owner string, encrypt bool) (map[string]any, error) {
	return c.call(ctx, c.client.Create, map[string]any{
		"data":          data,
		"owner_address": owner,
		"encrypt":       encrypt,
	})
}

func (c *GRPCClient) Read(ctx context.Context, cid string, decrypt bool) (any, error) {
	resp, err := c.call(ctx, c.client.Read, map[string]any{"cid": cid, "decrypt": decrypt})
	if err != nil {
		return nil, err
	}
	return resp["payload"], nil
}

func (c *GRPCClient) UpdateStatus(ctx context.Context, cid string, isAvailable bool, owner string) error {
	_, err := c.call(ctx, c.client.UpdateStatus, map[string]any{
		"cid":           cid,
		"is_available":  isAvailable,
		"owner_address": owner,
	})
	return err
}

func (c *GRPCClient) Status(ctx context.Context, cid string) (map[string]any, error) {
	return c.call(ctx, c.client.Status, map[string]any{"cid": cid})
}

func (c *GRPCClient) List(ctx context.Context) ([]any, error) {
	resp, err := c.call(ctx, c.client.List, nil)
	if err != nil {
		return nil, err
	}
	list, _ := resp["resources"].([]any)
	return list, nil
}

func (c *GRPCClient) Register(ctx context.Context, cid, owner string, encrypted bool) (map[string]any, error) {
	return c.call(ctx, c.client.Register, map[string]any{
		"cid":           cid,
		"owner_address": owner,
		"encrypted":     encrypted,
	})
}

func (c *GRPCClient) ListOrphans(ctx context.Context) ([]any, error) {
	resp, err := c.call(ctx, c.client.ListOrphans, nil)
	if err != nil {
		return nil, err
	}
	list, _ := resp["orphans"].([]any)
	return list, nil
}

type rpc func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

func (c *GRPCClient) call(ctx context.Context, fn rpc, req map[string]any) (map[string]any, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	resp, err := fn(ctx, in)
	if err != nil {
		return nil, mapError(err)
	}
	return resp.AsMap(), nil
}

// mapError turns a gRPC status into the matching sentinel. The server's
// message is kept, since it names the CID of a partial write.
func mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var sentinel error
	switch st.Code() {
	case codes.NotFound:
		sentinel = common.ErrNotFound
	case codes.PermissionDenied:
		sentinel = common.ErrUnauthorized
	case codes.Unauthenticated:
		sentinel = common.ErrInvalidToken
		if st.Message() == common.ErrTokenExpired.Error() {
			sentinel = common.ErrTokenExpired
		}
	case codes.InvalidArgument:
		sentinel = common.ErrValidation
	case codes.AlreadyExists:
		sentinel = common.ErrConflict
	case codes.DeadlineExceeded:
		sentinel = common.ErrTransactionTimeout
	case codes.Unavailable:
		sentinel = ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %s", st.Message())
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
