package grpc

import (
	"context"

	"github.com/google/uuid"
	"github.com/shackstack/shackstack/internal/common"
	pb "github.com/shackstack/shackstack/internal/proto"
	"github.com/shackstack/shackstack/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Calls that act on behalf of an owner.
var ownerMethods = map[string]struct{}{
	pb.ResourceService_Create_FullMethodName:       {},
	pb.ResourceService_UpdateStatus_FullMethodName: {},
	pb.ResourceService_Register_FullMethodName:     {},
}

func firstValue(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(key); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// requestIDInterceptor tags each call with the caller's x-request-id, or a
// fresh one, and echoes it back in the response header.
func (s *GRPCServer) requestIDInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id := firstValue(ctx, common.RequestIDHeaderName)
	if id == "" {
		id = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(common.RequestIDHeaderName, id))

	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Debug(ctx, "call failed", "method", info.FullMethod, "request_id", id, "code", status.Code(err).String())
	}
	return resp, err
}

// accessTokenInterceptor requires a token for owner calls when a secret is
// configured. The token's address must be the request's owner_address.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if len(s.jwtSecret) == 0 {
		return handler(ctx, req)
	}
	if _, ok := ownerMethods[info.FullMethod]; !ok {
		return handler(ctx, req)
	}

	accessToken := firstValue(ctx, common.AccessTokenHeaderName)
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	address, err := auth.GetAddressFromToken(accessToken, s.jwtSecret)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	body, _ := req.(*structpb.Struct)
	owner, err := ownerField(body, "owner_address")
	if err != nil {
		return nil, toStatus(err)
	}
	if owner != address {
		return nil, status.Error(codes.PermissionDenied, "token does not match owner_address")
	}

	return handler(ctx, req)
}
