// Package proto describes the shackstack.v1.ResourceService gRPC service.
// Every request and response is a google.protobuf.Struct, so the service
// carries the same JSON-shaped bodies as the original HTTP API and needs
// no generated message types.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ResourceServiceName = "shackstack.v1.ResourceService"

const (
	ResourceService_Create_FullMethodName       = "/shackstack.v1.ResourceService/Create"
	ResourceService_Read_FullMethodName         = "/shackstack.v1.ResourceService/Read"
	ResourceService_UpdateStatus_FullMethodName = "/shackstack.v1.ResourceService/UpdateStatus"
	ResourceService_Status_FullMethodName       = "/shackstack.v1.ResourceService/Status"
	ResourceService_List_FullMethodName         = "/shackstack.v1.ResourceService/List"
	ResourceService_Register_FullMethodName     = "/shackstack.v1.ResourceService/Register"
	ResourceService_ListOrphans_FullMethodName  = "/shackstack.v1.ResourceService/ListOrphans"
	ResourceService_Ping_FullMethodName         = "/shackstack.v1.ResourceService/Ping"
)

// ResourceServiceServer is the server API for ResourceService.
type ResourceServiceServer interface {
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Read(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *structpb.Struct) (*structpb.Struct, error)
	List(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOrphans(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type serverCall func(ResourceServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call serverCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ResourceServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ResourceServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ResourceService_ServiceDesc is the grpc.ServiceDesc for ResourceService.
var ResourceService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ResourceServiceName,
	HandlerType: (*ResourceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Create", Handler: unaryHandler(ResourceService_Create_FullMethodName, ResourceServiceServer.Create)},
		{MethodName: "Read", Handler: unaryHandler(ResourceService_Read_FullMethodName, ResourceServiceServer.Read)},
		{MethodName: "UpdateStatus", Handler: unaryHandler(ResourceService_UpdateStatus_FullMethodName, ResourceServiceServer.UpdateStatus)},
		{MethodName: "Status", Handler: unaryHandler(ResourceService_Status_FullMethodName, ResourceServiceServer.Status)},
		{MethodName: "List", Handler: unaryHandler(ResourceService_List_FullMethodName, ResourceServiceServer.List)},
		{MethodName: "Register", Handler: unaryHandler(ResourceService_Register_FullMethodName, ResourceServiceServer.Register)},
		{MethodName: "ListOrphans", Handler: unaryHandler(ResourceService_ListOrphans_FullMethodName, ResourceServiceServer.ListOrphans)},
		{MethodName: "Ping", Handler: unaryHandler(ResourceService_Ping_FullMethodName, ResourceServiceServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shackstack/v1/resource.proto",
}

func RegisterResourceServiceServer(s grpc.ServiceRegistrar, srv ResourceServiceServer) {
	s.RegisterService(&ResourceService_ServiceDesc, srv)
}

// ResourceServiceClient is the client API for ResourceService.
type ResourceServiceClient interface {
	Create(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Read(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	UpdateStatus(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Status(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	List(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListOrphans(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type resourceServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewResourceServiceClient(cc grpc.ClientConnInterface) ResourceServiceClient {
	return &resourceServiceClient{cc}
}

func (c *resourceServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *resourceServiceClient) Create(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResourceService_Create_FullMethodName, in, opts)
}

func (c *resourceServiceClient) Read(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResourceService_Read_FullMethodName, in, opts)
}

func (c *resourceServiceClient) UpdateStatus(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResourceService_UpdateStatus_FullMethodName, in, opts)
}

func (c *resourceServiceClient) Status(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResourceService_Status_FullMethodName, in, opts)
}

func (c *resourceServiceClient) List(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResourceService_List_FullMethodName, in, opts)
}

func (c *resourceServiceClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResourceService_Register_FullMethodName, in, opts)
}

func (c *resourceServiceClient) ListOrphans(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResourceService_ListOrphans_FullMethodName, in, opts)
}

func (c *resourceServiceClient) Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ResourceService_Ping_FullMethodName, in, opts)
}
