package grpc

import (
	"context"
	"net"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/shackstack/shackstack/internal/journal"
	"github.com/shackstack/shackstack/internal/logging"
	pb "github.com/shackstack/shackstack/internal/proto"
	"github.com/shackstack/shackstack/internal/resources"
	"google.golang.org/grpc"
)

// Coordinator is the part of resources.Coordinator the transport uses.
type Coordinator interface {
	Create(ctx context.Context, payload any, owner ethcommon.Address, encrypt bool) (string, error)
	Read(ctx context.Context, cid string, decrypt bool) (any, error)
	UpdateStatus(ctx context.Context, cid string, isAvailable bool, owner ethcommon.Address) error
	Status(ctx context.Context, cid string) (resources.Status, error)
	List(ctx context.Context) ([]resources.Status, error)
	Register(ctx context.Context, cid string, owner ethcommon.Address, encrypted bool) error
	Orphans(ctx context.Context) ([]journal.Orphan, error)
}

type GRPCServer struct {
	address     string
	coordinator Coordinator
	logger      logging.Logger
	jwtSecret   []byte
}

// NewGRPCServer builds the server. An empty secretKey turns off access
// token checks.
func NewGRPCServer(a string, l logging.Logger, c Coordinator, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:     a,
		logger:      l.With("module", "grpc_server"),
		coordinator: c,
		jwtSecret:   []byte(secretKey),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestIDInterceptor, s.accessTokenInterceptor))
	pb.RegisterResourceServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on l until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, l net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", l.Addr().String())

	return srv.Serve(l)
}
