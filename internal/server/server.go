package server

import (
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"

	"github.com/mattkinnersley/shub-jobref/internal/hubstorage"
	"github.com/mattkinnersley/shub-jobref/internal/state"
)

type Server struct {
	grpcServer *grpc.Server
	store      *state.Store
}

// New builds a storage server over store. With requireAuth every call must
// carry the basic auth of a job in store.
func New(store *state.Store, requireAuth bool) *Server {
	s := &Server{store: store}

	var opts []grpc.ServerOption
	if requireAuth {
		opts = append(opts, grpc.UnaryInterceptor(authInterceptor(store)))
	}
	gs := grpc.NewServer(opts...)

	hubstorage.RegisterStorageServer(gs, &StorageServer{store: store})

	s.grpcServer = gs
	return s
}

func (s *Server) Start(port string) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}

	slog.Info("starting gRPC server", "port", port)
	return s.grpcServer.Serve(lis)
}

// Serve starts the server on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}
