package grpcserver

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"riceMarketplace/internal/account"
	"riceMarketplace/internal/auth"
	"riceMarketplace/internal/catalog"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// NewServer builds a gRPC server with the catalog service registered behind
// the session interceptor. Public catalog reads bypass authentication.
func NewServer(sessions *auth.Sessions, accounts *account.Service, products *catalog.Service) *grpc.Server {
	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.NewUnaryAuthInterceptor(sessions,
		healthCheckMethod,
		methodListProducts,
		methodGetProduct,
	)))
	RegisterCatalogServiceServer(srv, &CatalogServer{Accounts: accounts, Catalog: products})
	return srv
}

// StartGRPC listens on addr and serves in the background. It returns a shutdown
// function that drains in-flight calls until ctx expires.
func StartGRPC(addr string, sessions *auth.Sessions, accounts *account.Service, products *catalog.Service) (func(context.Context) error, error) {
	if addr == "" {
		addr = ":50051"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := NewServer(sessions, accounts, products)
	go func() { _ = srv.Serve(lis) }()

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}
