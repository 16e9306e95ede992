// Package grpc serves the standard grpc.health.v1 service so load balancers
// and orchestrators can probe the accounts server over gRPC.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/health"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "gophaccounts.Accounts"

const defaultPollInterval = 10 * time.Second

type GRPCServer struct {
	address      string
	logger       logging.Logger
	checker      *health.Checker
	health       *grpchealth.Server
	pollInterval time.Duration
}

func NewGRPCServer(a string, l logging.Logger, checker *health.Checker) *GRPCServer {
	return &GRPCServer{
		address:      a,
		logger:       l.With("module", "grpc_server"),
		checker:      checker,
		health:       grpchealth.NewServer(),
		pollInterval: defaultPollInterval,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.refresh(ctx)
	go s.poll(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}

func (s *GRPCServer) poll(ctx context.Context) {
	t := time.NewTicker(s.pollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.refresh(ctx)
		}
	}
}

// refresh mirrors the health checks into the gRPC serving status.
func (s *GRPCServer) refresh(ctx context.Context) {
	st := healthpb.HealthCheckResponse_SERVING
	if s.checker != nil {
		if r := s.checker.Check(ctx); !r.Healthy() {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			s.logger.Warn(ctx, "health check failed", "checks", r.Checks)
		}
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
