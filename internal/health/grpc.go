package health

import (
	"context"
	"fmt"
	"net"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Purav30803/nds-client/internal/models"
)

// BackendService is the gRPC health service name that tracks detection backend reachability.
// The empty service name always reports SERVING while the process is up.
const BackendService = "nds.dashboard.backend"

type GRPCServer struct {
	health   *grpchealth.Server
	server   *grpc.Server
	listener net.Listener
}

func NewGRPCServer() *GRPCServer {
	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(BackendService, healthpb.HealthCheckResponse_UNKNOWN)

	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	return &GRPCServer{
		health: hs,
		server: server,
	}
}

// CycleCompleted maps degraded mode to NOT_SERVING for BackendService.
func (g *GRPCServer) CycleCompleted(result models.CycleResult) {
	status := healthpb.HealthCheckResponse_SERVING
	if result.Degraded {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	g.health.SetServingStatus(BackendService, status)
}

func (g *GRPCServer) Check(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := g.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.Status, nil
}

func (g *GRPCServer) Listen(port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", port, err)
	}
	g.listener = listener
	return nil
}

// Serve blocks until Stop is called. Listen must succeed first.
func (g *GRPCServer) Serve() error {
	if g.listener == nil {
		return fmt.Errorf("gRPC health server not listening")
	}

	log.Printf("gRPC health service listening on %s", g.listener.Addr())
	return g.server.Serve(g.listener)
}

func (g *GRPCServer) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
}
