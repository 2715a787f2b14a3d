// Package xds implements the ADS control plane: a
// per-node snapshot cache fed by repository change events, and a gRPC ADS
// server exposing both the state-of-the-world and delta discovery
// protocols off a single go-control-plane server.Server — the
// AggregatedDiscoveryService RPC already carries both
// StreamAggregatedResources (SotW) and DeltaAggregatedResources (delta)
// methods, so no separate registration is needed for the delta variant.
package xds

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	serverv3 "github.com/envoyproxy/go-control-plane/pkg/server/v3"

	clusterservice "github.com/envoyproxy/go-control-plane/envoy/service/cluster/v3"
	discoverygrpc "github.com/envoyproxy/go-control-plane/envoy/service/discovery/v3"
	endpointservice "github.com/envoyproxy/go-control-plane/envoy/service/endpoint/v3"
	listenerservice "github.com/envoyproxy/go-control-plane/envoy/service/listener/v3"
	routeservice "github.com/envoyproxy/go-control-plane/envoy/service/route/v3"
	secretservice "github.com/envoyproxy/go-control-plane/envoy/service/secret/v3"

	"google.golang.org/grpc"

	"github.com/flowplane/flowplane/internal/config"
	"github.com/flowplane/flowplane/internal/repository"
)

// Server is the ADS gRPC control plane server.
type Server struct {
	cache *Cache
	cfg   *config.Config
	log   *slog.Logger
}

// NewServer wires a Cache over repo and starts watching it for repository
// change events. Call Serve to accept connections.
func NewServer(ctx context.Context, repo *repository.Repository, cfg *config.Config, log *slog.Logger) *Server {
	cache := NewCache(repo, cfg, log)
	cache.Watch(ctx)
	return &Server{cache: cache, cfg: cfg, log: log}
}

// Serve blocks accepting ADS connections on addr until ctx is canceled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	callbacks := NewCallbacks(s.cache, s.log)
	xdsServer := serverv3.NewServer(ctx, s.cache.SnapshotCache(), callbacks)

	grpcServer := grpc.NewServer()
	registerXDSServices(grpcServer, xdsServer)

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.log.Info("ADS server listening", "addr", addr)

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down ADS server")
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}

func registerXDSServices(grpcServer *grpc.Server, xdsServer serverv3.Server) {
	discoverygrpc.RegisterAggregatedDiscoveryServiceServer(grpcServer, xdsServer)
	clusterservice.RegisterClusterDiscoveryServiceServer(grpcServer, xdsServer)
	endpointservice.RegisterEndpointDiscoveryServiceServer(grpcServer, xdsServer)
	listenerservice.RegisterListenerDiscoveryServiceServer(grpcServer, xdsServer)
	routeservice.RegisterRouteDiscoveryServiceServer(grpcServer, xdsServer)
	secretservice.RegisterSecretDiscoveryServiceServer(grpcServer, xdsServer)
}
