package xdsresource

import (
	"testing"

	clusterv3 "github.com/envoyproxy/go-control-plane/envoy/config/cluster/v3"
	"github.com/stretchr/testify/require"

	"github.com/flowplane/flowplane/internal/model"
)

func baseCluster() model.Cluster {
	return model.Cluster{
		Envelope:         model.Envelope{Name: "users-cluster", Team: "checkout"},
		Endpoints:        []model.Endpoint{{Host: "users.svc", Port: 8080}},
		ConnectTimeoutMs: 1000,
		LBPolicy:         model.LBRoundRobin,
	}
}

func TestBuildClusterInlinesEndpointsWhenNotUsingEDS(t *testing.T) {
	c, err := BuildCluster(baseCluster())
	require.NoError(t, err)
	require.Equal(t, clusterv3.Cluster_STRICT_DNS, c.GetType())
	require.NotNil(t, c.LoadAssignment)
	require.Equal(t, "users-cluster", c.LoadAssignment.ClusterName)
	require.Len(t, c.LoadAssignment.Endpoints[0].LbEndpoints, 1)
}

func TestBuildClusterUsesEDSConfigSource(t *testing.T) {
	cc := baseCluster()
	cc.UseEDS = true
	c, err := BuildCluster(cc)
	require.NoError(t, err)
	require.Equal(t, clusterv3.Cluster_EDS, c.GetType())
	require.Nil(t, c.LoadAssignment)
	require.Equal(t, "users-cluster", c.EdsClusterConfig.ServiceName)
	require.NotNil(t, c.EdsClusterConfig.EdsConfig.GetAds())
}

func TestBuildClusterRejectsNoEndpoints(t *testing.T) {
	cc := baseCluster()
	cc.Endpoints = nil
	_, err := BuildCluster(cc)
	require.Error(t, err)
}

func TestBuildClusterCircuitBreakersAndOutlierDetection(t *testing.T) {
	cc := baseCluster()
	cc.CircuitBreakers = &model.CircuitBreakers{
		Default: &model.CircuitBreakerThresholds{MaxConnections: 100, MaxPendingRequests: 50, MaxRequests: 200, MaxRetries: 3},
	}
	cc.OutlierDetection = &model.OutlierDetection{ConsecutiveErrors: 5, IntervalSeconds: 10, BaseEjectionTime: 30, MaxEjectionPct: 50}

	c, err := BuildCluster(cc)
	require.NoError(t, err)
	require.Len(t, c.CircuitBreakers.Thresholds, 1)
	require.Equal(t, uint32(100), c.CircuitBreakers.Thresholds[0].MaxConnections.GetValue())
	require.Equal(t, uint32(5), c.OutlierDetection.Consecutive_5Xx.GetValue())
}

func TestBuildClusterLoadAssignmentMatchesClusterEndpoints(t *testing.T) {
	cc := baseCluster()
	cc.Endpoints = append(cc.Endpoints, model.Endpoint{Host: "users2.svc", Port: 8081})

	la := BuildClusterLoadAssignment(cc)
	require.Equal(t, "users-cluster", la.ClusterName)
	require.Len(t, la.Endpoints[0].LbEndpoints, 2)
}

func TestBuildClusterUpstreamTLSUsesSDSValidationContext(t *testing.T) {
	cc := baseCluster()
	cc.TLS = &model.TLSSettings{SNI: "users.internal", CASecretName: "users-ca"}

	c, err := BuildCluster(cc)
	require.NoError(t, err)
	require.NotNil(t, c.TransportSocket)
	require.Equal(t, "envoy.transport_sockets.tls", c.TransportSocket.Name)
}
