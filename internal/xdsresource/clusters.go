package xdsresource

import (
	"fmt"
	"time"

	clusterv3 "github.com/envoyproxy/go-control-plane/envoy/config/cluster/v3"
	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	endpointv3 "github.com/envoyproxy/go-control-plane/envoy/config/endpoint/v3"
	tlsv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/transport_sockets/tls/v3"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/flowplane/flowplane/internal/model"
)

var lbPolicies = map[model.LBPolicy]clusterv3.Cluster_LbPolicy{
	model.LBRoundRobin:      clusterv3.Cluster_ROUND_ROBIN,
	model.LBLeastRequest:    clusterv3.Cluster_LEAST_REQUEST,
	model.LBRandom:          clusterv3.Cluster_RANDOM,
	model.LBRingHash:        clusterv3.Cluster_RING_HASH,
	model.LBMaglev:          clusterv3.Cluster_MAGLEV,
	model.LBClusterProvided: clusterv3.Cluster_CLUSTER_PROVIDED,
}

var dnsFamilies = map[model.DNSFamily]clusterv3.Cluster_DnsLookupFamily{
	model.DNSAuto: clusterv3.Cluster_AUTO,
	model.DNSV4:   clusterv3.Cluster_V4_ONLY,
	model.DNSV6:   clusterv3.Cluster_V6_ONLY,
	model.DNSAll:  clusterv3.Cluster_ALL,
}

// BuildCluster translates a Cluster resource into its xDS wire form. Clusters
// not marked UseEDS resolve their endpoints inline via STRICT_DNS; UseEDS
// clusters instead reference the aggregated EDS stream so endpoint churn
// doesn't require a CDS push.
func BuildCluster(c model.Cluster) (*clusterv3.Cluster, error) {
	if len(c.Endpoints) == 0 {
		return nil, fmt.Errorf("cluster %q has no endpoints", c.Name)
	}

	out := &clusterv3.Cluster{
		Name:           c.Name,
		ConnectTimeout: durationpb.New(time.Duration(c.ConnectTimeoutMs) * time.Millisecond),
		LbPolicy:       lbPolicies[c.LBPolicy],
	}
	if out.LbPolicy == clusterv3.Cluster_ROUND_ROBIN && c.LBPolicy != model.LBRoundRobin && c.LBPolicy != "" {
		return nil, fmt.Errorf("cluster %q: unknown lb policy %q", c.Name, c.LBPolicy)
	}
	out.DnsLookupFamily = dnsFamilies[c.DNSFamily]

	if c.UseEDS {
		out.ClusterDiscoveryType = &clusterv3.Cluster_Type{Type: clusterv3.Cluster_EDS}
		out.EdsClusterConfig = &clusterv3.Cluster_EdsClusterConfig{
			EdsConfig:   adsConfigSource(),
			ServiceName: c.Name,
		}
	} else {
		out.ClusterDiscoveryType = &clusterv3.Cluster_Type{Type: clusterv3.Cluster_STRICT_DNS}
		out.LoadAssignment = buildLoadAssignment(c.Name, c.Endpoints)
	}

	for _, hc := range c.HealthChecks {
		out.HealthChecks = append(out.HealthChecks, buildHealthCheck(hc))
	}

	if c.CircuitBreakers != nil {
		out.CircuitBreakers = buildCircuitBreakers(*c.CircuitBreakers)
	}

	if c.OutlierDetection != nil {
		out.OutlierDetection = buildOutlierDetection(*c.OutlierDetection)
	}

	if c.TLS != nil {
		ts, err := buildUpstreamTransportSocket(*c.TLS)
		if err != nil {
			return nil, fmt.Errorf("cluster %q: %w", c.Name, err)
		}
		out.TransportSocket = ts
	}

	return out, nil
}

// BuildClusterLoadAssignment translates a cluster's endpoint list into the
// EDS resource Envoy fetches separately when the cluster is marked UseEDS.
// Exported so internal/xds can materialize the EDS resource set from the
// same Cluster records the CDS builder reads endpoints from — the model
// has no separate endpoint store; endpoints live inline on their owning
// cluster.
func BuildClusterLoadAssignment(c model.Cluster) *endpointv3.ClusterLoadAssignment {
	return buildLoadAssignment(c.Name, c.Endpoints)
}

func buildLoadAssignment(clusterName string, endpoints []model.Endpoint) *endpointv3.ClusterLoadAssignment {
	var lbEndpoints []*endpointv3.LbEndpoint
	for _, ep := range endpoints {
		lbEndpoints = append(lbEndpoints, &endpointv3.LbEndpoint{
			HostIdentifier: &endpointv3.LbEndpoint_Endpoint{
				Endpoint: &endpointv3.Endpoint{
					Address: socketAddress(ep.Host, ep.Port),
				},
			},
		})
	}
	return &endpointv3.ClusterLoadAssignment{
		ClusterName: clusterName,
		Endpoints: []*endpointv3.LocalityLbEndpoints{{
			LbEndpoints: lbEndpoints,
		}},
	}
}

func buildHealthCheck(hc model.HealthCheck) *core.HealthCheck {
	return &core.HealthCheck{
		Timeout:            durationpb.New(time.Duration(hc.TimeoutSeconds) * time.Second),
		Interval:           durationpb.New(time.Duration(hc.IntervalSeconds) * time.Second),
		HealthyThreshold:   wrapperspb.UInt32(hc.HealthyThreshold),
		UnhealthyThreshold: wrapperspb.UInt32(hc.UnhealthyThreshold),
		HealthChecker: &core.HealthCheck_HttpHealthCheck_{
			HttpHealthCheck: &core.HealthCheck_HttpHealthCheck{
				Path: hc.Path,
			},
		},
	}
}

func buildCircuitBreakers(cb model.CircuitBreakers) *clusterv3.CircuitBreakers {
	out := &clusterv3.CircuitBreakers{}
	if cb.Default != nil {
		out.Thresholds = append(out.Thresholds, circuitBreakerThreshold(core.RoutingPriority_DEFAULT, *cb.Default))
	}
	if cb.HighPriority != nil {
		out.Thresholds = append(out.Thresholds, circuitBreakerThreshold(core.RoutingPriority_HIGH, *cb.HighPriority))
	}
	return out
}

func circuitBreakerThreshold(priority core.RoutingPriority, t model.CircuitBreakerThresholds) *clusterv3.CircuitBreakers_Thresholds {
	return &clusterv3.CircuitBreakers_Thresholds{
		Priority:           priority,
		MaxConnections:     wrapperspb.UInt32(t.MaxConnections),
		MaxPendingRequests: wrapperspb.UInt32(t.MaxPendingRequests),
		MaxRequests:        wrapperspb.UInt32(t.MaxRequests),
		MaxRetries:         wrapperspb.UInt32(t.MaxRetries),
	}
}

func buildOutlierDetection(od model.OutlierDetection) *clusterv3.OutlierDetection {
	return &clusterv3.OutlierDetection{
		Consecutive_5Xx:    wrapperspb.UInt32(od.ConsecutiveErrors),
		Interval:           durationpb.New(time.Duration(od.IntervalSeconds) * time.Second),
		BaseEjectionTime:   durationpb.New(time.Duration(od.BaseEjectionTime) * time.Second),
		MaxEjectionPercent: wrapperspb.UInt32(od.MaxEjectionPct),
	}
}

func buildUpstreamTransportSocket(t model.TLSSettings) (*core.TransportSocket, error) {
	ctx := &tlsv3.UpstreamTlsContext{
		CommonTlsContext: &tlsv3.CommonTlsContext{},
		Sni:              t.SNI,
	}
	if t.CASecretName != "" {
		ctx.CommonTlsContext.ValidationContextType = &tlsv3.CommonTlsContext_ValidationContextSdsSecretConfig{
			ValidationContextSdsSecretConfig: &tlsv3.SdsSecretConfig{
				Name:      t.CASecretName,
				SdsConfig: adsConfigSource(),
			},
		}
	}
	configAny, err := anypb.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("marshaling upstream TLS context: %w", err)
	}
	return &core.TransportSocket{
		Name: "envoy.transport_sockets.tls",
		ConfigType: &core.TransportSocket_TypedConfig{
			TypedConfig: configAny,
		},
	}, nil
}

func socketAddress(host string, port uint32) *core.Address {
	return &core.Address{
		Address: &core.Address_SocketAddress{
			SocketAddress: &core.SocketAddress{
				Protocol: core.SocketAddress_TCP,
				Address:  host,
				PortSpecifier: &core.SocketAddress_PortValue{
					PortValue: port,
				},
			},
		},
	}
}
