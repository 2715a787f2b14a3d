// Package bootstrap renders the minimal Envoy bootstrap document a data
// plane needs to find flowplane's ADS endpoint. It is modeled
// on projectcontour-contour's internal/envoy/v3/bootstrap.go, trimmed to
// what flowplane actually needs: no Kubernetes SDS-rotation directory
// support, since certificate issuance is a declared non-goal.
package bootstrap

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"time"

	bootstrapv3 "github.com/envoyproxy/go-control-plane/envoy/config/bootstrap/v3"
	clusterv3 "github.com/envoyproxy/go-control-plane/envoy/config/cluster/v3"
	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	endpointv3 "github.com/envoyproxy/go-control-plane/envoy/config/endpoint/v3"
	tlsv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/transport_sockets/tls/v3"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
	"gopkg.in/yaml.v3"

	"github.com/flowplane/flowplane/internal/config"
)

// Format selects the bootstrap document's serialization.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// xdsClusterName is the name flowplane's own gRPC endpoint is given inside
// the generated bootstrap's static cluster list.
const xdsClusterName = "flowplane_ads"

// MTLS carries optional client-certificate material for Envoy to
// authenticate itself to the ADS endpoint. All three fields are either
// empty together or populated together.
type MTLS struct {
	ClientCertPath string
	ClientKeyPath  string
	CABundlePath   string
}

func (m MTLS) empty() bool {
	return m.ClientCertPath == "" && m.ClientKeyPath == "" && m.CABundlePath == ""
}

func (m MTLS) complete() bool {
	return m.ClientCertPath != "" && m.ClientKeyPath != "" && m.CABundlePath != ""
}

// Generate renders a bootstrap document for team in the requested format.
// It is deterministic for a given (team, format, mtls) input:
// the admin port is the same deterministic hash every time, and no
// wall-clock or random values are included.
func Generate(cfg *config.Config, team string, format Format, mtls MTLS) ([]byte, error) {
	if team == "" {
		return nil, fmt.Errorf("team is required")
	}
	if !mtls.empty() && !mtls.complete() {
		return nil, fmt.Errorf("mTLS requires client-cert, client-key, and CA bundle paths together, or none of them")
	}

	doc, err := bootstrapDocument(cfg, team, mtls)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatJSON, "":
		out, err := protojson.MarshalOptions{Indent: "  "}.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshaling bootstrap to JSON: %w", err)
		}
		return out, nil
	case FormatYAML:
		jsonBytes, err := protojson.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshaling bootstrap: %w", err)
		}
		var generic map[string]interface{}
		if err := json.Unmarshal(jsonBytes, &generic); err != nil {
			return nil, fmt.Errorf("re-decoding bootstrap JSON: %w", err)
		}
		out, err := yaml.Marshal(generic)
		if err != nil {
			return nil, fmt.Errorf("marshaling bootstrap to YAML: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown bootstrap format %q", format)
	}
}

func bootstrapDocument(cfg *config.Config, team string, mtls MTLS) (*bootstrapv3.Bootstrap, error) {
	host, port, err := splitHostPort(cfg.XDSAddr)
	if err != nil {
		return nil, fmt.Errorf("parsing xds address %q: %w", cfg.XDSAddr, err)
	}

	xdsCluster := &clusterv3.Cluster{
		Name:                 xdsClusterName,
		ConnectTimeout:       durationpb.New(5 * time.Second),
		ClusterDiscoveryType: discoveryTypeForAddress(host),
		LbPolicy:             clusterv3.Cluster_ROUND_ROBIN,
		LoadAssignment: &endpointv3.ClusterLoadAssignment{
			ClusterName: xdsClusterName,
			Endpoints: []*endpointv3.LocalityLbEndpoints{{
				LbEndpoints: []*endpointv3.LbEndpoint{{
					HostIdentifier: &endpointv3.LbEndpoint_Endpoint{
						Endpoint: &endpointv3.Endpoint{
							Address: socketAddress(host, port),
						},
					},
				}},
			}},
		},
	}

	if !mtls.empty() {
		transportSocket, err := upstreamFileTLSContext(mtls)
		if err != nil {
			return nil, err
		}
		xdsCluster.TransportSocket = transportSocket
	}

	adminPort := cfg.TeamAdminPort(team)

	return &bootstrapv3.Bootstrap{
		Node: &core.Node{
			Cluster: team,
			Id:      fmt.Sprintf("%s-envoy", team),
		},
		DynamicResources: &bootstrapv3.Bootstrap_DynamicResources{
			LdsConfig: adsConfigSource(),
			CdsConfig: adsConfigSource(),
			AdsConfig: &core.ApiConfigSource{
				ApiType:             core.ApiConfigSource_GRPC,
				TransportApiVersion: core.ApiVersion_V3,
				GrpcServices: []*core.GrpcService{{
					TargetSpecifier: &core.GrpcService_EnvoyGrpc_{
						EnvoyGrpc: &core.GrpcService_EnvoyGrpc{ClusterName: xdsClusterName},
					},
				}},
			},
		},
		StaticResources: &bootstrapv3.Bootstrap_StaticResources{
			Clusters: []*clusterv3.Cluster{xdsCluster},
		},
		Admin: &bootstrapv3.Admin{
			Address: socketAddress("127.0.0.1", adminPort),
		},
	}, nil
}

func adsConfigSource() *core.ConfigSource {
	return &core.ConfigSource{
		ResourceApiVersion: core.ApiVersion_V3,
		ConfigSourceSpecifier: &core.ConfigSource_Ads{
			Ads: &core.AggregatedConfigSource{},
		},
	}
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

// discoveryTypeForAddress mirrors contour's ClusterDiscoveryTypeForAddress:
// a literal IP resolves statically, a hostname goes through STRICT_DNS.
func discoveryTypeForAddress(host string) *clusterv3.Cluster_Type {
	t := clusterv3.Cluster_STRICT_DNS
	if net.ParseIP(host) != nil {
		t = clusterv3.Cluster_STATIC
	}
	return &clusterv3.Cluster_Type{Type: t}
}

func splitHostPort(addr string) (string, uint32, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	if host == "" {
		host = "127.0.0.1"
	}
	port, err := strconv.ParseUint(portStr, 10, 32)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return host, uint32(port), nil
}

func upstreamFileTLSContext(m MTLS) (*core.TransportSocket, error) {
	ctx := &tlsv3.UpstreamTlsContext{
		CommonTlsContext: &tlsv3.CommonTlsContext{
			TlsCertificates: []*tlsv3.TlsCertificate{{
				CertificateChain: fileDataSource(m.ClientCertPath),
				PrivateKey:       fileDataSource(m.ClientKeyPath),
			}},
			ValidationContextType: &tlsv3.CommonTlsContext_ValidationContext{
				ValidationContext: &tlsv3.CertificateValidationContext{
					TrustedCa: fileDataSource(m.CABundlePath),
				},
			},
		},
	}
	typed, err := anypb.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("marshaling upstream TLS context: %w", err)
	}
	return &core.TransportSocket{
		Name:       "envoy.transport_sockets.tls",
		ConfigType: &core.TransportSocket_TypedConfig{TypedConfig: typed},
	}, nil
}

func fileDataSource(path string) *core.DataSource {
	return &core.DataSource{Specifier: &core.DataSource_Filename{Filename: path}}
}
