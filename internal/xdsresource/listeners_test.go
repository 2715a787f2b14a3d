package xdsresource

import (
	"testing"

	hcmv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/network/http_connection_manager/v3"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/flowplane/flowplane/internal/model"
)

func routerOnlyFilters() []model.HTTPFilterInstance {
	return []model.HTTPFilterInstance{{
		Name: "envoy.filters.http.router",
		Kind: "router",
	}}
}

func TestBuildListenerWithRDSReference(t *testing.T) {
	l := model.Listener{
		Envelope: model.Envelope{Name: "public", Team: "checkout"},
		Address:  "0.0.0.0",
		Port:     10000,
		Protocol: model.ProtocolHTTP,
		FilterChains: []model.FilterChain{{
			HCM: model.HTTPConnectionManager{
				StatPrefix:      "public",
				RouteConfigName: "users-routes",
				HTTPFilters:     routerOnlyFilters(),
			},
		}},
	}

	built, err := BuildListener(l)
	require.NoError(t, err)
	require.Equal(t, "public", built.Name)
	require.Len(t, built.FilterChains, 1)

	fc := built.FilterChains[0]
	require.Len(t, fc.Filters, 1)
	require.Equal(t, "envoy.filters.network.http_connection_manager", fc.Filters[0].Name)

	var hcm hcmv3.HttpConnectionManager
	require.NoError(t, proto.Unmarshal(fc.Filters[0].GetTypedConfig().Value, &hcm))
	rds := hcm.GetRds()
	require.NotNil(t, rds)
	require.Equal(t, "users-routes", rds.RouteConfigName)
	require.NotNil(t, rds.ConfigSource.GetAds())
}

func TestBuildListenerWithInlineRouteConfig(t *testing.T) {
	l := model.Listener{
		Envelope: model.Envelope{Name: "internal", Team: "checkout"},
		Address:  "0.0.0.0",
		Port:     10001,
		Protocol: model.ProtocolHTTP,
		FilterChains: []model.FilterChain{{
			HCM: model.HTTPConnectionManager{
				StatPrefix: "internal",
				InlineRouteConfig: &model.RouteConfiguration{
					Envelope: model.Envelope{Name: "inline-routes", Team: "checkout"},
					VirtualHosts: []model.VirtualHost{{
						Name:    "all",
						Domains: []string{"*"},
					}},
				},
				HTTPFilters: routerOnlyFilters(),
			},
		}},
	}

	built, err := BuildListener(l)
	require.NoError(t, err)

	var hcm hcmv3.HttpConnectionManager
	require.NoError(t, proto.Unmarshal(built.FilterChains[0].Filters[0].GetTypedConfig().Value, &hcm))
	require.NotNil(t, hcm.GetRouteConfig())
	require.Equal(t, "inline-routes", hcm.GetRouteConfig().Name)
}

func TestBuildListenerRejectsFilterChainNotEndingInRouter(t *testing.T) {
	l := model.Listener{
		Envelope: model.Envelope{Name: "bad", Team: "checkout"},
		Address:  "0.0.0.0",
		Port:     10002,
		Protocol: model.ProtocolHTTP,
		FilterChains: []model.FilterChain{{
			HCM: model.HTTPConnectionManager{
				StatPrefix:      "bad",
				RouteConfigName: "x",
				HTTPFilters: []model.HTTPFilterInstance{{
					Name: "envoy.filters.http.cors",
					Kind: "cors",
				}},
			},
		}},
	}

	_, err := BuildListener(l)
	require.Error(t, err)
}

func TestBuildListenerSetsSNIMatchAndDownstreamTLS(t *testing.T) {
	l := model.Listener{
		Envelope: model.Envelope{Name: "tls-listener", Team: "checkout"},
		Address:  "0.0.0.0",
		Port:     10003,
		Protocol: model.ProtocolHTTP,
		FilterChains: []model.FilterChain{{
			SNIMatch: []string{"secure.example.com"},
			TLS:      &model.DownstreamTLS{CertSecretName: "secure-cert"},
			HCM: model.HTTPConnectionManager{
				StatPrefix:      "secure",
				RouteConfigName: "secure-routes",
				HTTPFilters:     routerOnlyFilters(),
			},
		}},
	}

	built, err := BuildListener(l)
	require.NoError(t, err)
	fc := built.FilterChains[0]
	require.Equal(t, []string{"secure.example.com"}, fc.FilterChainMatch.ServerNames)
	require.NotNil(t, fc.TransportSocket)
}
