package xdsresource

import (
	"fmt"

	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	listenerv3 "github.com/envoyproxy/go-control-plane/envoy/config/listener/v3"
	hcmv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/network/http_connection_manager/v3"
	tlsv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/transport_sockets/tls/v3"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/flowplane/flowplane/internal/filterregistry"
	"github.com/flowplane/flowplane/internal/model"
)

// BuildListener translates a Listener resource into its xDS wire form.
func BuildListener(l model.Listener) (*listenerv3.Listener, error) {
	out := &listenerv3.Listener{
		Name:    l.Name,
		Address: socketAddress(l.Address, l.Port),
	}
	for _, fc := range l.FilterChains {
		built, err := buildFilterChain(fc)
		if err != nil {
			return nil, fmt.Errorf("listener %q: %w", l.Name, err)
		}
		out.FilterChains = append(out.FilterChains, built)
	}
	return out, nil
}

func buildFilterChain(fc model.FilterChain) (*listenerv3.FilterChain, error) {
	hcmAny, err := buildHTTPConnectionManager(fc.HCM)
	if err != nil {
		return nil, err
	}

	out := &listenerv3.FilterChain{
		Filters: []*listenerv3.Filter{{
			Name: "envoy.filters.network.http_connection_manager",
			ConfigType: &listenerv3.Filter_TypedConfig{
				TypedConfig: hcmAny,
			},
		}},
	}

	if len(fc.SNIMatch) > 0 || len(fc.ALPNMatch) > 0 {
		out.FilterChainMatch = &listenerv3.FilterChainMatch{
			ServerNames:          fc.SNIMatch,
			ApplicationProtocols: fc.ALPNMatch,
		}
	}

	if fc.TLS != nil {
		ts, err := buildDownstreamTransportSocket(*fc.TLS)
		if err != nil {
			return nil, err
		}
		out.TransportSocket = ts
	}

	return out, nil
}

func buildHTTPConnectionManager(hcm model.HTTPConnectionManager) (*anypb.Any, error) {
	if len(hcm.HTTPFilters) == 0 {
		return nil, fmt.Errorf("http connection manager %q has no http filters", hcm.StatPrefix)
	}
	last := hcm.HTTPFilters[len(hcm.HTTPFilters)-1]
	if filterregistry.Kind(last.Kind) != filterregistry.KindRouter {
		return nil, fmt.Errorf("http connection manager %q: filter chain must end with the router filter", hcm.StatPrefix)
	}

	out := &hcmv3.HttpConnectionManager{
		StatPrefix: hcm.StatPrefix,
	}

	for _, inst := range hcm.HTTPFilters {
		filter, err := buildHTTPFilter(inst)
		if err != nil {
			return nil, fmt.Errorf("http connection manager %q: %w", hcm.StatPrefix, err)
		}
		out.HttpFilters = append(out.HttpFilters, filter)
	}

	switch {
	case hcm.RouteConfigName != "":
		out.RouteSpecifier = &hcmv3.HttpConnectionManager_Rds{
			Rds: &hcmv3.Rds{
				ConfigSource:    adsConfigSource(),
				RouteConfigName: hcm.RouteConfigName,
			},
		}
	case hcm.InlineRouteConfig != nil:
		rc, err := BuildRouteConfiguration(*hcm.InlineRouteConfig)
		if err != nil {
			return nil, fmt.Errorf("http connection manager %q: %w", hcm.StatPrefix, err)
		}
		out.RouteSpecifier = &hcmv3.HttpConnectionManager_RouteConfig{RouteConfig: rc}
	default:
		return nil, fmt.Errorf("http connection manager %q has neither a route config name nor an inline route config", hcm.StatPrefix)
	}

	return anypb.New(out)
}

func buildHTTPFilter(inst model.HTTPFilterInstance) (*hcmv3.HttpFilter, error) {
	kind := filterregistry.Kind(inst.Kind)
	cfg, err := decodeFilterConfig(kind, inst.Config)
	if err != nil {
		return nil, err
	}
	typedConfig, err := cfg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", inst.Name, err)
	}
	return &hcmv3.HttpFilter{
		Name: inst.Name,
		ConfigType: &hcmv3.HttpFilter_TypedConfig{
			TypedConfig: typedConfig,
		},
	}, nil
}

func buildDownstreamTransportSocket(t model.DownstreamTLS) (*core.TransportSocket, error) {
	ctx := &tlsv3.DownstreamTlsContext{
		CommonTlsContext: &tlsv3.CommonTlsContext{
			TlsCertificateSdsSecretConfigs: []*tlsv3.SdsSecretConfig{{
				Name:      t.CertSecretName,
				SdsConfig: adsConfigSource(),
			}},
		},
	}
	configAny, err := anypb.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("marshaling downstream TLS context: %w", err)
	}
	return &core.TransportSocket{
		Name: "envoy.transport_sockets.tls",
		ConfigType: &core.TransportSocket_TypedConfig{
			TypedConfig: configAny,
		},
	}, nil
}
