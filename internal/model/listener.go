package model

// Protocol enumerates the listener protocols a Listener may bind.
type Protocol string

const (
	ProtocolHTTP Protocol = "HTTP"
	ProtocolTCP  Protocol = "TCP"
)

// HTTPFilterInstance is one entry in an HTTP connection manager's filter
// chain: a filter kind plus its typed config, keyed by the filter's
// canonical name so per-route overrides (RouteRule.PerFilterConfig) can
// reference it.
type HTTPFilterInstance struct {
	Name   string         `json:"name" validate:"required"`
	Kind   string         `json:"kind" validate:"required"`
	Config map[string]any `json:"config"`
}

// HTTPConnectionManager is the terminal HTTP-aware network filter on a
// filter chain. Exactly one of RouteConfigName (RDS reference) or
// InlineRouteConfig is set. HTTPFilters must end with the router filter
// (checked when internal/xdsresource builds the listener, not on write).
type HTTPConnectionManager struct {
	StatPrefix        string              `json:"statPrefix"`
	RouteConfigName   string              `json:"routeConfigName,omitempty"`
	InlineRouteConfig *RouteConfiguration `json:"inlineRouteConfig,omitempty"`
	HTTPFilters       []HTTPFilterInstance `json:"httpFilters" validate:"required,min=1"`
}

// DownstreamTLS configures a filter chain's server-side TLS termination.
type DownstreamTLS struct {
	CertSecretName string `json:"certSecretName" validate:"required"`
}

// FilterChain is one network filter chain on a listener: optional SNI/ALPN
// matchers, an HCM, and optional downstream TLS.
type FilterChain struct {
	SNIMatch []string               `json:"sniMatch,omitempty"`
	ALPNMatch []string              `json:"alpnMatch,omitempty"`
	TLS       *DownstreamTLS        `json:"tls,omitempty"`
	HCM       HTTPConnectionManager `json:"hcm"`
}

// Listener is a bound network endpoint.
type Listener struct {
	Envelope
	Address      string        `json:"address" validate:"required"`
	Port         uint32        `json:"port" validate:"required,min=1,max=65535"`
	Protocol     Protocol      `json:"protocol" validate:"required,oneof=HTTP TCP"`
	FilterChains []FilterChain `json:"filterChains" validate:"required,min=1,dive"`
}

// ReferencedRouteConfigs returns every route-config name this listener
// references by name (i.e. not carried inline).
func (l Listener) ReferencedRouteConfigs() []string {
	var out []string
	for _, fc := range l.FilterChains {
		if fc.HCM.RouteConfigName != "" {
			out = append(out, fc.HCM.RouteConfigName)
		}
	}
	return out
}

// ReferencedSecrets returns every secret name this listener references,
// from downstream TLS contexts.
func (l Listener) ReferencedSecrets() []string {
	var out []string
	for _, fc := range l.FilterChains {
		if fc.TLS != nil && fc.TLS.CertSecretName != "" {
			out = append(out, fc.TLS.CertSecretName)
		}
	}
	return out
}
