package filterregistry

import (
	"fmt"

	routerv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/http/router/v3"
	"google.golang.org/protobuf/types/known/anypb"
)

// RouterConfig is the terminal router filter. Every HCM's filter list must
// end with one. It carries no meaningful configuration and has no
// per-route variant.
type RouterConfig struct {
	// SuppressEnvoyHeaders, when true, strips Envoy's debug response
	// headers (x-envoy-upstream-service-time, etc).
	SuppressEnvoyHeaders bool `json:"suppress_envoy_headers"`
}

func (c RouterConfig) Kind() Kind           { return KindRouter }
func (c RouterConfig) CanonicalName() string { return canonicalNames[KindRouter] }
func (c RouterConfig) DefaultPosition() Position { return PositionRouter }
func (c RouterConfig) SupportsPerRoute() bool    { return false }

func (c RouterConfig) Marshal() (*anypb.Any, error) {
	return anypb.New(&routerv3.Router{
		SuppressEnvoyHeaders: c.SuppressEnvoyHeaders,
	})
}

func (c RouterConfig) MarshalPerRoute() (*anypb.Any, error) {
	return nil, fmt.Errorf("filter kind %q has no per-route scoped variant", KindRouter)
}
