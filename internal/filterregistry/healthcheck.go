package filterregistry

import (
	"fmt"

	healthcheckv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/http/health_check/v3"
	route "github.com/envoyproxy/go-control-plane/envoy/config/route/v3"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// HealthCheckConfig is the HTTP health-check filter: it intercepts requests
// to a known path and answers with a synthetic response instead of routing
// upstream, used for load-balancer health probes.
type HealthCheckConfig struct {
	PassThroughMode bool          `json:"pass_through_mode"`
	Headers         []HeaderMatch `json:"headers"`
}

// HeaderMatch is the health-check filter's header match: a header name and
// an exact value, the only two fields it shares with model.HeaderMatch, under
// snake_case json keys (duplicated rather than imported to keep
// filterregistry independent of the model package's validation tags).
type HeaderMatch struct {
	Name       string `json:"name"`
	ExactMatch string `json:"exact_match"`
}

func (c HealthCheckConfig) Kind() Kind               { return KindHealthCheck }
func (c HealthCheckConfig) CanonicalName() string    { return canonicalNames[KindHealthCheck] }
func (c HealthCheckConfig) DefaultPosition() Position { return PositionHealthCheck }
func (c HealthCheckConfig) SupportsPerRoute() bool    { return false }

func (c HealthCheckConfig) Marshal() (*anypb.Any, error) {
	cfg := &healthcheckv3.HealthCheck{
		PassThroughMode: wrapperspb.Bool(c.PassThroughMode),
	}
	for _, h := range c.Headers {
		cfg.Headers = append(cfg.Headers, &route.HeaderMatcher{
			Name:                 h.Name,
			HeaderMatchSpecifier: &route.HeaderMatcher_ExactMatch{ExactMatch: h.ExactMatch},
		})
	}
	return anypb.New(cfg)
}

func (c HealthCheckConfig) MarshalPerRoute() (*anypb.Any, error) {
	return nil, fmt.Errorf("filter kind %q has no per-route scoped variant", KindHealthCheck)
}
