package filterregistry

import (
	"fmt"

	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	ratelimitv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/http/ratelimit/v3"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
)

// RateLimitDescriptor is one descriptor entry sent to the rate limit
// service for a matching request.
type RateLimitDescriptor struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RateLimitConfig is the distributed (service-backed) rate limit filter.
type RateLimitConfig struct {
	Domain          string `json:"domain"`
	Stage           uint32 `json:"stage"`
	Cluster         string `json:"cluster"`
	TimeoutMs       uint32 `json:"timeout_ms"`
	FailureModeDeny bool   `json:"failure_mode_deny"`
}

// RateLimitPerRoute is the distributed rate limit filter's per-route
// override. Descriptors is decoded from the route's override value but is
// not included in the message Marshal emits.
type RateLimitPerRoute struct {
	Descriptors []RateLimitDescriptor `json:"descriptors"`
}

func (c RateLimitConfig) Kind() Kind               { return KindRateLimit }
func (c RateLimitConfig) CanonicalName() string    { return canonicalNames[KindRateLimit] }
func (c RateLimitConfig) DefaultPosition() Position { return PositionRateLimit }
func (c RateLimitConfig) SupportsPerRoute() bool    { return true }

func (c RateLimitConfig) Marshal() (*anypb.Any, error) {
	if c.Domain == "" {
		return nil, fmt.Errorf("rate_limit: domain is required")
	}
	return anypb.New(&ratelimitv3.RateLimit{
		Domain: c.Domain,
		Stage:  c.Stage,
		RateLimitService: &ratelimitv3.RateLimitServiceConfig{
			GrpcService: &core.GrpcService{
				TargetSpecifier: &core.GrpcService_EnvoyGrpc_{
					EnvoyGrpc: &core.GrpcService_EnvoyGrpc{ClusterName: c.Cluster},
				},
				Timeout: durationpb.New(millisDuration(c.TimeoutMs)),
			},
		},
		FailureModeDeny: c.FailureModeDeny,
	})
}

// MarshalPerRoute is not used directly by RateLimitConfig — per-route
// descriptor contribution is expressed through RateLimitPerRoute, kept as a
// separate type since the global and per-route Envoy messages are
// unrelated (RateLimit vs RateLimitPerRoute).
func (c RateLimitConfig) MarshalPerRoute() (*anypb.Any, error) {
	return nil, fmt.Errorf("rate_limit: use RateLimitPerRoute for per-route descriptor overrides")
}

// Marshal emits the per-route override that tells the rate limit filter to
// use this route's own descriptor-producing rate limit actions instead of
// inheriting the virtual host's. It sets only VhRateLimits; Descriptors is
// not carried into the message.
func (p RateLimitPerRoute) Marshal() (*anypb.Any, error) {
	return anypb.New(&ratelimitv3.RateLimitPerRoute{
		VhRateLimits: ratelimitv3.RateLimitPerRoute_OVERRIDE,
	})
}
