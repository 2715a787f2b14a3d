package filterregistry

import (
	"fmt"

	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	rlqv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/http/rate_limit_quota/v3"
	"google.golang.org/protobuf/types/known/anypb"
)

// RateLimitQuotaConfig is the quota-based rate limit filter's global
// configuration: a domain plus the cluster hosting the rate limit quota
// service.
type RateLimitQuotaConfig struct {
	Domain  string `json:"domain"`
	Cluster string `json:"cluster"`
}

func (c RateLimitQuotaConfig) Kind() Kind               { return KindRateLimitQuota }
func (c RateLimitQuotaConfig) CanonicalName() string    { return canonicalNames[KindRateLimitQuota] }
func (c RateLimitQuotaConfig) DefaultPosition() Position { return PositionRateLimit }
func (c RateLimitQuotaConfig) SupportsPerRoute() bool    { return true }

func (c RateLimitQuotaConfig) Marshal() (*anypb.Any, error) {
	if c.Domain == "" {
		return nil, fmt.Errorf("rate_limit_quota: domain is required")
	}
	return anypb.New(&rlqv3.RateLimitQuotaFilterConfig{
		Domain: c.Domain,
		RlqsServer: &core.GrpcService{
			TargetSpecifier: &core.GrpcService_EnvoyGrpc_{
				EnvoyGrpc: &core.GrpcService_EnvoyGrpc{ClusterName: c.Cluster},
			},
		},
	})
}

func (c RateLimitQuotaConfig) MarshalPerRoute() (*anypb.Any, error) {
	return anypb.New(&rlqv3.RateLimitQuotaBucketSettings{})
}
