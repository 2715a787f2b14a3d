package filterregistry

import (
	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	localratelimitv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/http/local_ratelimit/v3"
	typev3 "github.com/envoyproxy/go-control-plane/envoy/type/v3"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// fullyEnabled is the 100% runtime fraction used to unconditionally enable
// a rate limit filter instance (no runtime-feature-flag gating).
var fullyEnabled = &core.RuntimeFractionalPercent{
	DefaultValue: &typev3.FractionalPercent{
		Numerator:   100,
		Denominator: typev3.FractionalPercent_HUNDRED,
	},
}

const defaultRateLimitStatusCode = 429

// LocalRateLimitConfig is a token-bucket local rate limit.
// TokensPerFill defaults to MaxTokens when zero.
type LocalRateLimitConfig struct {
	MaxTokens      uint32 `json:"max_tokens"`
	TokensPerFill  uint32 `json:"tokens_per_fill"`
	FillIntervalMs uint32 `json:"fill_interval_ms"` // must be >= 1
	StatusCode     uint32 `json:"status_code"`      // defaults to 429
	Filtered       bool   `json:"filtered"`         // not read by build(); a per-route "disabled" override is detected by IsDisabled
}

func (c LocalRateLimitConfig) Kind() Kind               { return KindLocalRateLimit }
func (c LocalRateLimitConfig) CanonicalName() string    { return canonicalNames[KindLocalRateLimit] }
func (c LocalRateLimitConfig) DefaultPosition() Position { return PositionRateLimit }
func (c LocalRateLimitConfig) SupportsPerRoute() bool    { return true }

func (c LocalRateLimitConfig) tokensPerFill() uint32 {
	if c.TokensPerFill == 0 {
		return c.MaxTokens
	}
	return c.TokensPerFill
}

func (c LocalRateLimitConfig) statusCode() uint32 {
	if c.StatusCode == 0 {
		return defaultRateLimitStatusCode
	}
	return c.StatusCode
}

func (c LocalRateLimitConfig) build() *localratelimitv3.LocalRateLimit {
	return &localratelimitv3.LocalRateLimit{
		StatPrefix: "http_local_rate_limiter",
		Status:     &typev3.HttpStatus{Code: typev3.StatusCode(c.statusCode())},
		TokenBucket: &typev3.TokenBucket{
			MaxTokens:     c.MaxTokens,
			TokensPerFill: wrapperspb.UInt32(c.tokensPerFill()),
			FillInterval:  durationpb.New(millisDuration(c.FillIntervalMs)),
		},
		FilterEnabled:  fullyEnabled,
		FilterEnforced: fullyEnabled,
	}
}

func (c LocalRateLimitConfig) Marshal() (*anypb.Any, error) {
	return anypb.New(c.build())
}

func (c LocalRateLimitConfig) MarshalPerRoute() (*anypb.Any, error) {
	return anypb.New(c.build())
}
