package filterregistry

import (
	"fmt"
	"strconv"

	corsv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/http/cors/v3"
	route "github.com/envoyproxy/go-control-plane/envoy/config/route/v3"
	matcher "github.com/envoyproxy/go-control-plane/envoy/type/matcher/v3"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// CORSOriginKind is the polymorphic origin matcher variant.
type CORSOriginKind string

const (
	CORSOriginExact     CORSOriginKind = "exact"
	CORSOriginPrefix    CORSOriginKind = "prefix"
	CORSOriginSuffix    CORSOriginKind = "suffix"
	CORSOriginSafeRegex CORSOriginKind = "safe_regex"
)

// CORSOrigin is one allowed-origin matcher.
type CORSOrigin struct {
	Kind  CORSOriginKind `json:"kind"`
	Value string         `json:"value"`
}

const defaultCORSMaxAgeSeconds = 86400

// CORSConfig is the cross-origin resource sharing filter policy. The
// listener-level filter (envoy.filters.http.cors) carries no configuration
// of its own — the actual policy always lives in the per-route
// CorsPolicy, matching how Envoy's cors filter is wired in practice: the
// global Marshal below emits the filter's (empty) activation config, and
// MarshalPerRoute emits the real policy.
type CORSConfig struct {
	AllowOrigins     []CORSOrigin `json:"allow_origins"`
	AllowMethods     []string     `json:"allow_methods"`
	AllowHeaders     []string     `json:"allow_headers"`
	ExposeHeaders    []string     `json:"expose_headers"`
	AllowCredentials bool         `json:"allow_credentials"`
	MaxAgeSeconds    uint64       `json:"max_age"` // 0 means "use default" (86400)
}

func (c CORSConfig) Kind() Kind               { return KindCORS }
func (c CORSConfig) CanonicalName() string    { return canonicalNames[KindCORS] }
func (c CORSConfig) DefaultPosition() Position { return PositionCORS }
func (c CORSConfig) SupportsPerRoute() bool    { return true }

// Validate enforces that allow_credentials=true cannot combine with a
// wildcard origin.
func (c CORSConfig) Validate() error {
	if c.AllowCredentials {
		for _, o := range c.AllowOrigins {
			if o.Kind == CORSOriginExact && o.Value == "*" {
				return fmt.Errorf("cors: allow_credentials=true cannot be combined with a wildcard origin")
			}
		}
	}
	return nil
}

func (c CORSConfig) Marshal() (*anypb.Any, error) {
	return anypb.New(&corsv3.Cors{})
}

func (c CORSConfig) maxAge() uint64 {
	if c.MaxAgeSeconds == 0 {
		return defaultCORSMaxAgeSeconds
	}
	return c.MaxAgeSeconds
}

func (c CORSConfig) MarshalPerRoute() (*anypb.Any, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	policy := &route.CorsPolicy{
		AllowMethods:     joinComma(c.AllowMethods),
		AllowHeaders:     joinComma(c.AllowHeaders),
		ExposeHeaders:    joinComma(c.ExposeHeaders),
		AllowCredentials: wrapperspb.Bool(c.AllowCredentials),
		MaxAge:           strconv.FormatUint(c.maxAge(), 10),
	}
	for _, o := range c.AllowOrigins {
		sm := &matcher.StringMatcher{}
		switch o.Kind {
		case CORSOriginExact:
			sm.MatchPattern = &matcher.StringMatcher_Exact{Exact: o.Value}
		case CORSOriginPrefix:
			sm.MatchPattern = &matcher.StringMatcher_Prefix{Prefix: o.Value}
		case CORSOriginSuffix:
			sm.MatchPattern = &matcher.StringMatcher_Suffix{Suffix: o.Value}
		case CORSOriginSafeRegex:
			sm.MatchPattern = &matcher.StringMatcher_SafeRegex{SafeRegex: &matcher.RegexMatcher{
				Regex: o.Value,
			}}
		default:
			return nil, fmt.Errorf("cors: unknown origin matcher kind %q", o.Kind)
		}
		policy.AllowOriginStringMatch = append(policy.AllowOriginStringMatch, sm)
	}
	return anypb.New(policy)
}

func joinComma(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
