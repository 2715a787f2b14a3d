package filterregistry

import (
	"fmt"

	jwtauthnv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/http/jwt_authn/v3"
	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	route "github.com/envoyproxy/go-control-plane/envoy/config/route/v3"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
)

// JWKSSource is the polymorphic JWKS source for a JWT provider:
// either fetched remotely or supplied inline/via file.
type JWKSSource struct {
	// Remote source.
	RemoteURI        string `json:"remote_uri"`
	RemoteCluster    string `json:"remote_cluster"`
	CacheDurationSec uint32 `json:"cache_duration_seconds"`
	AsyncFetch       bool   `json:"async_fetch"`
	RetryBackoffMs   uint32 `json:"retry_backoff_ms"`

	// Local source — exactly one of LocalInline / LocalFilename is set.
	LocalInline   string `json:"local_inline"`
	LocalFilename string `json:"local_filename"`
}

func (s JWKSSource) isRemote() bool { return s.RemoteURI != "" }

// JWTProvider is one named JWT issuer configuration.
type JWTProvider struct {
	Issuer    string     `json:"issuer"`
	Audiences []string   `json:"audiences"`
	JWKS      JWKSSource `json:"jwks"`
	Forward   bool       `json:"forward"`
}

// JWTRequirement is a node in the requirement tree: either a direct
// provider reference, or an any/all combination of nested requirements.
type JWTRequirement struct {
	ProviderName         string           `json:"provider_name"`
	RequiresAny          []JWTRequirement `json:"requires_any"`
	RequiresAll          []JWTRequirement `json:"requires_all"`
	AllowMissing         bool             `json:"allow_missing"`
	AllowMissingOrFailed bool             `json:"allow_missing_or_failed"`
}

// JWTRule maps a path match to a named requirement.
type JWTRule struct {
	PathPrefix      string `json:"path_prefix"`
	RequirementName string `json:"requirement_name"`
}

// JWTAuthnConfig is the JWT authentication filter's global configuration:
// a map of providers, path rules, and named requirements.
type JWTAuthnConfig struct {
	Providers    map[string]JWTProvider    `json:"providers"`
	Requirements map[string]JWTRequirement `json:"requirements"`
	Rules        []JWTRule                 `json:"rules"`
}

func (c JWTAuthnConfig) Kind() Kind               { return KindJWTAuthn }
func (c JWTAuthnConfig) CanonicalName() string    { return canonicalNames[KindJWTAuthn] }
func (c JWTAuthnConfig) DefaultPosition() Position { return PositionAuthn }
func (c JWTAuthnConfig) SupportsPerRoute() bool    { return true }

func buildRequirement(r JWTRequirement) *jwtauthnv3.JwtRequirement {
	switch {
	case len(r.RequiresAny) > 0:
		var rs []*jwtauthnv3.JwtRequirement
		for _, sub := range r.RequiresAny {
			rs = append(rs, buildRequirement(sub))
		}
		return &jwtauthnv3.JwtRequirement{
			RequiresType: &jwtauthnv3.JwtRequirement_RequiresAny{
				RequiresAny: &jwtauthnv3.JwtRequirementOrList{Requirements: rs},
			},
		}
	case len(r.RequiresAll) > 0:
		var rs []*jwtauthnv3.JwtRequirement
		for _, sub := range r.RequiresAll {
			rs = append(rs, buildRequirement(sub))
		}
		return &jwtauthnv3.JwtRequirement{
			RequiresType: &jwtauthnv3.JwtRequirement_RequiresAll{
				RequiresAll: &jwtauthnv3.JwtRequirementAndList{Requirements: rs},
			},
		}
	case r.AllowMissing:
		return &jwtauthnv3.JwtRequirement{
			RequiresType: &jwtauthnv3.JwtRequirement_AllowMissing{AllowMissing: &emptypb.Empty{}},
		}
	case r.AllowMissingOrFailed:
		return &jwtauthnv3.JwtRequirement{
			RequiresType: &jwtauthnv3.JwtRequirement_AllowMissingOrFailed{AllowMissingOrFailed: &emptypb.Empty{}},
		}
	default:
		return &jwtauthnv3.JwtRequirement{
			RequiresType: &jwtauthnv3.JwtRequirement_ProviderName{ProviderName: r.ProviderName},
		}
	}
}

func (c JWTAuthnConfig) buildProvider(p JWTProvider) *jwtauthnv3.JwtProvider {
	jp := &jwtauthnv3.JwtProvider{
		Issuer:    p.Issuer,
		Audiences: p.Audiences,
		Forward:   p.Forward,
	}
	if p.JWKS.isRemote() {
		jp.JwksSourceSpecifier = &jwtauthnv3.JwtProvider_RemoteJwks{
			RemoteJwks: &jwtauthnv3.RemoteJwks{
				HttpUri: &core.HttpUri{
					Uri: p.JWKS.RemoteURI,
					HttpUpstreamType: &core.HttpUri_Cluster{Cluster: p.JWKS.RemoteCluster},
				},
				CacheDuration: durationpb.New(secondsDuration(p.JWKS.CacheDurationSec)),
				AsyncFetch:    &jwtauthnv3.JwksAsyncFetch{FastListener: p.JWKS.AsyncFetch},
			},
		}
	} else if p.JWKS.LocalInline != "" {
		jp.JwksSourceSpecifier = &jwtauthnv3.JwtProvider_LocalJwks{
			LocalJwks: &core.DataSource{Specifier: &core.DataSource_InlineString{InlineString: p.JWKS.LocalInline}},
		}
	} else {
		jp.JwksSourceSpecifier = &jwtauthnv3.JwtProvider_LocalJwks{
			LocalJwks: &core.DataSource{Specifier: &core.DataSource_Filename{Filename: p.JWKS.LocalFilename}},
		}
	}
	return jp
}

func (c JWTAuthnConfig) Marshal() (*anypb.Any, error) {
	cfg := &jwtauthnv3.JwtAuthentication{
		Providers:    map[string]*jwtauthnv3.JwtProvider{},
		Requirements: map[string]*jwtauthnv3.JwtRequirement{},
	}
	for name, p := range c.Providers {
		cfg.Providers[name] = c.buildProvider(p)
	}
	for name, r := range c.Requirements {
		cfg.Requirements[name] = buildRequirement(r)
	}
	for _, rule := range c.Rules {
		cfg.Rules = append(cfg.Rules, &jwtauthnv3.RequirementRule{
			Match: &route.RouteMatch{PathSpecifier: &route.RouteMatch_Prefix{Prefix: rule.PathPrefix}},
			RequirementType: &jwtauthnv3.RequirementRule_RequirementName{RequirementName: rule.RequirementName},
		})
	}
	return anypb.New(cfg)
}

func (c JWTAuthnConfig) MarshalPerRoute() (*anypb.Any, error) {
	if len(c.Requirements) != 1 {
		return nil, fmt.Errorf("jwt_authn: per-route override requires exactly one named requirement, got %d", len(c.Requirements))
	}
	var name string
	var req JWTRequirement
	for n, r := range c.Requirements {
		name, req = n, r
	}
	_ = req
	return anypb.New(&jwtauthnv3.PerRouteConfig{
		RequirementSpecifier: &jwtauthnv3.PerRouteConfig_RequirementName{RequirementName: name},
	})
}
