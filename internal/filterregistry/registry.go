// Package filterregistry is the typed, closed catalogue of HTTP filters
// Flowplane can attach to a listener's HTTP connection manager or override
// per route. Every Kind is a Go struct implementing Config;
// there is no interface hierarchy to extend at runtime — adding a filter
// kind means adding it to AllKinds and canonicalNames and adding a case to
// the decoding switch in internal/xdsresource; nothing checks these lists
// against each other at compile time.
package filterregistry

import (
	"fmt"

	"google.golang.org/protobuf/types/known/anypb"
)

// Kind is the closed set of HTTP filter kinds Flowplane understands.
type Kind string

const (
	KindRouter             Kind = "router"
	KindCORS               Kind = "cors"
	KindJWTAuthn           Kind = "jwt_authn"
	KindLocalRateLimit     Kind = "local_rate_limit"
	KindRateLimit          Kind = "rate_limit"
	KindRateLimitQuota     Kind = "rate_limit_quota"
	KindHeaderMutation     Kind = "header_mutation"
	KindHealthCheck        Kind = "health_check"
	KindCredentialInjector Kind = "credential_injector"
	KindCustomResponse     Kind = "custom_response"
	KindRaw                Kind = "raw"
)

// AllKinds lists every kind the registry knows about. Tests check that every
// kind in it except raw has a canonical name; the alias table is tested
// against a fixed list of aliases, not against this list.
func AllKinds() []Kind {
	return []Kind{
		KindRouter, KindCORS, KindJWTAuthn, KindLocalRateLimit, KindRateLimit,
		KindRateLimitQuota, KindHeaderMutation, KindHealthCheck,
		KindCredentialInjector, KindCustomResponse, KindRaw,
	}
}

// Position orders a filter within an HTTP connection manager's filter
// chain. Lower values sort earlier. Router always sorts last.
type Position int

const (
	PositionCORS Position = iota
	PositionAuthn
	PositionRateLimit
	PositionHeaderMutation
	PositionHealthCheck
	PositionCredentialInjector
	PositionCustomResponse
	PositionRaw
	PositionRouter // always last
)

// disabledMarker is the literal override value meaning "this filter is
// inactive on this route". IsDisabled recognizes it, and internal/xdsresource
// renders it as Envoy's per-route FilterConfig with Disabled set.
const disabledMarker = "disabled"

// Config is implemented by every filter kind's typed configuration. A
// filter kind that has no meaningful per-route variant (router) returns an
// error from MarshalPerRoute rather than silently emitting a global config
// in the per-route slot.
type Config interface {
	Kind() Kind
	// CanonicalName is the Envoy HTTP filter name the HCM's filter chain
	// entry and the route's typedPerFilterConfig map both key on.
	CanonicalName() string
	// Marshal produces this filter's global (listener-level) typed config.
	Marshal() (*anypb.Any, error)
	// SupportsPerRoute reports whether this kind has a per-route scoped
	// variant at all.
	SupportsPerRoute() bool
	// MarshalPerRoute produces the per-route scoped typed config. Callers
	// must check SupportsPerRoute first.
	MarshalPerRoute() (*anypb.Any, error)
	// DefaultPosition is this kind's default slot in the HCM filter chain.
	DefaultPosition() Position
}

// canonicalNames maps every kind to the Envoy filter name the HCM listens
// on.
var canonicalNames = map[Kind]string{
	KindRouter:             "envoy.filters.http.router",
	KindCORS:               "envoy.filters.http.cors",
	KindJWTAuthn:           "envoy.filters.http.jwt_authn",
	KindLocalRateLimit:     "envoy.filters.http.local_ratelimit",
	KindRateLimit:          "envoy.filters.http.ratelimit",
	KindRateLimitQuota:     "envoy.filters.http.rate_limit_quota",
	KindHeaderMutation:     "envoy.filters.http.header_mutation",
	KindHealthCheck:        "envoy.filters.http.health_check",
	KindCredentialInjector: "envoy.filters.http.credential_injector",
	KindCustomResponse:     "envoy.filters.http.custom_response",
}

// CanonicalName returns the Envoy filter name for a kind, or "" if k is not
// a known kind (KindRaw carries its own name, supplied by the caller).
func CanonicalName(k Kind) string {
	return canonicalNames[k]
}

// aliasTable is the public per-route override alias → kind mapping (spec
// §4.2 "Per-route override aliases"). Every alias a caller might supply in
// x-flowplane-route-overrides resolves to exactly one kind. Only the six
// kinds listed here have an alias: credential_injector and custom_response
// have per-route variants but cannot be named in route-override position.
var aliasTable = map[string]Kind{
	"cors":             KindCORS,
	"authn":            KindJWTAuthn,
	"rate_limit":       KindLocalRateLimit,
	"header_mutation":  KindHeaderMutation,
	"ratelimit":        KindRateLimit,
	"rate_limit_quota": KindRateLimitQuota,
}

// ResolveAlias resolves a route-override alias to its filter kind. Using a
// global-only filter type name (e.g. "local_rate_limit") in route-override
// position is rejected with a remediation message pointing callers at the
// correct alias.
func ResolveAlias(alias string) (Kind, error) {
	if k, ok := aliasTable[alias]; ok {
		return k, nil
	}
	if alias == string(KindLocalRateLimit) {
		return "", fmt.Errorf("%q is a global filter type name, not a route-override alias; use \"rate_limit\" instead", alias)
	}
	return "", fmt.Errorf("unknown route override alias %q", alias)
}

// IsDisabled reports whether a raw override value from
// x-flowplane-route-overrides / RouteRule.PerFilterConfig is the literal
// "disabled" marker string.
func IsDisabled(value any) bool {
	s, ok := value.(string)
	return ok && s == disabledMarker
}
