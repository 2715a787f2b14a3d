package xdsresource

import (
	"fmt"

	routev3 "github.com/envoyproxy/go-control-plane/envoy/config/route/v3"
	"google.golang.org/protobuf/types/known/anypb"

	"github.com/flowplane/flowplane/internal/filterregistry"
)

// buildPerFilterConfig resolves a route rule's raw override map (keyed by
// public alias) into the typedPerFilterConfig map Envoy expects,
// keyed by each filter's canonical name. The "disabled" marker is rendered
// as route.FilterConfig{Disabled: true} — Envoy's own per-route filter
// disable mechanism — rather than an empty or zero-value typed config,
// which would activate the filter with defaults instead of turning it off.
// Any other string under the authn alias names a JWT requirement and is
// rendered as the filter's per-route requirement-name config.
func buildPerFilterConfig(overrides map[string]any) (map[string]*anypb.Any, error) {
	if len(overrides) == 0 {
		return nil, nil
	}

	out := make(map[string]*anypb.Any, len(overrides))
	for alias, raw := range overrides {
		kind, err := filterregistry.ResolveAlias(alias)
		if err != nil {
			return nil, err
		}
		name := filterregistry.CanonicalName(kind)

		if filterregistry.IsDisabled(raw) {
			disabledAny, err := anypb.New(&routev3.FilterConfig{Disabled: true})
			if err != nil {
				return nil, fmt.Errorf("filter %q: marshaling disabled marker: %w", alias, err)
			}
			out[name] = disabledAny
			continue
		}

		if s, ok := raw.(string); ok && kind == filterregistry.KindJWTAuthn {
			cfg := filterregistry.JWTAuthnConfig{Requirements: map[string]filterregistry.JWTRequirement{s: {}}}
			a, err := cfg.MarshalPerRoute()
			if err != nil {
				return nil, fmt.Errorf("filter %q: %w", alias, err)
			}
			out[name] = a
			continue
		}

		values, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("filter %q: override value must be \"disabled\", a requirement name (authn only) or an object, got %T", alias, raw)
		}

		if kind == filterregistry.KindRateLimit {
			rp, err := decodeRateLimitPerRoute(values)
			if err != nil {
				return nil, err
			}
			a, err := rp.Marshal()
			if err != nil {
				return nil, fmt.Errorf("filter %q: %w", alias, err)
			}
			out[name] = a
			continue
		}

		cfg, err := decodeFilterConfig(kind, values)
		if err != nil {
			return nil, err
		}
		if !cfg.SupportsPerRoute() {
			return nil, fmt.Errorf("filter %q has no per-route scoped variant", alias)
		}
		a, err := cfg.MarshalPerRoute()
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", alias, err)
		}
		out[name] = a
	}
	return out, nil
}
