package xdsresource

import (
	"encoding/json"
	"fmt"

	"github.com/flowplane/flowplane/internal/filterregistry"
)

// decodeFilterConfig turns the raw JSON-ish config a resource carries (from
// the admin API or the Platform Compiler's vendor-extension decoding) into
// the typed struct filterregistry knows how to marshal to Envoy's wire
// format. Every filterregistry config struct carries explicit snake_case
// json tags matching the documented filter config keys (allow_origins,
// max_age, ...), so a re-marshal/unmarshal through encoding/json binds raw
// vendor-extension maps correctly instead of relying on Go's
// case-insensitive-but-underscore-blind field matching.
func decodeFilterConfig(kind filterregistry.Kind, raw map[string]any) (filterregistry.Config, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("filter %q: re-marshaling config: %w", kind, err)
	}

	switch kind {
	case filterregistry.KindRouter:
		var c filterregistry.RouterConfig
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("filter %q: %w", kind, err)
		}
		return c, nil
	case filterregistry.KindCORS:
		var c filterregistry.CORSConfig
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("filter %q: %w", kind, err)
		}
		return c, nil
	case filterregistry.KindJWTAuthn:
		var c filterregistry.JWTAuthnConfig
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("filter %q: %w", kind, err)
		}
		return c, nil
	case filterregistry.KindLocalRateLimit:
		var c filterregistry.LocalRateLimitConfig
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("filter %q: %w", kind, err)
		}
		return c, nil
	case filterregistry.KindRateLimit:
		var c filterregistry.RateLimitConfig
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("filter %q: %w", kind, err)
		}
		return c, nil
	case filterregistry.KindRateLimitQuota:
		var c filterregistry.RateLimitQuotaConfig
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("filter %q: %w", kind, err)
		}
		return c, nil
	case filterregistry.KindHeaderMutation:
		var c filterregistry.HeaderMutationConfig
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("filter %q: %w", kind, err)
		}
		return c, nil
	case filterregistry.KindHealthCheck:
		var c filterregistry.HealthCheckConfig
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("filter %q: %w", kind, err)
		}
		return c, nil
	case filterregistry.KindCredentialInjector:
		var c filterregistry.CredentialInjectorConfig
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("filter %q: %w", kind, err)
		}
		return c, nil
	case filterregistry.KindCustomResponse:
		var c filterregistry.CustomResponseConfig
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("filter %q: %w", kind, err)
		}
		return c, nil
	case filterregistry.KindRaw:
		var c filterregistry.RawConfig
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("filter %q: %w", kind, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown filter kind %q", kind)
	}
}

// decodeRateLimitPerRoute decodes the distributed rate-limit filter's
// per-route descriptor override — a distinct Envoy message from its global
// config, so it isn't reachable through the Config interface's
// MarshalPerRoute (filterregistry.RateLimitConfig.MarshalPerRoute
// deliberately errors; see ratelimit.go).
func decodeRateLimitPerRoute(raw map[string]any) (filterregistry.RateLimitPerRoute, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return filterregistry.RateLimitPerRoute{}, fmt.Errorf("rate_limit per-route: %w", err)
	}
	var c filterregistry.RateLimitPerRoute
	if err := json.Unmarshal(data, &c); err != nil {
		return filterregistry.RateLimitPerRoute{}, fmt.Errorf("rate_limit per-route: %w", err)
	}
	return c, nil
}
