package xdsresource

import (
	"testing"

	corsv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/http/cors/v3"
	ratelimitv3 "github.com/envoyproxy/go-control-plane/envoy/extensions/filters/http/ratelimit/v3"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"github.com/flowplane/flowplane/internal/filterregistry"
)

func TestDecodeFilterConfigCORS(t *testing.T) {
	raw := map[string]any{
		"allow_origins": []any{
			map[string]any{"kind": "exact", "value": "https://app.example.com"},
		},
		"allow_credentials": true,
	}
	cfg, err := decodeFilterConfig(filterregistry.KindCORS, raw)
	require.NoError(t, err)
	cors, ok := cfg.(filterregistry.CORSConfig)
	require.True(t, ok)
	require.Len(t, cors.AllowOrigins, 1)
	require.Equal(t, filterregistry.CORSOriginExact, cors.AllowOrigins[0].Kind)
	require.True(t, cors.AllowCredentials)

	a, err := cfg.Marshal()
	require.NoError(t, err)
	var out corsv3.Cors
	require.NoError(t, proto.Unmarshal(a.Value, &out))
}

func TestDecodeFilterConfigUnknownKind(t *testing.T) {
	_, err := decodeFilterConfig(filterregistry.Kind("bogus"), map[string]any{})
	require.Error(t, err)
}

func TestDecodeRateLimitPerRouteDecodesDescriptorsAndMarshalsOverride(t *testing.T) {
	raw := map[string]any{
		"descriptors": []any{
			map[string]any{"key": "remote_address", "value": ""},
		},
	}
	rp, err := decodeRateLimitPerRoute(raw)
	require.NoError(t, err)
	require.Len(t, rp.Descriptors, 1)

	a, err := rp.Marshal()
	require.NoError(t, err)
	var out ratelimitv3.RateLimitPerRoute
	require.NoError(t, proto.Unmarshal(a.Value, &out))
	require.Equal(t, ratelimitv3.RateLimitPerRoute_OVERRIDE, out.VhRateLimits)
}
