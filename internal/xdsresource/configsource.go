package xdsresource

import (
	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
)

// adsConfigSource points an RDS/EDS reference back at the ADS stream itself,
// rather than a separate discovery request — every resource Flowplane
// serves travels over the one aggregated stream.
func adsConfigSource() *core.ConfigSource {
	return &core.ConfigSource{
		ConfigSourceSpecifier: &core.ConfigSource_Ads{
			Ads: &core.AggregatedConfigSource{},
		},
		ResourceApiVersion: core.ApiVersion_V3,
	}
}
