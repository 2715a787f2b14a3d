package filterregistry

import (
	"fmt"

	"google.golang.org/protobuf/types/known/anypb"
)

// RawConfig is the escape hatch for a filter Flowplane's typed catalogue
// does not (yet) model: the caller supplies the Envoy filter name and the
// already-serialized typed config directly.
// Flowplane does not validate the bytes; a malformed raw config surfaces as
// an Envoy-side NACK on the affected listener, not a Flowplane-side error.
type RawConfig struct {
	Name            string   `json:"name"`
	TypeURL         string   `json:"type_url"`
	Value           []byte   `json:"value"`
	PerRouteTypeURL string   `json:"per_route_type_url"`
	PerRouteValue   []byte   `json:"per_route_value"`
	Position        Position `json:"position"`
}

func (c RawConfig) Kind() Kind               { return KindRaw }
func (c RawConfig) CanonicalName() string    { return c.Name }
func (c RawConfig) DefaultPosition() Position { return c.Position }

func (c RawConfig) SupportsPerRoute() bool {
	return len(c.PerRouteValue) > 0 || c.PerRouteTypeURL != ""
}

func (c RawConfig) Marshal() (*anypb.Any, error) {
	if c.Name == "" {
		return nil, fmt.Errorf("raw filter: Name is required")
	}
	if c.TypeURL == "" {
		return nil, fmt.Errorf("raw filter %q: TypeURL is required", c.Name)
	}
	return &anypb.Any{TypeUrl: c.TypeURL, Value: c.Value}, nil
}

func (c RawConfig) MarshalPerRoute() (*anypb.Any, error) {
	if !c.SupportsPerRoute() {
		return nil, fmt.Errorf("raw filter %q: no per-route override supplied", c.Name)
	}
	return &anypb.Any{TypeUrl: c.PerRouteTypeURL, Value: c.PerRouteValue}, nil
}
