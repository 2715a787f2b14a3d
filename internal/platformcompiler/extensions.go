package platformcompiler

import (
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/flowplane/flowplane/internal/filterregistry"
)

const (
	extensionGlobalFilters  = "x-flowplane-filters"
	extensionRouteOverrides = "x-flowplane-route-overrides"
)

// globalFilterSpec is one entry of the document-level x-flowplane-filters
// list: a filter kind plus its raw, not-yet-decoded configuration. The
// actual filterregistry.Config construction happens in internal/xdsresource
// at translation time — the compiler only needs to validate the kind name
// and carry the config through untouched into the HCM's filter list.
type globalFilterSpec struct {
	Kind   string         `json:"kind"`
	Config map[string]any `json:"config"`
}

// globalFilters reads and decodes x-flowplane-filters from the document's
// top-level vendor extensions.
func globalFilters(doc *openapi3.T) ([]globalFilterSpec, error) {
	raw, ok := doc.Extensions[extensionGlobalFilters]
	if !ok {
		return nil, nil
	}
	return decodeFilterList(raw)
}

func decodeFilterList(raw any) ([]globalFilterSpec, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", extensionGlobalFilters, err)
	}
	var specs []globalFilterSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("%s: %w", extensionGlobalFilters, err)
	}
	return specs, nil
}

// vhostScopedOverrides extracts the subset of document-level global
// filters whose real policy must live on the virtual host rather than the
// HCM's global filter slot. CORS is the only such kind: its global
// envoy.filters.http.cors activation carries no configuration of its own
// (see filterregistry.CORSConfig.Marshal), so a document-level CORS filter
// is stamped onto the compiled virtual host's PerFilterConfig instead,
// keyed the same way a per-route override would be.
func vhostScopedOverrides(globals []globalFilterSpec) map[string]any {
	var out map[string]any
	for _, g := range globals {
		if filterregistry.Kind(g.Kind) != filterregistry.KindCORS {
			continue
		}
		if out == nil {
			out = make(map[string]any, 1)
		}
		out["cors"] = g.Config
	}
	return out
}

// routeOverrides reads the per-operation x-flowplane-route-overrides map.
// Values are kept raw (map[string]any or the literal "disabled" string)
// exactly as model.RouteRule.PerFilterConfig expects — alias resolution and
// Any-marshaling happen later, in internal/xdsresource.
func routeOverrides(op *openapi3.Operation) (map[string]any, error) {
	if op == nil {
		return nil, nil
	}
	raw, ok := op.Extensions[extensionRouteOverrides]
	if !ok {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", extensionRouteOverrides, err)
	}
	var overrides map[string]any
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("%s: %w", extensionRouteOverrides, err)
	}
	return overrides, nil
}
