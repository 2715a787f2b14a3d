package platformcompiler

import (
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/flowplane/flowplane/internal/filterregistry"
	"github.com/flowplane/flowplane/internal/flowerrors"
	"github.com/flowplane/flowplane/internal/model"
)

// compileVirtualHost builds one route rule per (path, method) operation,
// in path+method order so repeated compilations of the same document
// produce identical plans modulo cluster reuse.
func compileVirtualHost(doc *openapi3.T, domain string, clusterByServerURL map[string]string) (model.VirtualHost, error) {
	defaultCluster := clusterByServerURL[doc.Servers[0].URL]

	type compiledOp struct {
		path, method string
		rule         model.RouteRule
	}
	var ops []compiledOp

	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			cluster := defaultCluster

			overrides, err := routeOverrides(op)
			if err != nil {
				return model.VirtualHost{}, err
			}
			if err := validateOverrideAliases(overrides); err != nil {
				return model.VirtualHost{}, err
			}

			rule := model.RouteRule{
				Name: operationName(op, method, path),
				Match: model.RouteMatch{
					Path:    model.PathMatch{Kind: model.PathTemplate, Value: path},
					Headers: []model.HeaderMatch{{Name: ":method", ExactMatch: method}},
				},
				Action: model.RouteAction{
					Kind:    model.ActionForward,
					Cluster: cluster,
				},
				PerFilterConfig: overrides,
			}
			ops = append(ops, compiledOp{path: path, method: method, rule: rule})
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		if ops[i].path != ops[j].path {
			return ops[i].path < ops[j].path
		}
		return ops[i].method < ops[j].method
	})

	rules := make([]model.RouteRule, 0, len(ops))
	for _, o := range ops {
		rules = append(rules, o.rule)
	}

	return model.VirtualHost{
		Name:    sanitizeName(domain),
		Domains: []string{domain},
		Routes:  rules,
	}, nil
}

func operationName(op *openapi3.Operation, method, path string) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	return method + " " + path
}

// validateOverrideAliases resolves every key in a route's override map
// against the filter registry's alias table, failing atomically with a
// remediation message if a global-only filter type name was used in
// route-override position.
func validateOverrideAliases(overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	agg := flowerrors.NewAggregate("x-flowplane-route-overrides")
	for alias := range overrides {
		if _, err := filterregistry.ResolveAlias(alias); err != nil {
			agg.AddError(err)
		}
	}
	return agg.Err()
}
