// Package platformcompiler turns an OpenAPI 3.x document plus Flowplane's
// vendor extensions into a Gateway Plan: the cluster, route, and listener
// create-requests a bulk import applies in one repository transaction.
package platformcompiler

import (
	"net/url"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/flowplane/flowplane/internal/filterregistry"
	"github.com/flowplane/flowplane/internal/flowerrors"
	"github.com/flowplane/flowplane/internal/model"
	"github.com/flowplane/flowplane/internal/repository"
)

// GatewayPlan is the Platform Compiler's output: the
// resources a bulk import will create, plus a human/audit-facing summary.
type GatewayPlan struct {
	Plan    repository.Plan
	Summary model.ImportRecord
}

// Options configures one compilation run. ClusterExists and PortTaken let
// the compiler check reuse/collision against live repository state without
// importing internal/repository's concrete types into its decision logic.
type Options struct {
	Team string

	// ListenerIsolation requests a dedicated listener on a hashed port.
	// When false, routes are left without a listener create-request — the
	// caller attaches the resulting route configuration to the team's
	// shared gateway listener separately.
	ListenerIsolation bool

	// ClusterExists reports whether a cluster with this content-addressed
	// name already exists, so re-imports reuse it instead of recreating
	// it.
	ClusterExists func(name string) bool

	// PortTaken reports whether a listener-isolation port is already bound
	// by another isolated listener.
	PortTaken func(port uint32) bool
}

// Compile runs the full §4.3 algorithm: parse and validate doc, decode the
// vendor extensions, build one cluster per distinct (host, port) server
// pair, one route rule per (path, method) operation, and — if requested —
// a dedicated listener. It fails atomically: any error returns a zero
// GatewayPlan, never a partially built one.
func Compile(doc *openapi3.T, opts Options) (GatewayPlan, error) {
	if err := doc.Validate(openapi3.NewLoader().Context); err != nil {
		return GatewayPlan{}, flowerrors.Configuration("invalid OpenAPI document: %v", err)
	}

	domain, err := primaryDomain(doc)
	if err != nil {
		return GatewayPlan{}, err
	}

	clusters, clusterByHostPort, err := compileClusters(doc, opts)
	if err != nil {
		return GatewayPlan{}, err
	}

	globals, err := globalFilters(doc)
	if err != nil {
		return GatewayPlan{}, err
	}
	httpFilters, err := buildHTTPFilterChain(globals)
	if err != nil {
		return GatewayPlan{}, err
	}

	routeName := routeConfigName(domain)
	virtualHost, err := compileVirtualHost(doc, domain, clusterByHostPort)
	if err != nil {
		return GatewayPlan{}, err
	}
	virtualHost.PerFilterConfig = vhostScopedOverrides(globals)

	plan := GatewayPlan{
		Plan: repository.Plan{
			Clusters: clusters,
			Routes: []model.RouteConfiguration{{
				Envelope:     model.Envelope{Name: routeName, Team: opts.Team},
				VirtualHosts: []model.VirtualHost{virtualHost},
			}},
		},
		Summary: model.ImportRecord{
			SpecName:    doc.Info.Title,
			SpecVersion: doc.Info.Version,
			Team:        opts.Team,
			RouteNames:  []string{routeName},
		},
	}
	seenCluster := make(map[string]bool, len(clusterByHostPort))
	for _, name := range clusterByHostPort {
		if !seenCluster[name] {
			seenCluster[name] = true
			plan.Summary.ClusterNames = append(plan.Summary.ClusterNames, name)
		}
	}
	sort.Strings(plan.Summary.ClusterNames)

	if opts.ListenerIsolation {
		listener, port, err := compileIsolatedListener(domain, routeName, httpFilters, opts)
		if err != nil {
			return GatewayPlan{}, err
		}
		plan.Plan.Listeners = []model.Listener{listener}
		plan.Summary.ListenerNames = []string{listener.Name}
		plan.Summary.ListenerPort = port
		plan.Summary.ListenerIsolated = true
	}

	return plan, nil
}

func primaryDomain(doc *openapi3.T) (string, error) {
	if len(doc.Servers) == 0 {
		return "", flowerrors.Configuration("OpenAPI document has no servers entry to derive a domain from")
	}
	u, err := url.Parse(doc.Servers[0].URL)
	if err != nil || u.Hostname() == "" {
		return "", flowerrors.Configuration("server URL %q is not a valid URL", doc.Servers[0].URL)
	}
	return u.Hostname(), nil
}

func routeConfigName(domain string) string {
	return sanitizeName(domain) + "-routes"
}

func listenerName(domain string) string {
	return sanitizeName(domain) + "-listener"
}

func sanitizeName(s string) string {
	return strings.NewReplacer(".", "-", ":", "-", "/", "-").Replace(strings.ToLower(s))
}

func buildHTTPFilterChain(globals []globalFilterSpec) ([]model.HTTPFilterInstance, error) {
	out := make([]model.HTTPFilterInstance, 0, len(globals)+1)
	for _, g := range globals {
		kind := filterregistry.Kind(g.Kind)
		if filterregistry.CanonicalName(kind) == "" {
			return nil, flowerrors.Validation("x-flowplane-filters", "unknown filter kind %q", g.Kind)
		}
		out = append(out, model.HTTPFilterInstance{
			Name:   filterregistry.CanonicalName(kind),
			Kind:   g.Kind,
			Config: g.Config,
		})
	}
	out = append(out, model.HTTPFilterInstance{
		Name: filterregistry.CanonicalName(filterregistry.KindRouter),
		Kind: string(filterregistry.KindRouter),
	})
	return out, nil
}

func compileIsolatedListener(domain, routeName string, httpFilters []model.HTTPFilterInstance, opts Options) (model.Listener, uint32, error) {
	taken := opts.PortTaken
	if taken == nil {
		taken = func(uint32) bool { return false }
	}
	port, err := AllocatePort(domain, taken)
	if err != nil {
		return model.Listener{}, 0, flowerrors.Internal(err, "listener-isolation port allocation failed for domain %q", domain)
	}
	listener := model.Listener{
		Envelope: model.Envelope{Name: listenerName(domain), Team: opts.Team},
		Address:  "0.0.0.0",
		Port:     port,
		Protocol: model.ProtocolHTTP,
		FilterChains: []model.FilterChain{{
			HCM: model.HTTPConnectionManager{
				StatPrefix:      sanitizeName(domain),
				RouteConfigName: routeName,
				HTTPFilters:     httpFilters,
			},
		}},
	}
	return listener, port, nil
}
