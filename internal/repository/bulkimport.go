package repository

import (
	"github.com/flowplane/flowplane/internal/flowerrors"
	"github.com/flowplane/flowplane/internal/model"
)

// Plan is the set of resources a bulk import wants to create in one
// transaction. Every name in Plan must be new — bulk import never updates
// an existing resource; re-running an import against unchanged clusters is
// handled by the Platform Compiler's content-addressed cluster reuse before
// the plan reaches here.
type Plan struct {
	Clusters  []model.Cluster
	Routes    []model.RouteConfiguration
	Listeners []model.Listener
	Secrets   []model.Secret
}

// ApplyPlan validates every resource in p against a snapshot of current
// state, then either commits all of them or none. On any validation
// failure, no resource is persisted and every duplicate-name or dangling
// reference is reported together.
func (r *Repository) ApplyPlan(p Plan) error {
	if err := r.validatePlan(p); err != nil {
		return err
	}

	created := r.commitPlan(p)
	return r.checkCommitFailures(p, created)
}

// validatePlan checks name uniqueness (against current state and within
// the plan itself) and that every reference the plan's own resources make
// either resolves against current state or is satisfied by another
// resource in the same plan.
func (r *Repository) validatePlan(p Plan) error {
	agg := flowerrors.NewAggregate("plan")

	clusterNames := map[string]bool{}
	for _, c := range p.Clusters {
		agg.Add(!r.Clusters.Exists(c.Name) && !clusterNames[c.Name], "cluster %q already exists", c.Name)
		clusterNames[c.Name] = true
	}

	secretNames := map[string]bool{}
	for _, s := range p.Secrets {
		agg.Add(!r.Secrets.Exists(s.Name) && !secretNames[s.Name], "secret %q already exists", s.Name)
		secretNames[s.Name] = true
	}

	routeNames := map[string]bool{}
	for _, rc := range p.Routes {
		agg.Add(!r.Routes.Exists(rc.Name) && !routeNames[rc.Name], "route configuration %q already exists", rc.Name)
		routeNames[rc.Name] = true
		for _, clusterRef := range rc.ReferencedClusters() {
			agg.Add(r.Clusters.Exists(clusterRef) || clusterNames[clusterRef], "route %q references unknown cluster %q", rc.Name, clusterRef)
		}
	}

	for _, l := range p.Listeners {
		agg.Add(!r.Listeners.Exists(l.Name), "listener %q already exists", l.Name)
		for _, routeRef := range l.ReferencedRouteConfigs() {
			agg.Add(r.Routes.Exists(routeRef) || routeNames[routeRef], "listener %q references unknown route configuration %q", l.Name, routeRef)
		}
		for _, secretRef := range l.ReferencedSecrets() {
			agg.Add(r.Secrets.Exists(secretRef) || secretNames[secretRef], "listener %q references unknown secret %q", l.Name, secretRef)
		}
	}

	return agg.Err()
}

// commitPlan stamps and inserts every resource via Store.Create. Partial
// success (some resources created before one unexpectedly fails, e.g. a
// name collision from a concurrent mutation racing the validation snapshot)
// is recorded in the returned committed set so checkCommitFailures can roll
// it back.
func (r *Repository) commitPlan(p Plan) *committed {
	c := &committed{}
	for _, secret := range p.Secrets {
		if created, err := r.Secrets.Create(secret); err == nil {
			c.secrets = append(c.secrets, created.Name)
		} else {
			c.firstErr = firstNonNil(c.firstErr, err)
		}
	}
	for _, cluster := range p.Clusters {
		if created, err := r.Clusters.Create(cluster); err == nil {
			c.clusters = append(c.clusters, created.Name)
		} else {
			c.firstErr = firstNonNil(c.firstErr, err)
		}
	}
	for _, route := range p.Routes {
		if created, err := r.Routes.Create(route); err == nil {
			c.routes = append(c.routes, created.Name)
		} else {
			c.firstErr = firstNonNil(c.firstErr, err)
		}
	}
	for _, listener := range p.Listeners {
		if created, err := r.Listeners.Create(listener); err == nil {
			c.listeners = append(c.listeners, created.Name)
		} else {
			c.firstErr = firstNonNil(c.firstErr, err)
		}
	}
	return c
}

// checkCommitFailures rolls back every resource commitPlan created if any
// single create failed, so an import either fully applies or rolls back
// every resource it touched.
func (r *Repository) checkCommitFailures(p Plan, c *committed) error {
	if c.firstErr == nil {
		return nil
	}
	for _, name := range c.listeners {
		_ = r.Listeners.Delete(name)
	}
	for _, name := range c.routes {
		_ = r.Routes.Delete(name)
	}
	for _, name := range c.clusters {
		_ = r.Clusters.Delete(name)
	}
	for _, name := range c.secrets {
		_ = r.Secrets.Delete(name)
	}
	return flowerrors.Internal(c.firstErr, "bulk import failed partway through; all %d created resources were rolled back",
		len(c.listeners)+len(c.routes)+len(c.clusters)+len(c.secrets))
}

type committed struct {
	clusters  []string
	routes    []string
	listeners []string
	secrets   []string
	firstErr  error
}

func firstNonNil(existing, candidate error) error {
	if existing != nil {
		return existing
	}
	return candidate
}
