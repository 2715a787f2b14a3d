package repository

import (
	"log/slog"

	"github.com/flowplane/flowplane/internal/flowerrors"
	"github.com/flowplane/flowplane/internal/model"
)

func routeEnvelope(rc model.RouteConfiguration) model.Envelope { return rc.Envelope }

func routeWithEnvelope(rc model.RouteConfiguration, env model.Envelope) model.RouteConfiguration {
	rc.Envelope = env
	return rc
}

// RouteRepository wraps a Store[model.RouteConfiguration]. It validates
// that every cluster a route forwards to exists,
// and is itself queried by ClusterRepository.Delete for the reverse
// direction.
type RouteRepository struct {
	store     *Store[model.RouteConfiguration]
	clusters  *ClusterRepository
	listeners *ListenerRepository
}

// NewRouteRepository constructs the route store. clusters/listeners are
// wired in after construction — see New.
func NewRouteRepository(log *slog.Logger) *RouteRepository {
	return &RouteRepository{
		store: NewStore(model.ResourceRoute, log, routeEnvelope, routeWithEnvelope),
	}
}

func (r *RouteRepository) SetClusters(c *ClusterRepository)   { r.clusters = c }
func (r *RouteRepository) SetListeners(l *ListenerRepository) { r.listeners = l }

func (r *RouteRepository) validateClusterRefs(rc model.RouteConfiguration) error {
	if r.clusters == nil {
		return nil
	}
	agg := flowerrors.NewAggregate("virtualHosts")
	for _, name := range rc.ReferencedClusters() {
		if !r.clusters.Exists(name) {
			agg.AddError(flowerrors.Reference("virtualHosts", "cluster %q does not exist", name))
		}
	}
	return agg.Err()
}

// validateWeightedClusters rejects any weighted route action whose member
// weights don't sum to TotalWeight — caught here instead of left for Envoy
// to NACK the route config at xDS delivery time.
func validateWeightedClusters(rc model.RouteConfiguration) error {
	agg := flowerrors.NewAggregate("virtualHosts")
	for _, vh := range rc.VirtualHosts {
		for _, rule := range vh.Routes {
			if rule.Action.Kind != model.ActionWeighted {
				continue
			}
			var sum uint32
			for _, wc := range rule.Action.WeightedClusters {
				sum += wc.Weight
			}
			agg.Add(sum == rule.Action.TotalWeight,
				"route %q: weighted cluster weights sum to %d, want totalWeight %d",
				rule.Name, sum, rule.Action.TotalWeight)
		}
	}
	return agg.Err()
}

// Create validates cluster references and weighted-cluster weights before
// inserting.
func (r *RouteRepository) Create(rc model.RouteConfiguration) (model.RouteConfiguration, error) {
	if err := validateWeightedClusters(rc); err != nil {
		return model.RouteConfiguration{}, err
	}
	if err := r.validateClusterRefs(rc); err != nil {
		return model.RouteConfiguration{}, err
	}
	return r.store.Create(rc)
}

func (r *RouteRepository) Get(name string) (model.RouteConfiguration, error) { return r.store.Get(name) }
func (r *RouteRepository) Exists(name string) bool                          { return r.store.Exists(name) }
func (r *RouteRepository) List(team string, limit, offset int) []model.RouteConfiguration {
	return r.store.List(team, limit, offset)
}

// Update validates cluster references and weighted-cluster weights before
// applying.
func (r *RouteRepository) Update(rc model.RouteConfiguration, expectedVersion uint64) (model.RouteConfiguration, error) {
	if err := validateWeightedClusters(rc); err != nil {
		return model.RouteConfiguration{}, err
	}
	if err := r.validateClusterRefs(rc); err != nil {
		return model.RouteConfiguration{}, err
	}
	return r.store.Update(rc, expectedVersion)
}

// Delete fails with a ConflictError listing every listener that still
// references name by route-config-name.
func (r *RouteRepository) Delete(name string) error {
	if r.listeners != nil {
		if referents := r.listeners.referencingRouteConfig(name); len(referents) > 0 {
			return flowerrors.Conflict("route configuration %q is referenced by listener(s) %v", name, referents)
		}
	}
	return r.store.Delete(name)
}

func (r *RouteRepository) Subscribe() <-chan ChangeEvent { return r.store.Subscribe() }

// referencingCluster returns every route configuration name that forwards
// to clusterName, used by ClusterRepository.Delete's referential check.
func (r *RouteRepository) referencingCluster(clusterName string) []string {
	var out []string
	for _, rc := range r.store.snapshotAll() {
		for _, ref := range rc.ReferencedClusters() {
			if ref == clusterName {
				out = append(out, rc.Name)
				break
			}
		}
	}
	return out
}
