package repository

import (
	"log/slog"

	"github.com/flowplane/flowplane/internal/flowerrors"
	"github.com/flowplane/flowplane/internal/model"
)

func clusterEnvelope(c model.Cluster) model.Envelope { return c.Envelope }

func clusterWithEnvelope(c model.Cluster, env model.Envelope) model.Cluster {
	c.Envelope = env
	return c
}

// ClusterRepository wraps a Store[model.Cluster] with a referential
// integrity check: a cluster still referenced by a route configuration
// cannot be deleted.
type ClusterRepository struct {
	store  *Store[model.Cluster]
	routes *RouteRepository
}

// NewClusterRepository constructs the cluster store. routes is wired in
// after construction via SetRoutes, since RouteRepository itself references
// ClusterRepository to validate forward targets — see New.
func NewClusterRepository(log *slog.Logger) *ClusterRepository {
	return &ClusterRepository{
		store: NewStore(model.ResourceCluster, log, clusterEnvelope, clusterWithEnvelope),
	}
}

// SetRoutes completes the two-way wiring between clusters and routes.
func (r *ClusterRepository) SetRoutes(routes *RouteRepository) { r.routes = routes }

func (r *ClusterRepository) Create(c model.Cluster) (model.Cluster, error) { return r.store.Create(c) }
func (r *ClusterRepository) Get(name string) (model.Cluster, error)       { return r.store.Get(name) }
func (r *ClusterRepository) Exists(name string) bool                      { return r.store.Exists(name) }
func (r *ClusterRepository) List(team string, limit, offset int) []model.Cluster {
	return r.store.List(team, limit, offset)
}
func (r *ClusterRepository) Update(c model.Cluster, expectedVersion uint64) (model.Cluster, error) {
	return r.store.Update(c, expectedVersion)
}

// Delete fails with a ConflictError listing every route configuration that
// still forwards to name.
func (r *ClusterRepository) Delete(name string) error {
	if r.routes != nil {
		if referents := r.routes.referencingCluster(name); len(referents) > 0 {
			return flowerrors.Conflict("cluster %q is referenced by route configuration(s) %v", name, referents)
		}
	}
	return r.store.Delete(name)
}

func (r *ClusterRepository) Subscribe() <-chan ChangeEvent { return r.store.Subscribe() }
