package repository

import "log/slog"

// Repository is the full set of resource stores, cross-wired so each type's
// referential-integrity checks can see the others. It is the
// single object cmd/flowplane constructs and hands to the admin API, the
// Platform Compiler, and the xDS cache.
type Repository struct {
	Clusters  *ClusterRepository
	Routes    *RouteRepository
	Listeners *ListenerRepository
	Secrets   *SecretRepository

	log *slog.Logger
}

// New constructs every resource store and wires the bidirectional
// referential-integrity links between them.
func New(log *slog.Logger) *Repository {
	r := &Repository{
		Clusters:  NewClusterRepository(log),
		Routes:    NewRouteRepository(log),
		Listeners: NewListenerRepository(log),
		Secrets:   NewSecretRepository(log),
		log:       log,
	}
	r.Clusters.SetRoutes(r.Routes)
	r.Routes.SetClusters(r.Clusters)
	r.Routes.SetListeners(r.Listeners)
	r.Listeners.SetRoutes(r.Routes)
	r.Listeners.SetSecrets(r.Secrets)
	r.Secrets.SetListeners(r.Listeners)
	return r
}
