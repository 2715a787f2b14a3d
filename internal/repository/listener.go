package repository

import (
	"log/slog"

	"github.com/flowplane/flowplane/internal/flowerrors"
	"github.com/flowplane/flowplane/internal/model"
)

func listenerEnvelope(l model.Listener) model.Envelope { return l.Envelope }

func listenerWithEnvelope(l model.Listener, env model.Envelope) model.Listener {
	l.Envelope = env
	return l
}

// ListenerRepository wraps a Store[model.Listener]. It validates that every
// route-config-by-name reference resolves to a known route configuration
// and every SDS reference resolves to a known secret.
type ListenerRepository struct {
	store   *Store[model.Listener]
	routes  *RouteRepository
	secrets *SecretRepository
}

// NewListenerRepository constructs the listener store. routes/secrets are
// wired in after construction — see New.
func NewListenerRepository(log *slog.Logger) *ListenerRepository {
	return &ListenerRepository{
		store: NewStore(model.ResourceListener, log, listenerEnvelope, listenerWithEnvelope),
	}
}

func (r *ListenerRepository) SetRoutes(routes *RouteRepository)   { r.routes = routes }
func (r *ListenerRepository) SetSecrets(secrets *SecretRepository) { r.secrets = secrets }

func (r *ListenerRepository) validateReferences(l model.Listener) error {
	agg := flowerrors.NewAggregate("filterChains")
	if r.routes != nil {
		for _, name := range l.ReferencedRouteConfigs() {
			if !r.routes.Exists(name) {
				agg.AddError(flowerrors.Reference("filterChains", "route configuration %q does not exist", name))
			}
		}
	}
	if r.secrets != nil {
		for _, name := range l.ReferencedSecrets() {
			if !r.secrets.Exists(name) {
				agg.AddError(flowerrors.Reference("filterChains", "secret %q does not exist", name))
			}
		}
	}
	return agg.Err()
}

// Create validates route-config and secret references before inserting.
func (r *ListenerRepository) Create(l model.Listener) (model.Listener, error) {
	if err := r.validateReferences(l); err != nil {
		return model.Listener{}, err
	}
	return r.store.Create(l)
}

func (r *ListenerRepository) Get(name string) (model.Listener, error) { return r.store.Get(name) }
func (r *ListenerRepository) Exists(name string) bool                 { return r.store.Exists(name) }
func (r *ListenerRepository) List(team string, limit, offset int) []model.Listener {
	return r.store.List(team, limit, offset)
}

// Update validates route-config and secret references before applying.
func (r *ListenerRepository) Update(l model.Listener, expectedVersion uint64) (model.Listener, error) {
	if err := r.validateReferences(l); err != nil {
		return model.Listener{}, err
	}
	return r.store.Update(l, expectedVersion)
}

// Delete removes name. Listeners are the top of the reference graph — no
// other resource type references a listener by name — so no referential
// check is needed here.
func (r *ListenerRepository) Delete(name string) error {
	return r.store.Delete(name)
}

func (r *ListenerRepository) Subscribe() <-chan ChangeEvent { return r.store.Subscribe() }

// referencingRouteConfig returns every listener name whose HCM references
// routeConfigName by name, used by RouteRepository.Delete's referential
// check.
func (r *ListenerRepository) referencingRouteConfig(routeConfigName string) []string {
	var out []string
	for _, l := range r.store.snapshotAll() {
		for _, ref := range l.ReferencedRouteConfigs() {
			if ref == routeConfigName {
				out = append(out, l.Name)
				break
			}
		}
	}
	return out
}

// referencingSecret returns every listener name whose filter chain TLS
// references secretName, used by SecretRepository.Delete's referential
// check.
func (r *ListenerRepository) referencingSecret(secretName string) []string {
	var out []string
	for _, l := range r.store.snapshotAll() {
		for _, ref := range l.ReferencedSecrets() {
			if ref == secretName {
				out = append(out, l.Name)
				break
			}
		}
	}
	return out
}
