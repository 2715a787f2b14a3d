package repository

import (
	"log/slog"

	"github.com/flowplane/flowplane/internal/flowerrors"
	"github.com/flowplane/flowplane/internal/model"
)

func secretEnvelope(s model.Secret) model.Envelope { return s.Envelope }

func secretWithEnvelope(s model.Secret, env model.Envelope) model.Secret {
	s.Envelope = env
	return s
}

// SecretRepository wraps a Store[model.Secret]. Secrets sit at the bottom
// of the dependency graph. Delete checks only listeners for referents; a
// cluster whose TLS caSecretName names the secret does not block deletion.
type SecretRepository struct {
	store     *Store[model.Secret]
	listeners *ListenerRepository
}

// NewSecretRepository constructs the secret store. listeners is wired in
// after construction — see New.
func NewSecretRepository(log *slog.Logger) *SecretRepository {
	return &SecretRepository{
		store: NewStore(model.ResourceSecret, log, secretEnvelope, secretWithEnvelope),
	}
}

func (r *SecretRepository) SetListeners(listeners *ListenerRepository) { r.listeners = listeners }

func (r *SecretRepository) Create(s model.Secret) (model.Secret, error) { return r.store.Create(s) }
func (r *SecretRepository) Get(name string) (model.Secret, error)      { return r.store.Get(name) }
func (r *SecretRepository) Exists(name string) bool                    { return r.store.Exists(name) }
func (r *SecretRepository) List(team string, limit, offset int) []model.Secret {
	return r.store.List(team, limit, offset)
}
func (r *SecretRepository) Update(s model.Secret, expectedVersion uint64) (model.Secret, error) {
	return r.store.Update(s, expectedVersion)
}

// Delete fails with a ConflictError listing every listener that still
// references name for downstream TLS.
func (r *SecretRepository) Delete(name string) error {
	if r.listeners != nil {
		if referents := r.listeners.referencingSecret(name); len(referents) > 0 {
			return flowerrors.Conflict("secret %q is referenced by listener(s) %v", name, referents)
		}
	}
	return r.store.Delete(name)
}

func (r *SecretRepository) Subscribe() <-chan ChangeEvent { return r.store.Subscribe() }
