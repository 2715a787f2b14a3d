// Package repository is the in-process resource store behind every xDS
// type: clusters, routes, listeners, and secrets. A single-type,
// mutex-guarded registry is generalized to one generic store per resource
// type, adding optimistic concurrency and change events the xDS cache
// subscribes to for snapshot rebuilds.
package repository

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/flowplane/flowplane/internal/flowerrors"
	"github.com/flowplane/flowplane/internal/model"
)

// ChangeEvent is emitted after every successful mutation. Lost events are
// recoverable — the xDS cache can always re-read current repository state —
// so delivery is best-effort and
// the channel is buffered rather than synchronously fanned out.
type ChangeEvent struct {
	ResourceType model.ResourceType
	Name         string
	NewVersion   uint64
}

// changeBufferSize bounds how many events a slow subscriber can lag behind
// before events are dropped (recoverable via full resnapshot).
const changeBufferSize = 256

// Store is a thread-safe, in-memory, optimistically-versioned collection of
// one resource type (one map, one RWMutex, per-item versions, post-unlock
// callback firing), generalized from a single hardcoded type to any T.
// Since every resource type embeds
// model.Envelope differently, Store takes accessor functions rather than
// requiring T to satisfy a cross-package interface over unexported fields.
type Store[T any] struct {
	mu           sync.RWMutex
	items        map[string]T
	resourceType model.ResourceType
	log          *slog.Logger

	envelopeOf func(T) model.Envelope
	withEnv    func(T, model.Envelope) T

	subMu sync.Mutex
	subs  []chan ChangeEvent
}

// NewStore constructs an empty store for resourceType. envelopeOf reads a
// resource's identity/version fields; withEnv returns a copy of a resource
// with its envelope replaced — resource packages supply both alongside
// their type definition (see internal/model).
func NewStore[T any](resourceType model.ResourceType, log *slog.Logger, envelopeOf func(T) model.Envelope, withEnv func(T, model.Envelope) T) *Store[T] {
	return &Store[T]{
		items:        make(map[string]T),
		resourceType: resourceType,
		log:          log,
		envelopeOf:   envelopeOf,
		withEnv:      withEnv,
	}
}

// Subscribe returns a channel receiving this store's change events. The
// xDS cache calls this once per resource type at startup.
func (s *Store[T]) Subscribe() <-chan ChangeEvent {
	ch := make(chan ChangeEvent, changeBufferSize)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

// publish fires ev to every subscriber without blocking; a subscriber whose
// buffer is full drops the event rather than stalling the mutation that
// produced it.
func (s *Store[T]) publish(ev ChangeEvent) {
	s.subMu.Lock()
	subs := s.subs
	s.subMu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			s.log.Warn("dropped change event, subscriber buffer full",
				"resource_type", ev.ResourceType, "name", ev.Name)
		}
	}
}

// Create inserts a new resource. Create stamps Version=1 and the
// timestamps regardless of what the caller set on item's envelope.
func (s *Store[T]) Create(item T) (T, error) {
	var zero T
	env := s.envelopeOf(item)
	if env.Name == "" {
		return zero, flowerrors.Configuration("name is required")
	}

	s.mu.Lock()
	if _, exists := s.items[env.Name]; exists {
		s.mu.Unlock()
		return zero, flowerrors.Conflict("%s %q already exists", s.resourceType, env.Name)
	}

	now := time.Now()
	env.Version = 1
	env.CreatedAt = now
	env.UpdatedAt = now
	stamped := s.withEnv(item, env)
	s.items[env.Name] = stamped
	s.mu.Unlock()

	s.log.Info("resource created", "resource_type", s.resourceType, "name", env.Name, "version", env.Version)
	s.publish(ChangeEvent{ResourceType: s.resourceType, Name: env.Name, NewVersion: env.Version})
	return stamped, nil
}

// Get returns the resource by name.
func (s *Store[T]) Get(name string) (T, error) {
	var zero T
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[name]
	if !ok {
		return zero, flowerrors.NotFound("%s %q not found", s.resourceType, name)
	}
	return item, nil
}

// Exists reports whether name is present, without the NotFoundError
// overhead of Get — used by referential-integrity checks.
func (s *Store[T]) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.items[name]
	return ok
}

// List returns every resource optionally filtered by team, ordered by name,
// paginated by limit/offset"). A
// limit of 0 means unbounded.
func (s *Store[T]) List(team string, limit, offset int) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.items))
	for name, item := range s.items {
		if team != "" && s.envelopeOf(item).Team != team {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if offset > len(names) {
		offset = len(names)
	}
	names = names[offset:]
	if limit > 0 && limit < len(names) {
		names = names[:limit]
	}

	out := make([]T, 0, len(names))
	for _, name := range names {
		out = append(out, s.items[name])
	}
	return out
}

// Update replaces the resource named by newItem's envelope, enforcing
// optimistic concurrency against expectedVersion.
func (s *Store[T]) Update(newItem T, expectedVersion uint64) (T, error) {
	var zero T
	env := s.envelopeOf(newItem)
	if env.Name == "" {
		return zero, flowerrors.Configuration("name is required")
	}

	s.mu.Lock()
	current, exists := s.items[env.Name]
	if !exists {
		s.mu.Unlock()
		return zero, flowerrors.NotFound("%s %q not found", s.resourceType, env.Name)
	}
	currentEnv := s.envelopeOf(current)
	if currentEnv.Version != expectedVersion {
		s.mu.Unlock()
		return zero, flowerrors.Conflict("%s %q is at version %d, expected %d", s.resourceType, env.Name, currentEnv.Version, expectedVersion)
	}

	env.Version = currentEnv.Version + 1
	env.CreatedAt = currentEnv.CreatedAt
	env.UpdatedAt = time.Now()
	stamped := s.withEnv(newItem, env)
	s.items[env.Name] = stamped
	s.mu.Unlock()

	s.log.Info("resource updated", "resource_type", s.resourceType, "name", env.Name, "version", env.Version)
	s.publish(ChangeEvent{ResourceType: s.resourceType, Name: env.Name, NewVersion: env.Version})
	return stamped, nil
}

// Delete removes name unconditionally. Callers performing referential
// checks (cluster deletion blocked by referencing routes, etc.) must run
// them before calling Delete — the generic store has no knowledge of other
// resource types.
func (s *Store[T]) Delete(name string) error {
	s.mu.Lock()
	current, exists := s.items[name]
	if !exists {
		s.mu.Unlock()
		return flowerrors.NotFound("%s %q not found", s.resourceType, name)
	}
	version := s.envelopeOf(current).Version
	delete(s.items, name)
	s.mu.Unlock()

	s.log.Info("resource deleted", "resource_type", s.resourceType, "name", name)
	s.publish(ChangeEvent{ResourceType: s.resourceType, Name: name, NewVersion: version + 1})
	return nil
}

// snapshotAll returns a copy of every item without filtering, used by the
// referencing* lookups behind the Delete referential checks.
func (s *Store[T]) snapshotAll() map[string]T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]T, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out
}

// applyAll stores every (name, item) pair in items under one lock, without
// re-checking expected_version. Nothing in the package calls it: bulk
// import commits through each repository's Create (see commitPlan).
func (s *Store[T]) applyAll(items map[string]T) {
	s.mu.Lock()
	var events []ChangeEvent
	for name, item := range items {
		env := s.envelopeOf(item)
		s.items[name] = item
		events = append(events, ChangeEvent{ResourceType: s.resourceType, Name: name, NewVersion: env.Version})
	}
	s.mu.Unlock()
	for _, ev := range events {
		s.publish(ev)
	}
}

// removeAll deletes every name in names under one lock, without publishing
// change events. Nothing in the package calls it: a failed bulk import is
// rolled back through each repository's Delete (see checkCommitFailures).
func (s *Store[T]) removeAll(names []string) {
	s.mu.Lock()
	for _, name := range names {
		delete(s.items, name)
	}
	s.mu.Unlock()
}
