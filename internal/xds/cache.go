package xds

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	core "github.com/envoyproxy/go-control-plane/envoy/config/core/v3"
	"github.com/envoyproxy/go-control-plane/pkg/cache/types"
	cachev3 "github.com/envoyproxy/go-control-plane/pkg/cache/v3"
	"github.com/envoyproxy/go-control-plane/pkg/resource/v3"

	"github.com/flowplane/flowplane/internal/config"
	"github.com/flowplane/flowplane/internal/model"
	"github.com/flowplane/flowplane/internal/repository"
	"github.com/flowplane/flowplane/internal/xdsresource"
)

// Cache builds and publishes per-node xDS snapshots from repository state.
// It generalizes a one-cluster-per-service-with-a-prefix-catch-all-route
// builder to the full resource model, and from a fixed, config-enumerated
// node-ID list to whatever nodes have actually connected: node identity and
// team come from the ADS stream's Node message, not static config.
type Cache struct {
	snapshot cachev3.SnapshotCache
	repo     *repository.Repository
	cfg      *config.Config
	log      *slog.Logger

	mu      sync.Mutex
	known   map[string]*core.Node // NodeHash key -> last seen Node
	version uint64
}

// NewCache wires a fresh snapshot cache over repo. ads=false in
// NewSnapshotCache: flowplane resolves each node's cache key itself via
// NodeHash (cluster+id), rather than delegating to go-control-plane's
// ADS-mode node-ID hashing.
func NewCache(repo *repository.Repository, cfg *config.Config, log *slog.Logger) *Cache {
	return &Cache{
		snapshot: cachev3.NewSnapshotCache(false, NodeHash{}, logAdapter{log}),
		repo:     repo,
		cfg:      cfg,
		log:      log,
		known:    make(map[string]*core.Node),
	}
}

// SnapshotCache exposes the underlying go-control-plane cache for the ADS
// server to read from.
func (c *Cache) SnapshotCache() cachev3.SnapshotCache { return c.snapshot }

// Watch subscribes to every resource store's change events and rebuilds
// every known node's snapshot on each one. Runs until ctx is canceled.
func (c *Cache) Watch(ctx context.Context) {
	subs := []<-chan repository.ChangeEvent{
		c.repo.Clusters.Subscribe(),
		c.repo.Routes.Subscribe(),
		c.repo.Listeners.Subscribe(),
		c.repo.Secrets.Subscribe(),
	}
	for _, sub := range subs {
		sub := sub
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case ev, ok := <-sub:
					if !ok {
						return
					}
					if err := c.RebuildAll(ctx); err != nil {
						c.log.Error("failed to rebuild xDS snapshots",
							"error", err, "resource_type", ev.ResourceType, "name", ev.Name)
					}
				}
			}
		}()
	}
}

// RegisterNode records node as known (first contact from an ADS stream)
// and immediately publishes its current snapshot, so a newly connected
// data plane doesn't wait for the next repository mutation to receive
// state.
func (c *Cache) RegisterNode(ctx context.Context, node *core.Node) error {
	key := NodeHash{}.ID(node)
	if key == "" {
		return fmt.Errorf("node has no cluster/id identity")
	}
	c.mu.Lock()
	c.known[key] = node
	c.mu.Unlock()
	return c.rebuildNode(ctx, key, node)
}

// RebuildAll republishes every known node's snapshot from current
// repository state.
func (c *Cache) RebuildAll(ctx context.Context) error {
	c.mu.Lock()
	nodes := make(map[string]*core.Node, len(c.known))
	for k, n := range c.known {
		nodes[k] = n
	}
	c.mu.Unlock()

	for key, node := range nodes {
		if err := c.rebuildNode(ctx, key, node); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) rebuildNode(ctx context.Context, key string, node *core.Node) error {
	team := nodeTeam(node)
	snap, err := c.build(team)
	if err != nil {
		return fmt.Errorf("building snapshot for node %q: %w", key, err)
	}
	if err := c.snapshot.SetSnapshot(ctx, key, snap); err != nil {
		return fmt.Errorf("setting snapshot for node %q: %w", key, err)
	}
	c.log.Info("published xDS snapshot", "node", key, "team", team, "version", c.version)
	return nil
}

// build assembles one atomic, consistency-checked snapshot scoped to team
// plus the shared-gateway team, in
// dependency order: secrets and endpoints before the clusters/routes that
// reference them, clusters/routes before the listeners that reference
// them.
func (c *Cache) build(team string) (*cachev3.Snapshot, error) {
	teams := c.scopeTeams(team)

	clusters := c.listClusters(teams)
	routes := c.listRoutes(teams)
	listeners := c.listListeners(teams)
	secrets := c.listSecrets(teams)

	var clusterResources, endpointResources, routeResources, listenerResources, secretResources []types.Resource

	for _, cl := range clusters {
		built, err := xdsresource.BuildCluster(cl)
		if err != nil {
			return nil, fmt.Errorf("cluster %q: %w", cl.Name, err)
		}
		clusterResources = append(clusterResources, built)
		if cl.UseEDS {
			endpointResources = append(endpointResources, xdsresource.BuildClusterLoadAssignment(cl))
		}
	}

	for _, rc := range routes {
		built, err := xdsresource.BuildRouteConfiguration(rc)
		if err != nil {
			return nil, fmt.Errorf("route configuration %q: %w", rc.Name, err)
		}
		routeResources = append(routeResources, built)
	}

	for _, l := range listeners {
		built, err := xdsresource.BuildListener(l)
		if err != nil {
			return nil, fmt.Errorf("listener %q: %w", l.Name, err)
		}
		listenerResources = append(listenerResources, built)
	}

	for _, s := range secrets {
		built, err := xdsresource.BuildSecret(s)
		if err != nil {
			return nil, fmt.Errorf("secret %q: %w", s.Name, err)
		}
		secretResources = append(secretResources, built)
	}

	versionStr := c.nextVersion()
	snap, err := cachev3.NewSnapshot(versionStr, map[resource.Type][]types.Resource{
		resource.SecretType:   secretResources,
		resource.EndpointType: endpointResources,
		resource.ClusterType:  clusterResources,
		resource.RouteType:    routeResources,
		resource.ListenerType: listenerResources,
	})
	if err != nil {
		return nil, fmt.Errorf("creating snapshot: %w", err)
	}
	if err := snap.Consistent(); err != nil {
		return nil, fmt.Errorf("snapshot consistency check failed: %w", err)
	}
	return snap, nil
}

// nextVersion returns a strictly increasing version string. The underlying
// NewSnapshot helper assigns one version to the entire multi-type snapshot
// rather than tracking a version per
// resource type independently, so a single monotonic counter per cache
// (not per type) is what that constructor can express.
func (c *Cache) nextVersion() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := uint64(time.Now().UnixNano())
	if now > c.version {
		c.version = now
	} else {
		c.version++
	}
	return fmt.Sprintf("%d", c.version)
}

// scopeTeams returns the distinct teams whose resources are visible to a
// node tagged with team: itself, plus the shared-gateway team if
// configured and different.
func (c *Cache) scopeTeams(team string) []string {
	seen := make(map[string]bool, 2)
	var out []string
	add := func(t string) {
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	}
	add(team)
	add(c.cfg.SharedTeam)
	return out
}

func (c *Cache) listClusters(teams []string) []model.Cluster {
	var out []model.Cluster
	for _, t := range teams {
		out = append(out, c.repo.Clusters.List(t, 0, 0)...)
	}
	return out
}

func (c *Cache) listRoutes(teams []string) []model.RouteConfiguration {
	var out []model.RouteConfiguration
	for _, t := range teams {
		out = append(out, c.repo.Routes.List(t, 0, 0)...)
	}
	return out
}

func (c *Cache) listListeners(teams []string) []model.Listener {
	var out []model.Listener
	for _, t := range teams {
		out = append(out, c.repo.Listeners.List(t, 0, 0)...)
	}
	return out
}

func (c *Cache) listSecrets(teams []string) []model.Secret {
	var out []model.Secret
	for _, t := range teams {
		out = append(out, c.repo.Secrets.List(t, 0, 0)...)
	}
	return out
}

// logAdapter bridges slog.Logger to go-control-plane's internal log.Logger
// interface (Debugf/Infof/Warnf/Errorf) so flowplane wires its own slog
// instance through instead of accepting go-control-plane's default stdlib
// logger.
type logAdapter struct{ log *slog.Logger }

func (l logAdapter) Debugf(format string, args ...interface{}) { l.log.Debug(fmt.Sprintf(format, args...)) }
func (l logAdapter) Infof(format string, args ...interface{})  { l.log.Info(fmt.Sprintf(format, args...)) }
func (l logAdapter) Warnf(format string, args ...interface{})  { l.log.Warn(fmt.Sprintf(format, args...)) }
func (l logAdapter) Errorf(format string, args ...interface{}) { l.log.Error(fmt.Sprintf(format, args...)) }
