package xds

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"

	resource "github.com/envoyproxy/go-control-plane/pkg/resource/v3"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/flowplane/flowplane/internal/config"
	"github.com/flowplane/flowplane/internal/model"
	"github.com/flowplane/flowplane/internal/repository"
)

func resourceNames[T any](resources map[string]T) []string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func newTestRepoWithClusters(t *testing.T) *repository.Repository {
	t.Helper()
	repo := repository.New(testLogger())
	_, err := repo.Clusters.Create(model.Cluster{
		Envelope:         model.Envelope{Name: "checkout-cluster", Team: "checkout"},
		Endpoints:        []model.Endpoint{{Host: "checkout.svc", Port: 8080}},
		ConnectTimeoutMs: 1000,
		LBPolicy:         model.LBRoundRobin,
	})
	require.NoError(t, err)
	_, err = repo.Clusters.Create(model.Cluster{
		Envelope:         model.Envelope{Name: "shared-admin-cluster", Team: "shared"},
		Endpoints:        []model.Endpoint{{Host: "admin.svc", Port: 9901}},
		ConnectTimeoutMs: 1000,
		LBPolicy:         model.LBRoundRobin,
	})
	require.NoError(t, err)
	return repo
}

func TestScopeTeamsIncludesSharedTeam(t *testing.T) {
	c := &Cache{cfg: testConfig()}
	teams := c.scopeTeams("checkout")
	require.ElementsMatch(t, []string{"checkout", "shared"}, teams)
}

func TestScopeTeamsDedupsWhenTeamIsShared(t *testing.T) {
	c := &Cache{cfg: testConfig()}
	teams := c.scopeTeams("shared")
	require.Equal(t, []string{"shared"}, teams)
}

func TestBuildScopesResourcesToTeamAndShared(t *testing.T) {
	repo := newTestRepoWithClusters(t)
	cache := NewCache(repo, testConfig(), testLogger())

	snap, err := cache.build("checkout")
	require.NoError(t, err)
	require.NotNil(t, snap)

	got := resourceNames(snap.GetResources(resource.ClusterType))
	want := []string{"checkout-cluster", "shared-admin-cluster"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cluster resources scoped to team+shared differ (-want +got):\n%s", diff)
	}
}

func TestBuildExcludesOtherTeamsResources(t *testing.T) {
	repo := repository.New(testLogger())
	_, err := repo.Clusters.Create(model.Cluster{
		Envelope:         model.Envelope{Name: "payments-cluster", Team: "payments"},
		Endpoints:        []model.Endpoint{{Host: "payments.svc", Port: 8080}},
		ConnectTimeoutMs: 1000,
		LBPolicy:         model.LBRoundRobin,
	})
	require.NoError(t, err)

	cache := NewCache(repo, testConfig(), testLogger())
	clusters := cache.listClusters(cache.scopeTeams("checkout"))
	require.Empty(t, clusters)
}

func TestNextVersionIsMonotonic(t *testing.T) {
	cache := NewCache(repository.New(testLogger()), testConfig(), testLogger())
	v1 := cache.nextVersion()
	v2 := cache.nextVersion()
	require.NotEqual(t, v1, v2)
}

func TestRegisterNodePublishesSnapshotForNewNode(t *testing.T) {
	repo := newTestRepoWithClusters(t)
	cache := NewCache(repo, testConfig(), testLogger())

	node := testNode("checkout-gw", "envoy-1", "checkout")
	err := cache.RegisterNode(context.Background(), node)
	require.NoError(t, err)

	snap, err := cache.SnapshotCache().GetSnapshot(NodeHash{}.ID(node))
	require.NoError(t, err)
	require.NotNil(t, snap)
}

func TestRegisterNodeRejectsNodeWithoutIdentity(t *testing.T) {
	cache := NewCache(repository.New(testLogger()), testConfig(), testLogger())
	err := cache.RegisterNode(context.Background(), nil)
	require.Error(t, err)
}
