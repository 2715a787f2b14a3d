package repository

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowplane/flowplane/internal/model"
)

func testRepository() *Repository {
	return New(testLogger())
}

func TestClusterDeleteBlockedByReferencingRoute(t *testing.T) {
	r := testRepository()
	_, err := r.Clusters.Create(model.Cluster{
		Envelope:  model.Envelope{Name: "users-svc", Team: "t"},
		Endpoints: []model.Endpoint{{Host: "10.0.0.1", Port: 8080}},
		LBPolicy:  model.LBRoundRobin,
	})
	require.NoError(t, err)

	_, err = r.Routes.Create(model.RouteConfiguration{
		Envelope: model.Envelope{Name: "users-route", Team: "t"},
		VirtualHosts: []model.VirtualHost{{
			Name:    "default",
			Domains: []string{"*"},
			Routes: []model.RouteRule{{
				Match:  model.RouteMatch{Path: model.PathMatch{Kind: model.PathPrefix, Value: "/users"}},
				Action: model.RouteAction{Kind: model.ActionForward, Cluster: "users-svc"},
			}},
		}},
	})
	require.NoError(t, err)

	err = r.Clusters.Delete("users-svc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "users-route")

	_, err = r.Clusters.Get("users-svc")
	require.NoError(t, err, "cluster must remain intact after the blocked delete")
}

func TestRouteCreateRejectsUnknownCluster(t *testing.T) {
	r := testRepository()
	_, err := r.Routes.Create(model.RouteConfiguration{
		Envelope: model.Envelope{Name: "users-route", Team: "t"},
		VirtualHosts: []model.VirtualHost{{
			Name:    "default",
			Domains: []string{"*"},
			Routes: []model.RouteRule{{
				Action: model.RouteAction{Kind: model.ActionForward, Cluster: "does-not-exist"},
			}},
		}},
	})
	require.Error(t, err)
}

func createTwoClusters(t *testing.T, r *Repository) {
	t.Helper()
	_, err := r.Clusters.Create(model.Cluster{
		Envelope:  model.Envelope{Name: "canary", Team: "t"},
		Endpoints: []model.Endpoint{{Host: "10.0.0.1", Port: 8080}},
		LBPolicy:  model.LBRoundRobin,
	})
	require.NoError(t, err)
	_, err = r.Clusters.Create(model.Cluster{
		Envelope:  model.Envelope{Name: "stable", Team: "t"},
		Endpoints: []model.Endpoint{{Host: "10.0.0.2", Port: 8080}},
		LBPolicy:  model.LBRoundRobin,
	})
	require.NoError(t, err)
}

func weightedRoute(totalWeight uint32, weights ...uint32) model.RouteConfiguration {
	names := []string{"canary", "stable"}
	var clusters []model.WeightedCluster
	for i, w := range weights {
		clusters = append(clusters, model.WeightedCluster{Cluster: names[i], Weight: w})
	}
	return model.RouteConfiguration{
		Envelope: model.Envelope{Name: "split-route", Team: "t"},
		VirtualHosts: []model.VirtualHost{{
			Name:    "default",
			Domains: []string{"*"},
			Routes: []model.RouteRule{{
				Name:  "split",
				Match: model.RouteMatch{Path: model.PathMatch{Kind: model.PathPrefix, Value: "/"}},
				Action: model.RouteAction{
					Kind:             model.ActionWeighted,
					WeightedClusters: clusters,
					TotalWeight:      totalWeight,
				},
			}},
		}},
	}
}

func TestRouteCreateRejectsMismatchedWeightedClusterWeights(t *testing.T) {
	r := testRepository()
	createTwoClusters(t, r)

	_, err := r.Routes.Create(weightedRoute(100, 60, 30))
	require.Error(t, err)
	require.Contains(t, err.Error(), "totalWeight")
}

func TestRouteCreateAcceptsMatchingWeightedClusterWeights(t *testing.T) {
	r := testRepository()
	createTwoClusters(t, r)

	_, err := r.Routes.Create(weightedRoute(100, 60, 40))
	require.NoError(t, err)
}

func TestRouteUpdateRejectsMismatchedWeightedClusterWeights(t *testing.T) {
	r := testRepository()
	createTwoClusters(t, r)

	created, err := r.Routes.Create(weightedRoute(100, 60, 40))
	require.NoError(t, err)

	stale := weightedRoute(100, 60, 30)
	stale.Envelope = created.Envelope
	_, err = r.Routes.Update(stale, created.Version)
	require.Error(t, err)
	require.Contains(t, err.Error(), "totalWeight")
}

func TestListenerDeleteHasNoReferentsCheck(t *testing.T) {
	r := testRepository()
	_, err := r.Listeners.Create(model.Listener{
		Envelope: model.Envelope{Name: "edge", Team: "t"},
		Address:  "0.0.0.0",
		Port:     10000,
		Protocol: model.ProtocolHTTP,
		FilterChains: []model.FilterChain{{
			HCM: model.HTTPConnectionManager{
				HTTPFilters: []model.HTTPFilterInstance{{Name: "envoy.filters.http.router", Kind: "router"}},
			},
		}},
	})
	require.NoError(t, err)
	require.NoError(t, r.Listeners.Delete("edge"))
}

func TestSecretDeleteBlockedByReferencingListener(t *testing.T) {
	r := testRepository()
	_, err := r.Secrets.Create(model.Secret{
		Envelope: model.Envelope{Name: "edge-cert", Team: "t"},
		Kind:     model.SecretServerCert,
	})
	require.NoError(t, err)

	_, err = r.Listeners.Create(model.Listener{
		Envelope: model.Envelope{Name: "edge", Team: "t"},
		Address:  "0.0.0.0",
		Port:     10000,
		Protocol: model.ProtocolHTTP,
		FilterChains: []model.FilterChain{{
			TLS: &model.DownstreamTLS{CertSecretName: "edge-cert"},
			HCM: model.HTTPConnectionManager{
				HTTPFilters: []model.HTTPFilterInstance{{Name: "envoy.filters.http.router", Kind: "router"}},
			},
		}},
	})
	require.NoError(t, err)

	err = r.Secrets.Delete("edge-cert")
	require.Error(t, err)
	require.Contains(t, err.Error(), "edge")
}

func TestApplyPlanCommitsAllOnSuccess(t *testing.T) {
	r := testRepository()
	plan := Plan{
		Clusters: []model.Cluster{{
			Envelope:  model.Envelope{Name: "users-svc", Team: "t"},
			Endpoints: []model.Endpoint{{Host: "10.0.0.1", Port: 8080}},
			LBPolicy:  model.LBRoundRobin,
		}},
		Routes: []model.RouteConfiguration{{
			Envelope: model.Envelope{Name: "users-route", Team: "t"},
			VirtualHosts: []model.VirtualHost{{
				Name:    "default",
				Domains: []string{"*"},
				Routes: []model.RouteRule{{
					Action: model.RouteAction{Kind: model.ActionForward, Cluster: "users-svc"},
				}},
			}},
		}},
	}

	require.NoError(t, r.ApplyPlan(plan))
	require.True(t, r.Clusters.Exists("users-svc"))
	require.True(t, r.Routes.Exists("users-route"))
}

func TestApplyPlanRollsBackEveryResourceOnFailure(t *testing.T) {
	r := testRepository()
	plan := Plan{
		Clusters: []model.Cluster{{
			Envelope:  model.Envelope{Name: "users-svc", Team: "t"},
			Endpoints: []model.Endpoint{{Host: "10.0.0.1", Port: 8080}},
			LBPolicy:  model.LBRoundRobin,
		}},
		Routes: []model.RouteConfiguration{{
			Envelope: model.Envelope{Name: "users-route", Team: "t"},
			VirtualHosts: []model.VirtualHost{{
				Name:    "default",
				Domains: []string{"*"},
				Routes: []model.RouteRule{{
					Action: model.RouteAction{Kind: model.ActionForward, Cluster: "ghost-svc"},
				}},
			}},
		}},
	}

	err := r.ApplyPlan(plan)
	require.Error(t, err)
	require.False(t, r.Clusters.Exists("users-svc"), "validation failure must leave no partial state")
	require.False(t, r.Routes.Exists("users-route"))
}
