package xdsresource

import (
	"testing"

	routev3 "github.com/envoyproxy/go-control-plane/envoy/config/route/v3"
	"github.com/stretchr/testify/require"

	"github.com/flowplane/flowplane/internal/model"
)

func TestBuildRouteConfigurationForwardsToCluster(t *testing.T) {
	rc := model.RouteConfiguration{
		Envelope: model.Envelope{Name: "users-routes", Team: "checkout"},
		VirtualHosts: []model.VirtualHost{{
			Name:    "users",
			Domains: []string{"users.example.com"},
			Routes: []model.RouteRule{{
				Name:  "get-user",
				Match: model.RouteMatch{Path: model.PathMatch{Kind: model.PathExact, Value: "/users/1"}},
				Action: model.RouteAction{
					Kind:    model.ActionForward,
					Cluster: "users-cluster",
				},
			}},
		}},
	}

	built, err := BuildRouteConfiguration(rc)
	require.NoError(t, err)
	require.Len(t, built.VirtualHosts, 1)
	vh := built.VirtualHosts[0]
	require.Equal(t, []string{"users.example.com"}, vh.Domains)
	require.Len(t, vh.Routes, 1)

	action, ok := vh.Routes[0].Action.(*routev3.Route_Route)
	require.True(t, ok)
	require.Equal(t, "users-cluster", action.Route.GetCluster())
}

func TestBuildRouteMatchTemplateCompilesToAnchoredRegex(t *testing.T) {
	m, err := buildRouteMatch(model.RouteMatch{
		Path: model.PathMatch{Kind: model.PathTemplate, Value: "/users/{id}/orders/{orderId}"},
	})
	require.NoError(t, err)
	regex := m.GetSafeRegex()
	require.NotNil(t, regex)
	require.Equal(t, `^/users/[^/]+/orders/[^/]+$`, regex.Regex)
}

func TestTemplateToRegexEscapesLiteralSegments(t *testing.T) {
	require.Equal(t, `^/v1\.0/widgets/[^/]+$`, templateToRegex("/v1.0/widgets/{id}"))
}

func TestBuildRouteRejectsUnknownActionKind(t *testing.T) {
	_, err := buildRoute(model.RouteRule{
		Match:  model.RouteMatch{Path: model.PathMatch{Kind: model.PathPrefix, Value: "/"}},
		Action: model.RouteAction{Kind: "bogus"},
	})
	require.Error(t, err)
}

func TestBuildWeightedActionDistributesClusters(t *testing.T) {
	ra := buildWeightedAction(model.RouteAction{
		Kind:        model.ActionWeighted,
		TotalWeight: 100,
		WeightedClusters: []model.WeightedCluster{
			{Cluster: "v1", Weight: 80},
			{Cluster: "v2", Weight: 20},
		},
	})
	wc := ra.GetWeightedClusters()
	require.NotNil(t, wc)
	require.Len(t, wc.Clusters, 2)
	require.Equal(t, uint32(80), wc.Clusters[0].Weight.GetValue())
}

func TestBuildRedirectActionMapsResponseCodes(t *testing.T) {
	r := buildRedirectAction(model.RouteAction{RedirectHost: "new.example.com", RedirectResponseCode: 302})
	require.Equal(t, routev3.RedirectAction_FOUND, r.ResponseCode)

	def := buildRedirectAction(model.RouteAction{RedirectHost: "new.example.com"})
	require.Equal(t, routev3.RedirectAction_MOVED_PERMANENTLY, def.ResponseCode)
}

func TestBuildForwardActionAppliesTimeoutAndRetry(t *testing.T) {
	ra, err := buildForwardAction(model.RouteAction{
		Cluster:   "users-cluster",
		TimeoutMs: 2500,
		Retry: &model.RetryPolicy{
			RetryOn:       "5xx",
			NumRetries:    3,
			PerTryTimeout: 500,
		},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2500), ra.Timeout.AsDuration().Milliseconds())
	require.Equal(t, "5xx", ra.RetryPolicy.RetryOn)
	require.Equal(t, uint32(3), ra.RetryPolicy.NumRetries.GetValue())
}

func TestBuildForwardActionRejectsMissingCluster(t *testing.T) {
	_, err := buildForwardAction(model.RouteAction{})
	require.Error(t, err)
}

func TestBuildRouteAppliesPerFilterConfigDisableMarker(t *testing.T) {
	built, err := buildRoute(model.RouteRule{
		Name:  "checkout",
		Match: model.RouteMatch{Path: model.PathMatch{Kind: model.PathPrefix, Value: "/checkout"}},
		Action: model.RouteAction{
			Kind:    model.ActionForward,
			Cluster: "checkout-cluster",
		},
		PerFilterConfig: map[string]any{"authn": "disabled"},
	})
	require.NoError(t, err)
	require.Contains(t, built.TypedPerFilterConfig, "envoy.filters.http.jwt_authn")
}
