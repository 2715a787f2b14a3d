package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowplane/flowplane/internal/model"
)

func validCluster(team, name string) model.Cluster {
	return model.Cluster{
		Envelope: model.Envelope{Name: name, Team: team},
		Endpoints: []model.Endpoint{
			{Host: "10.0.0.1", Port: 8080},
		},
		ConnectTimeoutMs: 1000,
		LBPolicy:         model.LBRoundRobin,
	}
}

func TestCreateClusterThenGetRoundTrips(t *testing.T) {
	s := newTestServer(t)
	r := s.Router()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/clusters", validCluster("checkout", "checkout-cluster"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.Cluster
	decodeBody(t, rec, &created)
	require.Equal(t, "checkout-cluster", created.Name)
	require.Equal(t, uint64(1), created.Version)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/clusters/checkout-cluster", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateClusterRejectsInvalidBody(t *testing.T) {
	s := newTestServer(t)
	r := s.Router()

	bad := validCluster("checkout", "checkout-cluster")
	bad.Endpoints = nil
	rec := doJSON(t, r, http.MethodPost, "/api/v1/clusters", bad)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetClusterUnknownNameReturns404(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/api/v1/clusters/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateClusterRejectsStaleVersion(t *testing.T) {
	s := newTestServer(t)
	r := s.Router()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/clusters", validCluster("checkout", "checkout-cluster"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created model.Cluster
	decodeBody(t, rec, &created)

	stale := created
	stale.Version = 0
	stale.ConnectTimeoutMs = 2000
	rec = doJSON(t, r, http.MethodPut, "/api/v1/clusters/checkout-cluster", stale)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateClusterWithCorrectVersionSucceeds(t *testing.T) {
	s := newTestServer(t)
	r := s.Router()

	rec := doJSON(t, r, http.MethodPost, "/api/v1/clusters", validCluster("checkout", "checkout-cluster"))
	var created model.Cluster
	decodeBody(t, rec, &created)

	created.ConnectTimeoutMs = 2000
	rec = doJSON(t, r, http.MethodPut, "/api/v1/clusters/checkout-cluster", created)
	require.Equal(t, http.StatusOK, rec.Code)

	var updated model.Cluster
	decodeBody(t, rec, &updated)
	assert.Equal(t, uint64(2), updated.Version)
	assert.Equal(t, uint64(2000), updated.ConnectTimeoutMs)
}

func TestDeleteClusterRemovesIt(t *testing.T) {
	s := newTestServer(t)
	r := s.Router()

	doJSON(t, r, http.MethodPost, "/api/v1/clusters", validCluster("checkout", "checkout-cluster"))
	rec := doJSON(t, r, http.MethodDelete, "/api/v1/clusters/checkout-cluster", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/clusters/checkout-cluster", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteClusterBlockedByReferencingRoute(t *testing.T) {
	s := newTestServer(t)
	r := s.Router()

	doJSON(t, r, http.MethodPost, "/api/v1/clusters", validCluster("checkout", "checkout-cluster"))
	rc := validRouteConfiguration("checkout", "checkout-routes", "checkout-cluster")
	rec := doJSON(t, r, http.MethodPost, "/api/v1/routes", rc)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodDelete, "/api/v1/clusters/checkout-cluster", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestListClustersFiltersByTeam(t *testing.T) {
	s := newTestServer(t)
	r := s.Router()

	doJSON(t, r, http.MethodPost, "/api/v1/clusters", validCluster("checkout", "checkout-cluster"))
	doJSON(t, r, http.MethodPost, "/api/v1/clusters", validCluster("billing", "billing-cluster"))

	rec := doJSON(t, r, http.MethodGet, "/api/v1/clusters?team=checkout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []model.Cluster
	decodeBody(t, rec, &list)
	require.Len(t, list, 1)
	require.Equal(t, "checkout-cluster", list[0].Name)
}
