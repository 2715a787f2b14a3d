package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/flowplane/flowplane/internal/model"
)

const testOpenAPISpec = `{
  "openapi": "3.0.3",
  "info": {"title": "Users API", "version": "1.0.0"},
  "servers": [{"url": "https://users.example.com"}],
  "paths": {
    "/users": {
      "get": {
        "operationId": "listUsers",
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func postOpenAPI(t *testing.T, h http.Handler, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestImportOpenAPIRequiresTeam(t *testing.T) {
	s := newTestServer(t)
	rec := postOpenAPI(t, s.Router(), "/api/v1/api-definitions/from-openapi", "application/json", []byte(testOpenAPISpec))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportOpenAPIJSONCreatesResourcesAndRecord(t *testing.T) {
	s := newTestServer(t)
	rec := postOpenAPI(t, s.Router(), "/api/v1/api-definitions/from-openapi?team=checkout", "application/json", []byte(testOpenAPISpec))
	require.Equal(t, http.StatusCreated, rec.Code)

	var record model.ImportRecord
	decodeBody(t, rec, &record)
	require.NotEmpty(t, record.ID)
	require.Equal(t, "checkout", record.Team)
	require.True(t, record.ListenerIsolated)
	require.NotEmpty(t, record.ListenerNames)

	listRec := doJSON(t, s.Router(), http.MethodGet, "/api/v1/clusters?team=checkout", nil)
	var clusters []model.Cluster
	decodeBody(t, listRec, &clusters)
	require.NotEmpty(t, clusters)
}

func TestImportOpenAPIAcceptsYAMLBody(t *testing.T) {
	s := newTestServer(t)

	var generic any
	require.NoError(t, yaml.Unmarshal([]byte(testOpenAPISpec), &generic))
	yamlBody, err := yaml.Marshal(generic)
	require.NoError(t, err)

	rec := postOpenAPI(t, s.Router(), "/api/v1/api-definitions/from-openapi?team=checkout&listenerIsolation=false", "application/x-yaml", yamlBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	var record model.ImportRecord
	decodeBody(t, rec, &record)
	require.False(t, record.ListenerIsolated)
	require.Empty(t, record.ListenerNames)
}

func TestImportOpenAPIRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)
	rec := postOpenAPI(t, s.Router(), "/api/v1/api-definitions/from-openapi?team=checkout", "application/json", []byte("not json"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadBootstrapUnknownIDReturns404(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/api/v1/api-definitions/does-not-exist/bootstrap", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadBootstrapDefaultsToYAML(t *testing.T) {
	s := newTestServer(t)
	rec := postOpenAPI(t, s.Router(), "/api/v1/api-definitions/from-openapi?team=checkout", "application/json", []byte(testOpenAPISpec))
	require.Equal(t, http.StatusCreated, rec.Code)
	var record model.ImportRecord
	decodeBody(t, rec, &record)

	rec = doJSON(t, s.Router(), http.MethodGet, "/api/v1/api-definitions/"+record.ID+"/bootstrap", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/x-yaml", rec.Header().Get("Content-Type"))

	var generic map[string]interface{}
	require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &generic))
}

func TestDownloadBootstrapJSONFormat(t *testing.T) {
	s := newTestServer(t)
	rec := postOpenAPI(t, s.Router(), "/api/v1/api-definitions/from-openapi?team=checkout", "application/json", []byte(testOpenAPISpec))
	var record model.ImportRecord
	decodeBody(t, rec, &record)

	rec = doJSON(t, s.Router(), http.MethodGet, "/api/v1/api-definitions/"+record.ID+"/bootstrap?format=json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
