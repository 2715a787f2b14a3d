package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowplane/flowplane/internal/filterregistry"
)

func TestListFilterKindsReturnsEveryRegisteredKind(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/api/v1/filters", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []filterKindResponse
	decodeBody(t, rec, &out)
	require.Len(t, out, len(filterregistry.AllKinds()))

	var sawRouter bool
	for _, f := range out {
		if f.Kind == string(filterregistry.KindRouter) {
			sawRouter = true
			require.NotEmpty(t, f.CanonicalName)
		}
	}
	require.True(t, sawRouter)
}
