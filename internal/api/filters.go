package api

import (
	"net/http"

	"github.com/flowplane/flowplane/internal/filterregistry"
)

type filterKindResponse struct {
	Kind          string `json:"kind"`
	CanonicalName string `json:"canonicalName"`
}

// listFilterKinds exposes the closed set of HTTP filter kinds Flowplane
// understands, so an operator building a listener or route
// request by hand knows which "kind" values and aliases are valid without
// reading the source.
func (s *Server) listFilterKinds(w http.ResponseWriter, r *http.Request) {
	kinds := filterregistry.AllKinds()
	out := make([]filterKindResponse, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, filterKindResponse{
			Kind:          string(k),
			CanonicalName: filterregistry.CanonicalName(k),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
