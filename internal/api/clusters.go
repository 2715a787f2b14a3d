package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/flowplane/flowplane/internal/model"
)

func (s *Server) listClusters(w http.ResponseWriter, r *http.Request) {
	team, limit, offset := parseListParams(r)
	writeJSON(w, http.StatusOK, s.repo.Clusters.List(team, limit, offset))
}

func (s *Server) getCluster(w http.ResponseWriter, r *http.Request) {
	c, err := s.repo.Clusters.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) createCluster(w http.ResponseWriter, r *http.Request) {
	var c model.Cluster
	if err := decodeJSON(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validate.Struct(c); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.repo.Clusters.Create(c)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateCluster(w http.ResponseWriter, r *http.Request) {
	var c model.Cluster
	if err := decodeJSON(r, &c); err != nil {
		s.writeError(w, r, err)
		return
	}
	c.Name = chi.URLParam(r, "name")
	if err := s.validate.Struct(c); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.repo.Clusters.Update(c, c.Version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteCluster(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Clusters.Delete(chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// defaultListLimit and maxListLimit bound the list query parameters: limit
// defaults to 50 and is capped at 500 regardless of what the caller asks
// for.
const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// parseListParams reads the team/limit/offset query parameters the
// list(team?, limit, offset) contract names. Unparseable limit/offset
// values fall back to their defaults rather than rejecting the request,
// since browsing a list is never destructive.
func parseListParams(r *http.Request) (team string, limit, offset int) {
	q := r.URL.Query()
	team = q.Get("team")

	limit = defaultListLimit
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	offset, _ = strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return team, limit, offset
}
