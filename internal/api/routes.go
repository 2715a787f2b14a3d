package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowplane/flowplane/internal/model"
)

func (s *Server) listRoutes(w http.ResponseWriter, r *http.Request) {
	team, limit, offset := parseListParams(r)
	writeJSON(w, http.StatusOK, s.repo.Routes.List(team, limit, offset))
}

func (s *Server) getRoute(w http.ResponseWriter, r *http.Request) {
	rc, err := s.repo.Routes.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rc)
}

func (s *Server) createRoute(w http.ResponseWriter, r *http.Request) {
	var rc model.RouteConfiguration
	if err := decodeJSON(r, &rc); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validate.Struct(rc); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.repo.Routes.Create(rc)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateRoute(w http.ResponseWriter, r *http.Request) {
	var rc model.RouteConfiguration
	if err := decodeJSON(r, &rc); err != nil {
		s.writeError(w, r, err)
		return
	}
	rc.Name = chi.URLParam(r, "name")
	if err := s.validate.Struct(rc); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.repo.Routes.Update(rc, rc.Version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteRoute(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Routes.Delete(chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
