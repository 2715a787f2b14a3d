package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowplane/flowplane/internal/model"
)

func (s *Server) listListeners(w http.ResponseWriter, r *http.Request) {
	team, limit, offset := parseListParams(r)
	writeJSON(w, http.StatusOK, s.repo.Listeners.List(team, limit, offset))
}

func (s *Server) getListener(w http.ResponseWriter, r *http.Request) {
	l, err := s.repo.Listeners.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) createListener(w http.ResponseWriter, r *http.Request) {
	var l model.Listener
	if err := decodeJSON(r, &l); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validate.Struct(l); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.repo.Listeners.Create(l)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateListener(w http.ResponseWriter, r *http.Request) {
	var l model.Listener
	if err := decodeJSON(r, &l); err != nil {
		s.writeError(w, r, err)
		return
	}
	l.Name = chi.URLParam(r, "name")
	if err := s.validate.Struct(l); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.repo.Listeners.Update(l, l.Version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteListener(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Listeners.Delete(chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
