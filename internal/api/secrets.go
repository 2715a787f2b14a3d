package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flowplane/flowplane/internal/model"
)

func (s *Server) listSecrets(w http.ResponseWriter, r *http.Request) {
	team, limit, offset := parseListParams(r)
	writeJSON(w, http.StatusOK, s.repo.Secrets.List(team, limit, offset))
}

func (s *Server) getSecret(w http.ResponseWriter, r *http.Request) {
	sec, err := s.repo.Secrets.Get(chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sec)
}

func (s *Server) createSecret(w http.ResponseWriter, r *http.Request) {
	var sec model.Secret
	if err := decodeJSON(r, &sec); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.validate.Struct(sec); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.repo.Secrets.Create(sec)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) updateSecret(w http.ResponseWriter, r *http.Request) {
	var sec model.Secret
	if err := decodeJSON(r, &sec); err != nil {
		s.writeError(w, r, err)
		return
	}
	sec.Name = chi.URLParam(r, "name")
	if err := s.validate.Struct(sec); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.repo.Secrets.Update(sec, sec.Version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteSecret(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Secrets.Delete(chi.URLParam(r, "name")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
