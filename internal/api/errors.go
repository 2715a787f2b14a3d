package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/flowplane/flowplane/internal/flowerrors"
)

type errorResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// writeError maps err to flowerrors' HTTP status table. An
// internal error's cause is deliberately never included in the response
// body — only the status, a generic message and the request's correlation
// id reach the caller; the detail goes to the server log under that id.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())
	var fe *flowerrors.Error
	if errors.As(err, &fe) {
		if fe.Code == flowerrors.InternalError {
			s.log.Error("internal error", "path", r.URL.Path, "correlation_id", reqID, "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", CorrelationID: reqID})
			return
		}
		writeJSON(w, fe.HTTPStatus(), errorResponse{Error: fe.Error()})
		return
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error()})
		return
	}

	s.log.Error("unmapped error", "path", r.URL.Path, "correlation_id", reqID, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", CorrelationID: reqID})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return flowerrors.Configuration("invalid JSON body: %v", err)
	}
	return nil
}
