package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/flowplane/flowplane/internal/bootstrap"
	"github.com/flowplane/flowplane/internal/flowerrors"
	"github.com/flowplane/flowplane/internal/platformcompiler"
)

// importOpenAPI implements POST /api/v1/api-definitions/from-openapi (spec
// §6): the body is an OpenAPI document, JSON or YAML by Content-Type, plus
// the team/listenerIsolation/port query parameters the Platform Compiler
// needs.
func (s *Server) importOpenAPI(w http.ResponseWriter, r *http.Request) {
	team := r.URL.Query().Get("team")
	if team == "" {
		s.writeError(w, r, flowerrors.Configuration("team query parameter is required"))
		return
	}
	listenerIsolation := true
	if v := r.URL.Query().Get("listenerIsolation"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			s.writeError(w, r, flowerrors.Configuration("listenerIsolation must be a boolean: %v", err))
			return
		}
		listenerIsolation = parsed
	}
	// The port query parameter is accepted for forward compatibility but
	// not honored: AllocatePort's port assignment is deterministic by
	// domain alone, so an explicit override
	// would break that guarantee for anyone relying on it.

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, r, flowerrors.Configuration("reading request body: %v", err))
		return
	}
	jsonBody, err := toJSONDocument(r.Header.Get("Content-Type"), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, err := openapi3.NewLoader().LoadFromData(jsonBody)
	if err != nil {
		s.writeError(w, r, flowerrors.Configuration("parsing OpenAPI document: %v", err))
		return
	}

	opts := platformcompiler.Options{
		Team:              team,
		ListenerIsolation: listenerIsolation,
		ClusterExists:     s.repo.Clusters.Exists,
		PortTaken:         s.listenerPortTaken,
	}
	plan, err := platformcompiler.Compile(doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.repo.ApplyPlan(plan.Plan); err != nil {
		s.writeError(w, r, err)
		return
	}

	record := plan.Summary
	record.ID = uuid.NewString()
	s.importMu.Lock()
	s.importRecords[record.ID] = record
	s.importMu.Unlock()

	s.log.Info("OpenAPI import applied", "id", record.ID, "team", team,
		"clusters", record.ClusterNames, "routes", record.RouteNames, "listeners", record.ListenerNames)
	writeJSON(w, http.StatusCreated, record)
}

// downloadBootstrap implements GET /api/v1/api-definitions/{id}/bootstrap:
// renders an Envoy bootstrap document for the team the named import
// belongs to.
func (s *Server) downloadBootstrap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.importMu.Lock()
	record, ok := s.importRecords[id]
	s.importMu.Unlock()
	if !ok {
		s.writeError(w, r, flowerrors.NotFound("api definition %q not found", id))
		return
	}

	format := bootstrap.FormatYAML
	if v := r.URL.Query().Get("format"); v != "" {
		format = bootstrap.Format(v)
	}

	out, err := bootstrap.Generate(s.cfg, record.Team, format, bootstrap.MTLS{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	contentType := "application/x-yaml"
	if format == bootstrap.FormatJSON {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(out)
}

// listenerPortTaken reports whether port is already bound by another
// listener across every team, the scope listener-isolation's port
// collision check needs.
func (s *Server) listenerPortTaken(port uint32) bool {
	for _, l := range s.repo.Listeners.List("", 0, 0) {
		if l.Port == port {
			return true
		}
	}
	return false
}

// toJSONDocument normalizes a request body to JSON bytes kin-openapi can
// load, converting a YAML body first — OpenAPI import additionally accepts
// YAML.
func toJSONDocument(contentType string, body []byte) ([]byte, error) {
	if !strings.Contains(contentType, "yaml") {
		return body, nil
	}
	var generic any
	if err := yaml.Unmarshal(body, &generic); err != nil {
		return nil, flowerrors.Configuration("invalid YAML body: %v", err)
	}
	out, err := json.Marshal(normalizeYAML(generic))
	if err != nil {
		return nil, flowerrors.Configuration("converting YAML body to JSON: %v", err)
	}
	return out, nil
}

// normalizeYAML recursively converts map[string]interface{} keys that
// yaml.v3 may decode as map[interface{}]interface{} under nested structures
// into string-keyed maps, since encoding/json cannot marshal non-string map
// keys.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = normalizeYAML(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[fmt.Sprint(k)] = normalizeYAML(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = normalizeYAML(e)
		}
		return out
	default:
		return val
	}
}
