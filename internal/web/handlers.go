package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/jsonkv/internal/core"
	"github.com/JonMunkholm/jsonkv/internal/format"
	"github.com/JonMunkholm/jsonkv/internal/logging"
	"github.com/JonMunkholm/jsonkv/internal/panels"
	"github.com/JonMunkholm/jsonkv/internal/web/templates"
)

// DefaultFieldName labels ad-hoc transforms that name no field.
const DefaultFieldName = "Data"

// TransformRequest is the body of POST /api/transform. Data may be any JSON
// value, or a string holding JSON text. Options use the same keys as a
// panel definition and are merged over the display defaults.
type TransformRequest struct {
	FieldName string            `json:"fieldName"`
	Data      json.RawMessage   `json:"data"`
	Options   panels.Definition `json:"options"`
}

// PanelResponse is the JSON form of one core.Panel. Values keep the
// record's key order; HTML values such as badges are rendered to text.
type PanelResponse struct {
	Label  string         `json:"label"`
	Kind   core.PanelKind `json:"kind"`
	Values *core.Object   `json:"values,omitempty"`
	Text   string         `json:"text,omitempty"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// RenderResponse wraps the panels of one render.
type RenderResponse struct {
	Panel  string          `json:"panel,omitempty"`
	Panels []PanelResponse `json:"panels"`
}

// PanelSummary describes a registered panel.
type PanelSummary struct {
	Name        string `json:"name"`
	Field       string `json:"field"`
	Description string `json:"description,omitempty"`
	ItemLabel   string `json:"itemLabel,omitempty"`
	Stored      bool   `json:"stored"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status    string                `json:"status"`
	Panels    int                   `json:"panels"`
	Database  string                `json:"database"`
	Documents *panels.LimiterStatus `json:"documents,omitempty"`
}

// handleIndex renders the page listing registered panels.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	all := s.service.Registry().All()
	links := make([]templates.PanelLink, len(all))
	for i, p := range all {
		links[i] = templates.PanelLink{
			Name:        p.Name,
			Field:       p.Field,
			Description: p.Description,
			HasSource:   p.Source != nil,
		}
	}
	s.renderHTML(w, r, http.StatusOK, templates.Page("Panels", templates.Index(links)))
}

// handleHealth reports liveness and database reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Panels:   s.service.Registry().Count(),
		Database: "disabled",
	}
	status := http.StatusOK
	if l := s.service.Limiter(); l != nil {
		st := l.Status()
		resp.Documents = &st
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			logging.FromContext(r.Context()).Warn("health: database ping failed", "error", err)
			resp.Status = "degraded"
			resp.Database = "unavailable"
			status = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	writeJSON(w, status, resp)
}

// handleListPanels returns the registered panels in name order.
func (s *Server) handleListPanels(w http.ResponseWriter, r *http.Request) {
	all := s.service.Registry().All()
	out := make([]PanelSummary, len(all))
	for i, p := range all {
		out[i] = PanelSummary{
			Name:        p.Name,
			Field:       p.Field,
			Description: p.Description,
			ItemLabel:   p.ItemLabel,
			Stored:      p.Source != nil,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleTransform renders ad-hoc data with request-supplied options.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		err = bodyError(err)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	fieldName := req.FieldName
	if fieldName == "" {
		fieldName = DefaultFieldName
	}
	if req.Options.Name == "" {
		req.Options.Name = fieldName
	}

	opts, err := req.Options.MergeOptions(s.service.Registry().Defaults())
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	data, err := unwrapData(req.Data)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	result, err := s.service.RenderWith(r.Context(), fieldName, data, opts)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondPanels(w, r, "", result)
}

// handleRenderPanel renders the request body through a registered panel.
func (s *Server) handleRenderPanel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "panel")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		err = bodyError(err)
		s.respondError(w, r, err, statusFor(err))
		return
	}

	result, err := s.service.Render(r.Context(), name, body)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondPanels(w, r, name, result)
}

// handleDocument renders a stored document as panels JSON.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "panel")
	id := chi.URLParam(r, "id")

	result, err := s.service.RenderDocument(r.Context(), name, id)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.respondPanels(w, r, name, result)
}

// handleDocumentPage renders a stored document as an HTML page.
func (s *Server) handleDocumentPage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "panel")
	id := chi.URLParam(r, "id")

	result, err := s.service.RenderDocument(r.Context(), name, id)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	title := name
	if p, ok := s.service.Registry().Get(name); ok {
		title = p.Field
	}
	if isHTMX(r) {
		s.renderHTML(w, r, http.StatusOK, templates.Panels(result))
		return
	}
	s.renderHTML(w, r, http.StatusOK, templates.Page(title, templates.Panels(result)))
}

// respondPanels writes panels as an HTML fragment for HTMX, JSON otherwise.
func (s *Server) respondPanels(w http.ResponseWriter, r *http.Request, name string, result []core.Panel) {
	if isHTMX(r) {
		s.renderHTML(w, r, http.StatusOK, templates.Panels(result))
		return
	}

	out, err := NewPanelResponses(r.Context(), result)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, RenderResponse{Panel: name, Panels: out})
}

func (s *Server) renderHTML(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render html", "error", err)
	}
}

// NewPanelResponses converts panels to their JSON form.
func NewPanelResponses(ctx context.Context, result []core.Panel) ([]PanelResponse, error) {
	out := make([]PanelResponse, len(result))
	for i, p := range result {
		pr := PanelResponse{Label: p.Label, Kind: p.Kind, Text: p.Text}
		if p.Values != nil {
			values, err := format.RenderObject(ctx, p.Values)
			if err != nil {
				return nil, err
			}
			pr.Values = values
		}
		if p.Err != nil {
			resp := newErrorResponse(core.MapError(p.Err))
			pr.Error = &resp
		}
		out[i] = pr
	}
	return out, nil
}

// unwrapData returns data as JSON text, or the text a JSON string holds.
func unwrapData(data json.RawMessage) (any, error) {
	if len(data) == 0 || data[0] != '"' {
		return []byte(data), nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return nil, &core.MalformedInputError{Err: err}
	}
	return text, nil
}

// bodyError classifies a request body failure: oversized bodies keep their
// *http.MaxBytesError, anything else is malformed input.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return &core.MalformedInputError{Err: err}
}
