package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/gestpipe/internal/gesture"
	"github.com/ayusman/gestpipe/internal/store"
)

// TemplateHandler serves the reference gesture templates.
type TemplateHandler struct {
	store *store.Store
}

// NewTemplateHandler creates a new TemplateHandler with the given store.
func NewTemplateHandler(s *store.Store) *TemplateHandler {
	return &TemplateHandler{store: s}
}

// Routes registers GET / and GET /{name}.
func (h *TemplateHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{name}", h.get)
}

type templateResponse struct {
	gesture.Template
	Type gesture.Type `json:"type"`
}

type listTemplatesResponse struct {
	Templates []templateResponse `json:"templates"`
}

func toTemplateResponse(t gesture.Template) templateResponse {
	return templateResponse{Template: t, Type: t.Type()}
}

// list handles GET /api/templates and returns all templates.
func (h *TemplateHandler) list(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.Templates().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list templates")
		return
	}

	response := listTemplatesResponse{
		Templates: make([]templateResponse, 0, len(templates)),
	}
	for _, t := range templates {
		response.Templates = append(response.Templates, toTemplateResponse(t))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/templates/{name}.
func (h *TemplateHandler) get(w http.ResponseWriter, r *http.Request) {
	t, err := h.store.Templates().Get(chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Template not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get template")
		return
	}

	writeJSON(w, http.StatusOK, toTemplateResponse(t))
}
