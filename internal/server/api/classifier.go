package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/gestpipe/internal/classifier"
)

// ClassifierHandler reports on and reloads the shared classifier artifacts.
type ClassifierHandler struct {
	cache *classifier.Cache
}

// NewClassifierHandler creates a ClassifierHandler over cache.
func NewClassifierHandler(cache *classifier.Cache) *ClassifierHandler {
	return &ClassifierHandler{cache: cache}
}

// Routes registers GET / and POST /reload.
func (h *ClassifierHandler) Routes(r chi.Router) {
	r.Get("/", h.status)
	r.Post("/reload", h.reload)
}

type classifierResponse struct {
	Loaded bool     `json:"loaded"`
	Loads  int64    `json:"loads"`
	Labels []string `json:"labels,omitempty"`
	Error  string   `json:"error,omitempty"`
}

func (h *ClassifierHandler) status(w http.ResponseWriter, r *http.Request) {
	response := classifierResponse{
		Loaded: h.cache.Loaded(),
		Loads:  h.cache.Loads(),
	}
	if response.Loaded {
		if a, err := h.cache.Get(); err == nil {
			response.Labels = a.Labels()
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// reload handles POST /api/classifier/reload. The cache is dropped and loaded
// again immediately so load errors surface in the response.
func (h *ClassifierHandler) reload(w http.ResponseWriter, r *http.Request) {
	h.cache.Invalidate()
	a, err := h.cache.Get()
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, classifierResponse{
			Loads: h.cache.Loads(),
			Error: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, classifierResponse{
		Loaded: true,
		Loads:  h.cache.Loads(),
		Labels: a.Labels(),
	})
}
