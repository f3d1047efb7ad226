package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/gestpipe/internal/practice"
	"github.com/ayusman/gestpipe/internal/store"
)

// PracticeConfig configures a PracticeHandler.
type PracticeConfig struct {
	Evaluator       *practice.Evaluator
	Store           *store.Store // optional; attempts are not recorded without it
	DefaultDuration time.Duration
	RecordAttempts  bool
	ListLimit       int
}

// PracticeHandler grades practice attempts and reports their history.
type PracticeHandler struct {
	cfg PracticeConfig
}

// NewPracticeHandler creates a PracticeHandler.
func NewPracticeHandler(cfg PracticeConfig) *PracticeHandler {
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 100
	}
	return &PracticeHandler{cfg: cfg}
}

// Routes registers POST /evaluate and GET /attempts.
func (h *PracticeHandler) Routes(r chi.Router) {
	r.Post("/evaluate", h.evaluate)
	r.Get("/attempts", h.attempts)
}

// evaluate handles POST /api/practice/evaluate. The body is the same request
// the practice CLI reads. Malformed requests get a 400 with the CLI's error
// response shape.
func (h *PracticeHandler) evaluate(w http.ResponseWriter, r *http.Request) {
	req, err := practice.DecodeRequest(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, practice.ErrorResponse(req.Target(), err))
		return
	}
	a, err := req.Attempt(h.cfg.DefaultDuration)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, practice.ErrorResponse(req.Target(), err))
		return
	}

	res := h.cfg.Evaluator.Evaluate(r.Context(), a)
	h.record(a, res)

	writeJSON(w, http.StatusOK, practice.ResponseFor(res))
}

func (h *PracticeHandler) record(a practice.Attempt, res practice.Result) {
	if !h.cfg.RecordAttempts || h.cfg.Store == nil {
		return
	}
	err := h.cfg.Store.Attempts().Create(&store.Attempt{
		Target:     res.Target,
		Success:    res.Success,
		ReasonCode: res.ReasonCode,
		ReasonMsg:  res.Message,
		Predicted:  res.Predicted,
		Confidence: res.Confidence,
		Duration:   a.Duration.Seconds(),
	})
	if err != nil {
		log.Printf("Failed to record practice attempt: %v", err)
	}
}

type attemptsResponse struct {
	Attempts []store.Attempt      `json:"attempts"`
	Stats    []store.AttemptStats `json:"stats"`
}

// attempts handles GET /api/practice/attempts?target=&limit=.
func (h *PracticeHandler) attempts(w http.ResponseWriter, r *http.Request) {
	if h.cfg.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "Attempt history not available")
		return
	}
	limit, ok := queryLimit(r, h.cfg.ListLimit, h.cfg.ListLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	attempts, err := h.cfg.Store.Attempts().List(r.URL.Query().Get("target"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attempts")
		return
	}
	stats, err := h.cfg.Store.Attempts().Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute attempt stats")
		return
	}

	response := attemptsResponse{
		Attempts: attempts,
		Stats:    stats,
	}
	if response.Attempts == nil {
		response.Attempts = []store.Attempt{}
	}
	if response.Stats == nil {
		response.Stats = []store.AttemptStats{}
	}
	writeJSON(w, http.StatusOK, response)
}
