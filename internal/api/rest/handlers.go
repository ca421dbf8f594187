package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Swai-D/bet-bot-sub000/internal/cache"
	"github.com/Swai-D/bet-bot-sub000/internal/scheduler"
	"github.com/Swai-D/bet-bot-sub000/internal/store"
	"github.com/Swai-D/bet-bot-sub000/internal/store/repository"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	db           *store.Database
	cache        *cache.RedisCache
	orchestrator *scheduler.Orchestrator
	predictions  *repository.PredictionRepository
	bets         *repository.BetRepository
}

// NewHandler creates a new handler
func NewHandler(db *store.Database, redisCache *cache.RedisCache, orchestrator *scheduler.Orchestrator) *Handler {
	return &Handler{
		db:           db,
		cache:        redisCache,
		orchestrator: orchestrator,
		predictions:  repository.NewPredictionRepository(db),
		bets:         repository.NewBetRepository(db),
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := h.db.HealthCheck(); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  status,
		"service": "betbot",
		"version": "1.0.0",
	})
}

// GetPredictionsByDate returns predictions for a match date, highest
// score first. Defaults to today.
func (h *Handler) GetPredictionsByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = time.Now().UTC().Format("2006-01-02")
	}

	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	predictions, err := h.predictions.GetByDate(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch predictions", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"date":        dateStr,
		"predictions": predictions,
		"count":       len(predictions),
	})
}

// GetRecentPredictions returns the most recently stored predictions
func (h *Handler) GetRecentPredictions(w http.ResponseWriter, r *http.Request) {
	limitStr := r.URL.Query().Get("limit")
	limit := 20 // default
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	predictions, err := h.predictions.GetRecent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch predictions", err)
		return
	}

	respondJSON(w, http.StatusOK, predictions)
}

// GetPrediction returns a specific prediction by match key
func (h *Handler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	matchKey := vars["matchKey"]

	prediction, err := h.predictions.GetByKey(r.Context(), matchKey)
	if err != nil {
		respondError(w, http.StatusNotFound, "Prediction not found", err)
		return
	}

	respondJSON(w, http.StatusOK, prediction)
}

// GetBetsForMatch returns all bets recorded against a match
func (h *Handler) GetBetsForMatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	matchKey := vars["matchKey"]

	bets, err := h.bets.GetByMatchKey(r.Context(), matchKey)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch bets", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"match_key": matchKey,
		"bets":      bets,
		"count":     len(bets),
	})
}

// GetLastRun returns the most recent pipeline run summary
func (h *Handler) GetLastRun(w http.ResponseWriter, r *http.Request) {
	summary := h.orchestrator.LastSummary()
	if summary == nil {
		respondError(w, http.StatusNotFound, "No run has completed yet", nil)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// TriggerRun kicks off a pipeline run outside the schedule. The run
// happens in the background; an in-flight run makes this a no-op.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	go h.orchestrator.RunOnce(context.WithoutCancel(r.Context()))

	respondJSON(w, http.StatusAccepted, map[string]string{
		"message": "Run triggered",
	})
}

// GetAutomation returns the automation switch state
func (h *Handler) GetAutomation(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.cache.AutomationEnabled(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to read automation state", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"enabled": enabled})
}

// SetAutomation flips the automation switch
func (h *Handler) SetAutomation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		respondError(w, http.StatusBadRequest, "Body must be {\"enabled\": true|false}", err)
		return
	}

	if err := h.cache.SetAutomationEnabled(r.Context(), *body.Enabled); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to update automation state", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"enabled": *body.Enabled})
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
