package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/finsight/insights-service/internal/cache"
	"github.com/finsight/insights-service/internal/engine"
	"github.com/finsight/insights-service/internal/metrics"
	"github.com/finsight/insights-service/internal/models"
)

// Handler exposes the insights engine over HTTP. Data-sufficiency outcomes
// are not transport errors: they return 200 with success=false so clients
// can render a friendly "not enough data yet" state, distinct from a 500.
type Handler struct {
	engine *engine.Engine
	cache  *cache.Cache
	log    *logrus.Logger
}

// NewHandler initializes the HTTP handler.
func NewHandler(eng *engine.Engine, c *cache.Cache, log *logrus.Logger) *Handler {
	return &Handler{engine: eng, cache: c, log: log}
}

// Register attaches all routes to the router.
func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/forecast/{userID}", h.GetForecast).Methods(http.MethodGet)
	api.HandleFunc("/forecast/{userID}/category/{category}", h.GetCategoryForecast).Methods(http.MethodGet)
	api.HandleFunc("/anomalies/{userID}", h.GetAnomalies).Methods(http.MethodGet)
	api.HandleFunc("/anomalies/{userID}/category/{category}", h.GetCategoryAnomalies).Methods(http.MethodGet)
	api.HandleFunc("/budget/{userID}", h.GetBudgetRecommendations).Methods(http.MethodGet)
	api.HandleFunc("/budget/{userID}/optimize", h.OptimizeBudget).Methods(http.MethodPost)
	api.HandleFunc("/goals/{userID}", h.AnalyzeAllGoals).Methods(http.MethodGet)
	api.HandleFunc("/goals/{userID}/{goalID}/prediction", h.PredictGoalAchievement).Methods(http.MethodGet)
	api.HandleFunc("/insights/{userID}", h.GetComprehensiveInsights).Methods(http.MethodGet)
	api.HandleFunc("/insights/{userID}/refresh", h.RefreshInsights).Methods(http.MethodPost)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorf("failed to encode response: %v", err)
	}
}

// writeError maps engine failures onto the documented response shapes.
func (h *Handler) writeError(w http.ResponseWriter, module string, err error) {
	switch {
	case engine.IsInsufficient(err):
		metrics.CountInsufficient(module)
		h.writeJSON(w, http.StatusOK, errorResponse{Success: false, Message: err.Error()})
	case errors.Is(err, engine.ErrInvalidGoal):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: err.Error()})
	case errors.Is(err, engine.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Message: err.Error()})
	default:
		h.log.Errorf("%s computation failed: %v", module, err)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Success: false, Message: "internal error"})
	}
}

// GetForecast returns the user's spending forecast.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	horizon := 0
	if v := r.URL.Query().Get("horizon_days"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "horizon_days must be a positive integer"})
			return
		}
		horizon = parsed
	}

	defer metrics.ObserveCompute("forecast", time.Now())
	result, err := h.engine.Forecast(r.Context(), userID, horizon)
	if err != nil {
		h.writeError(w, "forecast", err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*models.ForecastResult
	}{true, result})
}

// GetCategoryForecast returns a forecast scoped to one category.
func (h *Handler) GetCategoryForecast(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	defer metrics.ObserveCompute("forecast", time.Now())
	result, err := h.engine.CategoryForecast(r.Context(), vars["userID"], vars["category"], 0)
	if err != nil {
		h.writeError(w, "forecast", err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*models.ForecastResult
	}{true, result})
}

// GetAnomalies returns flagged transactions across all categories.
func (h *Handler) GetAnomalies(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	defer metrics.ObserveCompute("anomaly", time.Now())
	result, err := h.engine.DetectAnomalies(r.Context(), userID)
	if err != nil {
		h.writeError(w, "anomaly", err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*models.AnomalyResult
	}{true, result})
}

// GetCategoryAnomalies returns flagged transactions within one category.
func (h *Handler) GetCategoryAnomalies(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	defer metrics.ObserveCompute("anomaly", time.Now())
	result, err := h.engine.CategoryAnomalies(r.Context(), vars["userID"], vars["category"])
	if err != nil {
		h.writeError(w, "anomaly", err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*models.AnomalyResult
	}{true, result})
}

// GetBudgetRecommendations returns per-category budget allocations.
func (h *Handler) GetBudgetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	approach := r.URL.Query().Get("approach")

	defer metrics.ObserveCompute("budget", time.Now())
	result, err := h.engine.RecommendBudget(r.Context(), userID, approach)
	if err != nil {
		h.writeError(w, "budget", err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*models.BudgetRecommendation
	}{true, result})
}

type optimizeRequest struct {
	TotalBudget float64 `json:"total_budget"`
}

// OptimizeBudget allocates a fixed total budget across categories.
func (h *Handler) OptimizeBudget(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "invalid request body"})
		return
	}
	if req.TotalBudget <= 0 {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Success: false, Message: "total_budget must be positive"})
		return
	}

	defer metrics.ObserveCompute("budget", time.Now())
	result, err := h.engine.OptimizeBudget(r.Context(), userID, req.TotalBudget)
	if err != nil {
		h.writeError(w, "budget", err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*models.BudgetRecommendation
	}{true, result})
}

// PredictGoalAchievement returns the prediction for one goal.
func (h *Handler) PredictGoalAchievement(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	defer metrics.ObserveCompute("goals", time.Now())
	result, err := h.engine.PredictGoal(r.Context(), vars["userID"], vars["goalID"])
	if err != nil {
		h.writeError(w, "goals", err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*models.GoalPrediction
	}{true, result})
}

// AnalyzeAllGoals returns predictions for every active goal.
func (h *Handler) AnalyzeAllGoals(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	defer metrics.ObserveCompute("goals", time.Now())
	result, err := h.engine.AnalyzeGoals(r.Context(), userID)
	if err != nil {
		h.writeError(w, "goals", err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		*models.GoalsAnalysis
	}{true, result})
}

type insightsResponse struct {
	Success bool `json:"success"`
	*models.InsightsBundle
}

// GetComprehensiveInsights returns the synthesized advisory bundle, served
// from cache when fresh.
func (h *Handler) GetComprehensiveInsights(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	if entry, ok := h.cache.Get(userID); ok {
		metrics.CacheHits.Inc()
		h.writeJSON(w, http.StatusOK, insightsResponse{true, &entry.Insights.Bundle})
		return
	}
	metrics.CacheMisses.Inc()

	defer metrics.ObserveCompute("insights", time.Now())
	entry, err := h.cache.GetOrCompute(r.Context(), userID, func(ctx context.Context) (*models.ComprehensiveInsights, error) {
		return h.engine.ComputeInsights(ctx, userID)
	})
	if err != nil {
		h.writeError(w, "insights", err)
		return
	}
	h.writeJSON(w, http.StatusOK, insightsResponse{true, &entry.Insights.Bundle})
}

// RefreshInsights forces a recomputation of the user's insights bundle.
// Concurrent refreshes for the same user share one computation.
func (h *Handler) RefreshInsights(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	defer metrics.ObserveCompute("insights", time.Now())
	entry, err := h.cache.Refresh(r.Context(), userID, func(ctx context.Context) (*models.ComprehensiveInsights, error) {
		return h.engine.ComputeInsights(ctx, userID)
	})
	if err != nil {
		h.writeError(w, "insights", err)
		return
	}
	h.writeJSON(w, http.StatusOK, insightsResponse{true, &entry.Insights.Bundle})
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "insights-service",
		"features": []string{
			"spending_forecast",
			"anomaly_detection",
			"budget_recommendations",
			"goal_prediction",
			"comprehensive_insights",
		},
	})
}
