package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/insights-service/internal/cache"
	"github.com/finsight/insights-service/internal/config"
	"github.com/finsight/insights-service/internal/engine"
	"github.com/finsight/insights-service/internal/handler"
	"github.com/finsight/insights-service/internal/models"
	"github.com/finsight/insights-service/internal/narrative"
	"github.com/finsight/insights-service/internal/repository"
)

const testUser = "user-1"

func newTestRouter(store *repository.MemoryStore) *mux.Router {
	log := logrus.New()
	log.SetOutput(io.Discard)

	eng := engine.New(store, config.DefaultPolicy(), nil,
		narrative.NewTemplateRenderer(), time.Second, log)
	h := handler.NewHandler(eng, cache.New(30*time.Minute, log), log)

	r := mux.NewRouter()
	h.Register(r)
	return r
}

func seedRichHistory(store *repository.MemoryStore) {
	now := time.Now().UTC()
	for i := 0; i < 60; i++ {
		store.AddTransactions(
			models.Transaction{UserID: testUser, Date: now.AddDate(0, 0, -i),
				Amount: 25, Type: models.KindExpense, Category: "Groceries"},
			models.Transaction{UserID: testUser, Date: now.AddDate(0, 0, -i),
				Amount: 10, Type: models.KindExpense, Category: "Entertainment"},
		)
	}
	store.AddTransactions(models.Transaction{
		UserID: testUser, Date: now.AddDate(0, 0, -10),
		Amount: 3000, Type: models.KindIncome, Category: "Salary",
	})
	store.AddGoals(models.Goal{
		ID: "g1", UserID: testUser, Name: "Emergency Fund",
		TargetAmount: 10000, CurrentAmount: 2000, MonthlyContribution: 400,
	})
}

func doRequest(t *testing.T, router *mux.Router, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	payload := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return rec, payload
}

func TestHealth(t *testing.T) {
	router := newTestRouter(repository.NewMemoryStore())
	rec, payload := doRequest(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", payload["status"])
}

func TestForecastSuccessEnvelope(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRichHistory(store)
	router := newTestRouter(store)

	rec, payload := doRequest(t, router, http.MethodGet, "/api/v1/forecast/"+testUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])

	forecast, ok := payload["forecast"].([]interface{})
	require.True(t, ok)
	assert.Len(t, forecast, 30)
}

func TestForecastInsufficientEnvelope(t *testing.T) {
	store := repository.NewMemoryStore()
	now := time.Now().UTC()
	for i := 0; i < 10; i++ {
		store.AddTransactions(models.Transaction{
			UserID: testUser, Date: now.AddDate(0, 0, -i),
			Amount: 20, Type: models.KindExpense, Category: "Dining",
		})
	}
	router := newTestRouter(store)

	rec, payload := doRequest(t, router, http.MethodGet, "/api/v1/forecast/"+testUser, "")
	assert.Equal(t, http.StatusOK, rec.Code,
		"insufficient data is a well-formed outcome, not a transport error")
	assert.Equal(t, false, payload["success"])
	assert.NotEmpty(t, payload["message"])
}

func TestForecastBadHorizon(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRichHistory(store)
	router := newTestRouter(store)

	rec, payload := doRequest(t, router, http.MethodGet, "/api/v1/forecast/"+testUser+"?horizon_days=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, payload["success"])
}

func TestAllEndpointsInsufficientForShortHistory(t *testing.T) {
	store := repository.NewMemoryStore()
	now := time.Now().UTC()
	for i := 0; i < 10; i++ {
		store.AddTransactions(models.Transaction{
			UserID: testUser, Date: now.AddDate(0, 0, -i),
			Amount: 20, Type: models.KindExpense, Category: "Dining",
		})
	}
	store.AddGoals(models.Goal{
		ID: "g1", UserID: testUser, Name: "Vacation",
		TargetAmount: 3000, CurrentAmount: 500, MonthlyContribution: 200,
	})
	router := newTestRouter(store)

	paths := []string{
		"/api/v1/forecast/" + testUser,
		"/api/v1/anomalies/" + testUser,
		"/api/v1/budget/" + testUser,
		"/api/v1/goals/" + testUser,
		"/api/v1/goals/" + testUser + "/g1/prediction",
		"/api/v1/insights/" + testUser,
	}
	for _, path := range paths {
		rec, payload := doRequest(t, router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, false, payload["success"], path)
	}
}

func TestAnomaliesEnvelope(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRichHistory(store)
	store.AddTransactions(models.Transaction{
		UserID: testUser, Date: time.Now().UTC().AddDate(0, 0, -2),
		Amount: 800, Type: models.KindExpense, Category: "Groceries",
	})
	router := newTestRouter(store)

	rec, payload := doRequest(t, router, http.MethodGet, "/api/v1/anomalies/"+testUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])

	statistics, ok := payload["statistics"].(map[string]interface{})
	require.True(t, ok)
	assert.Greater(t, statistics["anomalies_detected"].(float64), 0.0)
}

func TestBudgetEnvelope(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRichHistory(store)
	router := newTestRouter(store)

	rec, payload := doRequest(t, router, http.MethodGet, "/api/v1/budget/"+testUser+"?approach=aggressive", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "aggressive", payload["approach"])
}

func TestOptimizeBudgetValidation(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRichHistory(store)
	router := newTestRouter(store)

	rec, payload := doRequest(t, router, http.MethodPost,
		"/api/v1/budget/"+testUser+"/optimize", `{"total_budget": 0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, payload["success"])

	rec, payload = doRequest(t, router, http.MethodPost,
		"/api/v1/budget/"+testUser+"/optimize", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, payload["success"])

	rec, payload = doRequest(t, router, http.MethodPost,
		"/api/v1/budget/"+testUser+"/optimize", `{"total_budget": 1500}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, 1500.0, payload["total_recommended_budget"])
}

func TestGoalPredictionEnvelope(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRichHistory(store)
	router := newTestRouter(store)

	rec, payload := doRequest(t, router, http.MethodGet,
		"/api/v1/goals/"+testUser+"/g1/prediction", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "g1", payload["goal_id"])
}

func TestGoalPredictionNotFound(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRichHistory(store)
	router := newTestRouter(store)

	rec, payload := doRequest(t, router, http.MethodGet,
		"/api/v1/goals/"+testUser+"/nope/prediction", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, payload["success"])
}

func TestGoalsAnalysisEnvelope(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRichHistory(store)
	router := newTestRouter(store)

	rec, payload := doRequest(t, router, http.MethodGet, "/api/v1/goals/"+testUser, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, 1.0, payload["total_goals"])
}

func TestInsightsServedFromCache(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRichHistory(store)
	router := newTestRouter(store)

	rec, first := doRequest(t, router, http.MethodGet, "/api/v1/insights/"+testUser, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, first["success"])

	rec, second := doRequest(t, router, http.MethodGet, "/api/v1/insights/"+testUser, "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, first["computed_at"], second["computed_at"],
		"repeated reads without a refresh must serve the cached bundle")
	assert.Equal(t, first["insights"], second["insights"])
}

func TestRefreshRecomputesInsights(t *testing.T) {
	store := repository.NewMemoryStore()
	seedRichHistory(store)
	router := newTestRouter(store)

	_, first := doRequest(t, router, http.MethodGet, "/api/v1/insights/"+testUser, "")
	require.Equal(t, true, first["success"])

	time.Sleep(5 * time.Millisecond)
	rec, refreshed := doRequest(t, router, http.MethodPost, "/api/v1/insights/"+testUser+"/refresh", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, refreshed["success"])
	assert.NotEqual(t, first["computed_at"], refreshed["computed_at"])
}
