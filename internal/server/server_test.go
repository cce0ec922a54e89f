// ABOUTME: Tests for the HTTP API using httptest against a temporary SQLite store.
// ABOUTME: Covers sessions, log CRUD, goals, saved foods, history, and food analysis.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harperreed/caltra/internal/auth"
	"github.com/harperreed/caltra/internal/logging"
	"github.com/harperreed/caltra/internal/models"
	"github.com/harperreed/caltra/internal/storage"
	"github.com/harperreed/caltra/internal/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Date(2024, 3, 5, 18, 30, 0, 0, time.UTC)

type stubEstimator struct {
	est *models.Estimate
	err error
}

func (s stubEstimator) Estimate(context.Context, string) (*models.Estimate, error) {
	return s.est, s.err
}

type testEnv struct {
	srv   *Server
	token string
}

func setupServer(t *testing.T, est tracker.Estimator) *testEnv {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "caltra.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := tracker.New(db,
		tracker.WithLogger(logging.Discard()),
		tracker.WithClock(func() time.Time { return fixedNow }),
		tracker.WithEstimator(est),
	)
	am, err := auth.NewManager("test-secret", db)
	require.NoError(t, err)
	am.SetHashCost(bcrypt.MinCost)

	return &testEnv{srv: New(svc, am, Options{
		CORSOrigins: []string{"http://localhost:3000"},
		Logger:      logging.Discard(),
	})}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signUp(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "ana@example.com", "password": "hunter22", "displayName": "Ana",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out.Token)
	e.token = out.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	env := setupServer(t, nil)
	rec := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestAuthFlow(t *testing.T) {
	env := setupServer(t, nil)

	rec := env.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"no session"}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "Ana@Example.com", "password": "hunter22", "displayName": "Ana",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	u := decode[models.User](t, me)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotContains(t, me.Body.String(), "password")

	rec = env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "ana@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/sign-in", map[string]string{
		"email": "ana@example.com", "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/sign-in", map[string]string{
		"email": "ana@example.com", "password": "hunter22",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/sign-out", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Result().Cookies()
	require.Len(t, out, 1)
	assert.Equal(t, -1, out[0].MaxAge)
}

func TestRegisterValidation(t *testing.T) {
	env := setupServer(t, nil)

	rec := env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "not-an-email", "password": "hunter22",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "bo@example.com", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "bo@example.com", "password": strings.Repeat("p", 73),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at most 72 bytes")
}

func TestAnonymousWritesRejected(t *testing.T) {
	env := setupServer(t, nil)

	rec := env.do(t, http.MethodPost, "/api/logs", map[string]any{"food_name": "Apple", "calories": 52})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/goals", map[string]any{"calorie_goal": 1800, "protein_goal": 120})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/logs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/goals", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	g := decode[models.UserGoals](t, rec)
	assert.Equal(t, float64(models.DefaultCalorieGoal), g.CalorieGoal)
}

func TestFoodLogLifecycle(t *testing.T) {
	env := setupServer(t, nil)
	env.signUp(t)

	rec := env.do(t, http.MethodPost, "/api/logs", map[string]any{
		"food_name": "Greek yogurt", "weight_g": 200, "calories": 146, "protein": 20, "meal_type": "Breakfast",
		"eaten_at": "2024-03-05T08:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.FoodLogEntry](t, rec)
	assert.Equal(t, models.MealBreakfast, created.MealType)

	rec = env.do(t, http.MethodPost, "/api/logs", map[string]any{"food_name": "Toast", "calories": 90, "date": "2024-03-04"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	today := decode[[]models.FoodLogEntry](t, rec)
	require.Len(t, today, 1)
	assert.Equal(t, "Greek yogurt", today[0].FoodName)

	rec = env.do(t, http.MethodGet, "/api/logs?date=2024-03-04", nil)
	assert.Len(t, decode[[]models.FoodLogEntry](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/logs?date=March", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/logs/"+created.ID.String(), map[string]any{"calories": 160})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 160.0, decode[models.FoodLogEntry](t, rec).Calories)

	rec = env.do(t, http.MethodPatch, "/api/logs/"+created.ID.String(), map[string]any{"protein": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/api/logs/not-a-uuid", map[string]any{"calories": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/logs/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/logs/"+created.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDayAndGoals(t *testing.T) {
	env := setupServer(t, nil)
	env.signUp(t)

	rec := env.do(t, http.MethodPut, "/api/goals", map[string]any{"calorie_goal": 0, "protein_goal": 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/goals", map[string]any{"calorie_goal": 2000, "protein_goal": 100})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, cal := range []float64{600, 700} {
		rec = env.do(t, http.MethodPost, "/api/logs", map[string]any{"food_name": "Meal", "calories": cal, "protein": 30})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/day", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	day := decode[tracker.DayView](t, rec)
	assert.Equal(t, "2024-03-05", day.Date)
	assert.Equal(t, 1300.0, day.Calories.Consumed)
	assert.Equal(t, 65.0, day.Calories.Percent)
	assert.Equal(t, 60.0, day.Protein.Consumed)
	assert.Equal(t, "ok", string(day.Status))
}

func TestSavedFoods(t *testing.T) {
	env := setupServer(t, nil)
	env.signUp(t)

	body := map[string]any{"name": "Rolled oats", "calories_per_100g": 379, "protein_per_100g": 13.2}
	rec := env.do(t, http.MethodPost, "/api/foods", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var saved struct {
		Created bool            `json:"created"`
		Item    models.FoodItem `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.True(t, saved.Created)
	assert.Equal(t, 100.0, saved.Item.ServingSize)
	assert.Equal(t, "g", saved.Item.Unit)

	body["name"] = "ROLLED OATS"
	rec = env.do(t, http.MethodPost, "/api/foods", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/foods/search?q=oat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.FoodItem](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/api/foods/search?q=", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/foods/"+saved.Item.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/foods", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHistory(t *testing.T) {
	env := setupServer(t, nil)
	env.signUp(t)

	for _, d := range []string{"2024-03-01", "2024-03-01", "2024-02-29"} {
		rec := env.do(t, http.MethodPost, "/api/logs", map[string]any{"food_name": "Rice", "calories": 200, "date": d})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Year  int `json:"year"`
		Month int `json:"month"`
		Days  map[string]struct {
			TotalCalories float64 `json:"total_calories"`
		} `json:"days"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, 2024, out.Year)
	assert.Equal(t, 3, out.Month)
	require.Len(t, out.Days, 1)
	assert.Equal(t, 400.0, out.Days["2024-03-01"].TotalCalories)

	rec = env.do(t, http.MethodGet, "/api/history?year=2024&month=2", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out.Days, "2024-02-29")

	rec = env.do(t, http.MethodGet, "/api/history?month=13", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeFood(t *testing.T) {
	env := setupServer(t, stubEstimator{est: &models.Estimate{Name: "Banana", CaloriesPer100g: 89, ProteinPer100g: 1.1}})

	rec := env.do(t, http.MethodPost, "/api/analyze-food", map[string]string{"query": "banana"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"food":{"name":"Banana","caloriesPer100g":89,"proteinPer100g":1.1}}`, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/analyze-food", map[string]string{"query": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Query is required"}`, rec.Body.String())

	failing := setupServer(t, stubEstimator{err: errors.New("upstream 502")})
	rec = failing.do(t, http.MethodPost, "/api/analyze-food", map[string]string{"query": "banana"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Analysis failed. Please try again."}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	env := setupServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/logs", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
