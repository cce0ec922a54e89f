// ABOUTME: HTTP handlers for food logs, goals, saved foods, history, and estimation.
// ABOUTME: Each handler resolves the session user and delegates to the tracker.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/harperreed/caltra/internal/aggregate"
	"github.com/harperreed/caltra/internal/auth"
	"github.com/harperreed/caltra/internal/models"
	"github.com/harperreed/caltra/internal/tracker"
)

type authReq struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type goalsReq struct {
	CalorieGoal float64 `json:"calorie_goal"`
	ProteinGoal float64 `json:"protein_goal"`
}

type foodReq struct {
	Name            string  `json:"name"`
	CaloriesPer100g float64 `json:"calories_per_100g"`
	ProteinPer100g  float64 `json:"protein_per_100g"`
	ServingSize     float64 `json:"serving_size"`
	Unit            string  `json:"unit"`
}

type analyzeReq struct {
	Query string `json:"query"`
}

type historyResp struct {
	Year  int                             `json:"year"`
	Month int                             `json:"month"`
	Days  map[string]*aggregate.DayBucket `json:"days"`
}

// dateParam reads ?date=YYYY-MM-DD, defaulting to today.
func (s *Server) dateParam(r *http.Request) (time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return s.tracker.Today(), true
	}
	d, err := aggregate.ParseDate(raw)
	return d, err == nil
}

func idParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in authReq
	if err := decodeJSON(w, r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := s.auth.Register(r.Context(), in.Email, in.Password, in.DisplayName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.startSession(w, r, u)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var in authReq
	if err := decodeJSON(w, r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := s.auth.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.startSession(w, r, u)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u *models.User) {
	tok, expires, err := s.auth.IssueToken(u.ID.String())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	auth.SetCookie(w, tok, expires, s.opts.CookieSecure)
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "token": tok})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	auth.ClearCookie(w, s.opts.CookieSecure)
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	if userID == "" {
		errorJSON(w, http.StatusUnauthorized, "no session")
		return
	}
	u, err := s.auth.User(r.Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			errorJSON(w, http.StatusUnauthorized, "invalid session")
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(r)
	if !ok {
		errorJSON(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.GetFoodLogs(r.Context(), auth.UserID(r.Context()), date))
}

func (s *Server) handleAddLog(w http.ResponseWriter, r *http.Request) {
	var in tracker.EntryInput
	if err := decodeJSON(w, r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	e, err := s.tracker.AddFoodLog(r.Context(), auth.UserID(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateLog(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		errorJSON(w, http.StatusNotFound, "not found")
		return
	}
	var patch models.FoodLogPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	e, err := s.tracker.UpdateFoodLog(r.Context(), auth.UserID(r.Context()), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		errorJSON(w, http.StatusNotFound, "not found")
		return
	}
	if err := s.tracker.DeleteFoodLog(r.Context(), auth.UserID(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.dateParam(r)
	if !ok {
		errorJSON(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, s.tracker.GetDay(r.Context(), auth.UserID(r.Context()), date))
}

func (s *Server) handleGetGoals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.GetGoals(r.Context(), auth.UserID(r.Context())))
}

func (s *Server) handlePutGoals(w http.ResponseWriter, r *http.Request) {
	var in goalsReq
	if err := decodeJSON(w, r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	g, err := s.tracker.UpdateGoals(r.Context(), auth.UserID(r.Context()), in.CalorieGoal, in.ProteinGoal)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleListFoods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.GetFoodItems(r.Context(), auth.UserID(r.Context())))
}

func (s *Server) handleSearchFoods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, s.tracker.SearchFoodItems(r.Context(), auth.UserID(r.Context()), q))
}

func (s *Server) handleSaveFood(w http.ResponseWriter, r *http.Request) {
	var in foodReq
	if err := decodeJSON(w, r, &in); err != nil {
		errorJSON(w, http.StatusBadRequest, "invalid json")
		return
	}
	item := models.NewFoodItem("", in.Name, in.CaloriesPer100g, in.ProteinPer100g).
		WithServing(in.ServingSize, in.Unit)
	created, err := s.tracker.SaveFoodItem(r.Context(), auth.UserID(r.Context()), item)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"created": created, "item": item})
}

func (s *Server) handleDeleteFood(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		errorJSON(w, http.StatusNotFound, "not found")
		return
	}
	if err := s.tracker.DeleteFoodItem(r.Context(), auth.UserID(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	today := s.tracker.Today()
	year, month := today.Year(), int(today.Month())

	if raw := r.URL.Query().Get("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 9999 {
			errorJSON(w, http.StatusBadRequest, "year must be a number")
			return
		}
		year = v
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 12 {
			errorJSON(w, http.StatusBadRequest, "month must be 1-12")
			return
		}
		month = v
	}

	days := s.tracker.GetHistory(r.Context(), auth.UserID(r.Context()), year, time.Month(month))
	writeJSON(w, http.StatusOK, historyResp{Year: year, Month: month, Days: days})
}

func (s *Server) handleAnalyzeFood(w http.ResponseWriter, r *http.Request) {
	var in analyzeReq
	if err := decodeJSON(w, r, &in); err != nil || strings.TrimSpace(in.Query) == "" {
		errorJSON(w, http.StatusBadRequest, "Query is required")
		return
	}
	food, err := s.tracker.AnalyzeFood(r.Context(), in.Query)
	if err != nil {
		errorJSON(w, http.StatusInternalServerError, "Analysis failed. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"food": food})
}
