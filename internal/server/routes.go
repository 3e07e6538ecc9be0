package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/julianstephens/habitual/internal/constants"
	apperrors "github.com/julianstephens/habitual/internal/errors"
	"github.com/julianstephens/habitual/internal/models"
	"github.com/julianstephens/habitual/internal/service"
)

func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.dashboardHandler)
	mux.HandleFunc("GET /health", s.healthHandler)

	mux.HandleFunc("GET /api/habits", s.listHabitsHandler)
	mux.HandleFunc("POST /api/habits", s.createHabitHandler)
	mux.HandleFunc("GET /api/habits/stats", s.statsHandler)
	mux.HandleFunc("GET /api/habits/{id}", s.getHabitHandler)
	mux.HandleFunc("PUT /api/habits/{id}", s.updateHabitHandler)
	mux.HandleFunc("DELETE /api/habits/{id}", s.deleteHabitHandler)
	mux.HandleFunc("POST /api/habits/{id}/toggle", s.toggleHandler)
	mux.HandleFunc("GET /api/habits/{id}/calendar", s.calendarHandler)
	mux.HandleFunc("GET /api/insights", s.insightsHandler)

	return withLogging(s.log, mux)
}

type messageResponse struct {
	Message string `json:"message"`
	HabitID string `json:"habit_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type habitsResponse struct {
	Habits []models.Habit `json:"habits"`
}

type calendarResponse struct {
	HabitID string               `json:"habit_id"`
	Days    []models.CalendarDay `json:"days"`
}

type toggleRequest struct {
	Date *string `json:"date"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "Habit not found"})
	case errors.Is(err, apperrors.ErrInvalidInput):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		s.log.Error("Request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Invalid("request body must be JSON: %v", err)
	}
	return nil
}

func (s *Server) listHabitsHandler(w http.ResponseWriter, r *http.Request) {
	habits, err := s.svc.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, habitsResponse{Habits: habits})
}

func (s *Server) createHabitHandler(w http.ResponseWriter, r *http.Request) {
	var in models.HabitInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	habit, err := s.svc.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, habit)
}

func (s *Server) getHabitHandler(w http.ResponseWriter, r *http.Request) {
	habit, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, habit)
}

func (s *Server) updateHabitHandler(w http.ResponseWriter, r *http.Request) {
	var in models.HabitInput
	if err := decodeBody(r, &in); err != nil {
		s.writeError(w, err)
		return
	}
	id := r.PathValue("id")
	if _, err := s.svc.Update(r.Context(), id, in); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "Habit updated successfully", HabitID: id})
}

func (s *Server) deleteHabitHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.svc.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "Habit deleted successfully", HabitID: id})
}

func (s *Server) toggleHandler(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Date == nil || *req.Date == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Date is required"})
		return
	}

	res, err := s.svc.Toggle(r.Context(), r.PathValue("id"), *req.Date)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	policy, err := service.ParsePolicy(r.URL.Query().Get("policy"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if policy == service.PolicyLegacy {
		s.log.Warn("Legacy completion-rate policy requested", "remote", r.RemoteAddr)
	}
	report, err := s.svc.Stats(r.Context(), policy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) calendarHandler(w http.ResponseWriter, r *http.Request) {
	days := constants.CalendarDays28
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, apperrors.Invalid("days must be a number"))
			return
		}
		days = n
	}

	id := r.PathValue("id")
	calendar, err := s.svc.Calendar(r.Context(), id, days)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, calendarResponse{HabitID: id, Days: calendar})
}

func (s *Server) insightsHandler(w http.ResponseWriter, r *http.Request) {
	insights, err := s.svc.Insights(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, insights)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.svc.Store().Health(r.Context())
	status := http.StatusOK
	if health["status"] == "down" {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, health)
}
