package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claude/coachdesk/internal/loadcalc"
	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/progress"
	"github.com/claude/coachdesk/internal/schedule"
	"github.com/claude/coachdesk/internal/storage"
)

const maxBodyBytes = 4 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.gatherer == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "metrics disabled"})
		return
	}
	promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

type scheduleRequest struct {
	StartDate     string   `json:"startDate"`
	WorkoutDays   []string `json:"workoutDays"`
	DaysPerWeek   int      `json:"daysPerWeek"`
	ProgramLength int      `json:"programLength"`
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start, err := schedule.ParseStartDate(req.StartDate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	dates, err := schedule.Generate(schedule.Input{
		StartDate:     start,
		WorkoutDays:   req.WorkoutDays,
		DaysPerWeek:   req.DaysPerWeek,
		ProgramLength: req.ProgramLength,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]models.Date, len(dates))
	for i, d := range dates {
		out[i] = models.DateOf(d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"dates": out})
}

type oneRepMaxRequest struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

func (s *Server) handleOneRepMax(w http.ResponseWriter, r *http.Request) {
	var req oneRepMaxRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	orm, err := loadcalc.EstimateOneRepMax(req.Weight, req.Reps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"oneRepMax": orm})
}

type targetWeightRequest struct {
	OneRepMax  float64  `json:"oneRepMax"`
	Percentage float64  `json:"percentage"`
	Increment  *float64 `json:"increment,omitempty"`
}

func (s *Server) handleTargetWeight(w http.ResponseWriter, r *http.Request) {
	var req targetWeightRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inc := s.increment
	if inc <= 0 {
		inc = loadcalc.DefaultIncrement
	}
	if req.Increment != nil {
		inc = *req.Increment
	}
	raw, err := loadcalc.TargetWeightForPercentage(req.OneRepMax, req.Percentage)
	if err != nil {
		s.writeError(w, err)
		return
	}
	rounded, err := loadcalc.RoundToIncrement(raw, inc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"targetWeight": raw, "rounded": rounded, "increment": inc})
}

func (s *Server) handleExercise(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ex, ok := s.catalog.Lookup(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("no exercise data for %q", name)})
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

// writeError maps domain errors to status codes. Unclassified errors are
// logged and reported as 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, schedule.ErrInvalidScheduleConfig),
		errors.Is(err, loadcalc.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidRecord),
		errors.Is(err, progress.ErrUnknownExercise),
		errors.Is(err, progress.ErrSetOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, progress.ErrWorkoutNotFound):
		status = http.StatusNotFound
	default:
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
