package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/coachdesk/internal/loadcalc"
	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/progress"
	"github.com/claude/coachdesk/internal/schedule"
	"github.com/claude/coachdesk/internal/storage"
)

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.repo.Clients(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var c models.Client
	if !decodeJSON(w, r, &c) {
		return
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	} else if _, err := s.repo.Client(r.Context(), c.ID); err == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": fmt.Sprintf("client %s already exists", c.ID)})
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		s.writeError(w, err)
		return
	}

	now := time.Now().UTC()
	c.DateCreated = now
	c.LastUpdated = now
	c.Normalize()

	if err := s.repo.SaveClient(r.Context(), c); err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("client created", "client", c.ID, "by", userInfoFromContext(r).Login)
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	c, err := s.repo.Client(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handlePutClient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, err := s.repo.Client(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var c models.Client
	if !decodeJSON(w, r, &c) {
		return
	}
	c.ID = id
	c.DateCreated = existing.DateCreated
	c.LastUpdated = time.Now().UTC()
	c.Normalize()

	if err := s.repo.SaveClient(r.Context(), c); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleGetMaxes(w http.ResponseWriter, r *http.Request) {
	c, err := s.repo.Client(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	maxes := c.MovementMaxes
	if maxes == nil {
		maxes = loadcalc.Maxes{}
	}
	writeJSON(w, http.StatusOK, maxes)
}

type attemptRequest struct {
	Exercise string  `json:"exercise"`
	Weight   float64 `json:"weight"`
	Reps     int     `json:"reps"`
}

func (s *Server) handleRecordAttempt(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	c, err := s.repo.Client(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	maxes, err := loadcalc.RecordAttempt(c.MovementMaxes, strings.TrimSpace(req.Exercise), req.Weight, req.Reps)
	if err != nil {
		s.writeError(w, err)
		return
	}
	c.MovementMaxes = maxes
	c.LastUpdated = time.Now().UTC()
	if err := s.repo.SaveClient(r.Context(), c); err != nil {
		s.writeError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.CounterAttemptsRecorded.Inc()
	}
	writeJSON(w, http.StatusOK, maxes)
}

func (s *Server) handleLogWorkout(w http.ResponseWriter, r *http.Request) {
	var log models.WorkoutLog
	if !decodeJSON(w, r, &log) {
		return
	}
	ctx := r.Context()
	c, err := s.repo.Client(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.clientProgram(r, c, log.ProgramID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	updated, err := s.logWorkout(ctx, c, p, log)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, updated)
}

// logWorkout applies a log to the client and, when the log names a workout,
// marks it completed. The client is saved before the program: a failed
// program save leaves the log recorded and the workout open, so the workout
// can still be completed on its own.
func (s *Server) logWorkout(ctx context.Context, c models.Client, p models.Program, log models.WorkoutLog) (models.Client, error) {
	now := time.Now().UTC()
	if log.WorkoutID != "" {
		var err error
		p, err = progress.CompleteWorkout(p, log.WorkoutID, now)
		if err != nil {
			return models.Client{}, err
		}
	}
	updated, err := progress.LogWorkout(c, p, log, now)
	if err != nil {
		return models.Client{}, err
	}
	if err := s.repo.SaveClient(ctx, updated); err != nil {
		return models.Client{}, err
	}
	if log.WorkoutID != "" {
		if err := s.repo.SaveProgram(ctx, p); err != nil {
			return models.Client{}, err
		}
	}

	if s.metrics != nil {
		s.metrics.CounterWorkoutsLogged.Inc()
		s.metrics.CounterAttemptsRecorded.Add(float64(progress.RecordedAttempts(log)))
	}
	return updated, nil
}

// clientProgram loads programID, or the client's active program when empty,
// and checks it belongs to the client.
func (s *Server) clientProgram(r *http.Request, c models.Client, programID string) (models.Program, error) {
	if programID == "" {
		if c.ActiveProgram == nil {
			return models.Program{}, fmt.Errorf("client %s has no active program: %w", c.ID, storage.ErrNotFound)
		}
		programID = *c.ActiveProgram
	}
	p, err := s.repo.Program(r.Context(), programID)
	if err != nil {
		return models.Program{}, err
	}
	if p.ClientID != c.ID {
		return models.Program{}, fmt.Errorf("%w: program %s belongs to another client", models.ErrInvalidRecord, p.ID)
	}
	return p, nil
}

type weekProgressResponse struct {
	ClientID  string                 `json:"clientId"`
	ProgramID string                 `json:"programId"`
	Week      int                    `json:"week"`
	Metrics   models.WeeklyMetrics   `json:"metrics"`
	Review    *models.WeeklyProgress `json:"review,omitempty"`
	Client    models.ClientMetrics   `json:"clientMetrics"`
}

func (s *Server) handleWeekProgress(w http.ResponseWriter, r *http.Request) {
	c, err := s.repo.Client(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.clientProgram(r, c, r.URL.Query().Get("programId"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	week := 0
	if v := r.URL.Query().Get("week"); v != "" {
		week, err = strconv.Atoi(v)
		if err != nil || week < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "week must be a positive integer"})
			return
		}
	} else {
		start, err := schedule.ParseStartDate(p.Config.StartDate)
		if err != nil {
			s.writeError(w, err)
			return
		}
		week = progress.CurrentWeek(start, civil.DateOf(time.Now()))
	}

	resp := weekProgressResponse{
		ClientID:  c.ID,
		ProgramID: p.ID,
		Week:      week,
		Metrics:   progress.WeekSummary(c, p, week),
		Client:    c.Metrics,
	}
	for i := range c.WeeklyProgress {
		if c.WeeklyProgress[i].ProgramID == p.ID && c.WeeklyProgress[i].Week == week {
			resp.Review = &c.WeeklyProgress[i]
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
