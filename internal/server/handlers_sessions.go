package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/progress"
	"github.com/claude/coachdesk/internal/storage"
)

// sessionResponse is the in-session progress of one workout.
type sessionResponse struct {
	ProgramID string                   `json:"programId"`
	Progress  progress.WorkoutProgress `json:"progress"`
	Percent   float64                  `json:"percent"`
}

// setUpdate changes one exercise of a session. Set-level fields need Set.
type setUpdate struct {
	Exercise  string   `json:"exercise"`
	Set       *int     `json:"set,omitempty"`
	Completed *bool    `json:"completed,omitempty"`
	Weight    *float64 `json:"weight,omitempty"`
	Reps      *int     `json:"reps,omitempty"`
	Notes     *string  `json:"notes,omitempty"`
}

// sessionLog carries the subjective fields of a log built from a session.
type sessionLog struct {
	FeelingRating int      `json:"feelingRating"`
	SleepQuality  int      `json:"sleepQuality"`
	StressLevel   int      `json:"stressLevel"`
	Bodyweight    *float64 `json:"bodyweight,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// session loads a program and the stored progress of one of its workouts,
// seeding fresh progress from the prescription when none is stored.
func (s *Server) session(ctx context.Context, programID, workoutID string) (models.Program, progress.WorkoutProgress, error) {
	p, err := s.repo.Program(ctx, programID)
	if err != nil {
		return models.Program{}, progress.WorkoutProgress{}, err
	}
	wo, ok := p.Workout(workoutID)
	if !ok {
		return models.Program{}, progress.WorkoutProgress{}, fmt.Errorf("%w: %s in program %s", progress.ErrWorkoutNotFound, workoutID, p.ID)
	}
	wp, err := s.repo.WorkoutProgress(ctx, p.ID, workoutID)
	if errors.Is(err, storage.ErrNotFound) {
		return p, progress.NewWorkoutProgress(*wo), nil
	}
	if err != nil {
		return models.Program{}, progress.WorkoutProgress{}, err
	}
	return p, wp, nil
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	p, wp, err := s.session(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "workoutID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ProgramID: p.ID, Progress: wp, Percent: wp.Percent()})
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var req setUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	p, wp, err := s.session(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "workoutID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	wp, err = applySetUpdate(wp, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.repo.SaveWorkoutProgress(ctx, p.ID, wp); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ProgramID: p.ID, Progress: wp, Percent: wp.Percent()})
}

func applySetUpdate(wp progress.WorkoutProgress, req setUpdate) (progress.WorkoutProgress, error) {
	if req.Exercise == "" {
		return wp, fmt.Errorf("%w: exercise is required", models.ErrInvalidRecord)
	}
	setLevel := req.Completed != nil || req.Weight != nil || req.Reps != nil
	if setLevel && req.Set == nil {
		return wp, fmt.Errorf("%w: set is required to change completed, weight or reps", models.ErrInvalidRecord)
	}

	var err error
	if req.Weight != nil {
		if wp, err = wp.SetWeight(req.Exercise, *req.Set, *req.Weight); err != nil {
			return wp, err
		}
	}
	if req.Reps != nil {
		if wp, err = wp.SetReps(req.Exercise, *req.Set, *req.Reps); err != nil {
			return wp, err
		}
	}
	if req.Completed != nil {
		if wp, err = wp.SetCompleted(req.Exercise, *req.Set, *req.Completed); err != nil {
			return wp, err
		}
	}
	if req.Notes != nil {
		if wp, err = wp.SetNotes(req.Exercise, *req.Notes); err != nil {
			return wp, err
		}
	}
	return wp, nil
}

// handleLogSession turns the completed sets of a session into a workout log
// for the program's client, then clears the session.
func (s *Server) handleLogSession(w http.ResponseWriter, r *http.Request) {
	var req sessionLog
	if !decodeJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	p, wp, err := s.session(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "workoutID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	c, err := s.repo.Client(ctx, p.ClientID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	log := models.WorkoutLog{
		ProgramID:     p.ID,
		WorkoutID:     wp.WorkoutID,
		Exercises:     wp.Log(),
		Notes:         req.Notes,
		FeelingRating: req.FeelingRating,
		SleepQuality:  req.SleepQuality,
		StressLevel:   req.StressLevel,
		Bodyweight:    req.Bodyweight,
	}
	updated, err := s.logWorkout(ctx, c, p, log)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.repo.ClearWorkoutProgress(ctx, p.ID, wp.WorkoutID); err != nil {
		s.log.Warn("failed to clear workout progress", "program", p.ID, "workout", wp.WorkoutID, "error", err)
	}
	writeJSON(w, http.StatusCreated, updated)
}
