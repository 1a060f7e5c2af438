package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/claude/coachdesk/internal/loadcalc"
	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/progress"
	"github.com/claude/coachdesk/internal/storage"
)

// handleGenerateProgram builds a program and returns it without storing it,
// leaving persistence to the caller.
func (s *Server) handleGenerateProgram(w http.ResponseWriter, r *http.Request) {
	var cfg models.ProgramConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}
	maxes, err := s.clientMaxes(r, cfg.ClientID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err := s.programs.Create(r.Context(), cfg, maxes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// clientMaxes returns the stored maxes for a client, or nil when the client
// is unknown.
func (s *Server) clientMaxes(r *http.Request, clientID string) (loadcalc.Maxes, error) {
	if clientID == "" {
		return nil, nil
	}
	c, err := s.repo.Client(r.Context(), clientID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c.MovementMaxes, nil
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var cfg models.ProgramConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}
	ctx := r.Context()
	c, err := s.repo.Client(ctx, cfg.ClientID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if cfg.ClientName == "" {
		cfg.ClientName = c.Name
	}
	p, err := s.programs.Create(ctx, cfg, c.MovementMaxes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.repo.AttachProgram(ctx, p); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.repo.Programs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if clientID := r.URL.Query().Get("clientId"); clientID != "" {
		filtered := make([]models.Program, 0, len(programs))
		for _, p := range programs {
			if p.ClientID == clientID {
				filtered = append(filtered, p)
			}
		}
		programs = filtered
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	p, err := s.repo.Program(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleGetCurrentProgram(w http.ResponseWriter, r *http.Request) {
	p, err := s.repo.CurrentProgram(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutCurrentProgram(w http.ResponseWriter, r *http.Request) {
	var p models.Program
	if !decodeJSON(w, r, &p) {
		return
	}
	p.LastUpdated = time.Now().UTC()
	if err := s.repo.PutCurrentProgram(r.Context(), p); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.repo.Program(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	p, err = progress.CompleteWorkout(p, chi.URLParam(r, "workoutID"), time.Now().UTC())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.repo.SaveProgram(ctx, p); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
