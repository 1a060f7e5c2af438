package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/claude/coachdesk/internal/exercises"
	"github.com/claude/coachdesk/internal/metrics"
	"github.com/claude/coachdesk/internal/program"
	"github.com/claude/coachdesk/internal/storage"
)

// IdentityFunc resolves the caller behind a remote address, for example
// through a tailnet WhoIs lookup.
type IdentityFunc func(ctx context.Context, remoteAddr string) (UserInfo, error)

// Server holds dependencies for HTTP handlers.
type Server struct {
	repo      *storage.Repository
	programs  *program.Service
	catalog   *exercises.Catalog
	log       *slog.Logger
	apiKey    string
	router    chi.Router
	metrics   *metrics.Manager
	gatherer  prometheus.Gatherer
	identity  IdentityFunc
	increment float64
}

// New creates a new Server with all routes configured.
func New(repo *storage.Repository, programs *program.Service, catalog *exercises.Catalog, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		repo:     repo,
		programs: programs,
		catalog:  catalog,
		log:      log,
		apiKey:   apiKey,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetMetrics enables request instrumentation and the /metrics endpoint.
func (s *Server) SetMetrics(m *metrics.Manager, g prometheus.Gatherer) {
	s.metrics = m
	s.gatherer = g
}

// SetIdentity installs a caller lookup. Without one every request is the
// local trainer.
func (s *Server) SetIdentity(fn IdentityFunc) {
	s.identity = fn
}

// SetIncrement sets the default plate increment for the target-weight
// calculator.
func (s *Server) SetIncrement(inc float64) {
	s.increment = inc
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(s.requestMetrics)
	s.router.Use(CORS)
	s.router.Use(s.identify)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/metrics", s.handleMetrics)

	s.router.Group(func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}

		r.Post("/api/generate-program", s.handleGenerateProgram)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/me", s.handleMe)

			r.Get("/clients", s.handleListClients)
			r.Post("/clients", s.handleCreateClient)
			r.Get("/clients/{id}", s.handleGetClient)
			r.Put("/clients/{id}", s.handlePutClient)
			r.Get("/clients/{id}/maxes", s.handleGetMaxes)
			r.Post("/clients/{id}/maxes", s.handleRecordAttempt)
			r.Post("/clients/{id}/logs", s.handleLogWorkout)
			r.Get("/clients/{id}/progress", s.handleWeekProgress)

			r.Get("/programs", s.handleListPrograms)
			r.Post("/programs", s.handleCreateProgram)
			r.Get("/programs/current", s.handleGetCurrentProgram)
			r.Put("/programs/current", s.handlePutCurrentProgram)
			r.Get("/programs/{id}", s.handleGetProgram)
			r.Post("/programs/{id}/workouts/{workoutID}/complete", s.handleCompleteWorkout)
			r.Get("/programs/{id}/workouts/{workoutID}/progress", s.handleGetSession)
			r.Post("/programs/{id}/workouts/{workoutID}/progress", s.handleUpdateSession)
			r.Post("/programs/{id}/workouts/{workoutID}/progress/log", s.handleLogSession)

			r.Post("/schedule", s.handleSchedule)
			r.Post("/calc/one-rep-max", s.handleOneRepMax)
			r.Post("/calc/target-weight", s.handleTargetWeight)
			r.Get("/exercises/{name}", s.handleExercise)
		})
	})
}

// SetFrontend mounts a static SPA filesystem.
// Unmatched routes serve index.html for client-side routing.
func (s *Server) SetFrontend(webFS fs.FS) {
	fileServer := http.FileServerFS(webFS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		// Try to serve the exact file first
		f, err := webFS.Open(r.URL.Path[1:]) // strip leading /
		if err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}
		// Fallback to index.html for SPA routing
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}
