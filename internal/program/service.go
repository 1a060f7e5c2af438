package program

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"

	"github.com/claude/coachdesk/internal/loadcalc"
	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/schedule"
)

// DefaultTimeout bounds a single generator call.
const DefaultTimeout = 90 * time.Second

// Recorder observes created programs.
type Recorder interface {
	ProgramGenerated(source string)
}

// Service creates programs.
type Service struct {
	gen       Generator
	timeout   time.Duration
	increment float64
	recorder  Recorder
	log       *slog.Logger

	now   func() time.Time
	newID func() string
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout sets the generator timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithIncrement sets the plate increment used for target weights.
func WithIncrement(inc float64) Option {
	return func(s *Service) {
		if inc > 0 {
			s.increment = inc
		}
	}
}

// WithRecorder registers a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService creates a Service. A nil generator always uses the fallback.
func NewService(gen Generator, logger *slog.Logger, opts ...Option) *Service {
	if gen == nil {
		gen = FallbackGenerator{}
	}
	s := &Service{
		gen:       gen,
		timeout:   DefaultTimeout,
		increment: loadcalc.DefaultIncrement,
		log:       logger,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create validates cfg, schedules its dates and builds a program from the
// generator's templates. Generator failures fall back to the fixed templates;
// config and scheduling errors are returned. When maxes is non-nil, exercises
// with a percentage of max get a rounded target weight.
func (s *Service) Create(ctx context.Context, cfg models.ProgramConfig, maxes loadcalc.Maxes) (models.Program, error) {
	if err := cfg.Validate(); err != nil {
		return models.Program{}, err
	}
	start, err := schedule.ParseStartDate(cfg.StartDate)
	if err != nil {
		return models.Program{}, err
	}
	dates, err := schedule.Generate(schedule.Input{
		StartDate:     start,
		WorkoutDays:   cfg.WorkoutDays,
		DaysPerWeek:   cfg.DaysPerWeek,
		ProgramLength: cfg.ProgramLength,
	})
	if err != nil {
		return models.Program{}, err
	}

	source := models.SourceCompletion
	templates, err := s.generate(ctx, cfg)
	if err != nil {
		s.log.Warn("program generator failed, using fallback", "client", cfg.ClientID, "error", err)
		source = models.SourceFallback
		templates = nil
	}
	if len(templates) == 0 {
		source = models.SourceFallback
	}
	if _, ok := s.gen.(FallbackGenerator); ok {
		source = models.SourceFallback
	}

	workouts := Assemble(dates, templates, cfg.DaysPerWeek, s.newID)
	if maxes != nil {
		workouts, err = ApplyTargetWeights(workouts, maxes, s.increment)
		if err != nil {
			return models.Program{}, err
		}
	}

	now := s.now()
	p := models.Program{
		ID:                s.newID(),
		ClientID:          cfg.ClientID,
		Name:              programName(cfg),
		Config:            cfg,
		Workouts:          workouts,
		CompletedWorkouts: []string{},
		Source:            source,
		DateCreated:       now,
		LastUpdated:       now,
	}
	if s.recorder != nil {
		s.recorder.ProgramGenerated(source)
	}
	s.log.Info("program created", "program", p.ID, "client", p.ClientID, "workouts", len(workouts), "source", source)
	return p, nil
}

func (s *Service) generate(ctx context.Context, cfg models.ProgramConfig) ([]models.WorkoutTemplate, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.gen.Generate(ctx, cfg)
}

func programName(cfg models.ProgramConfig) string {
	if cfg.ClientName == "" {
		return fmt.Sprintf("%d-week program", cfg.ProgramLength)
	}
	return fmt.Sprintf("%s: %d-week program", cfg.ClientName, cfg.ProgramLength)
}

// Assemble zips dates with templates by index. Extra templates are dropped
// and missing ones are filled from the fallback so every date gets a workout.
// Week and day come from the index: week = i/daysPerWeek+1, day =
// i%daysPerWeek+1.
func Assemble(dates []civil.Date, templates []models.WorkoutTemplate, daysPerWeek int, newID func() string) []models.Workout {
	if daysPerWeek <= 0 {
		daysPerWeek = 1
	}
	out := make([]models.Workout, len(dates))
	for i, d := range dates {
		var t models.WorkoutTemplate
		if i < len(templates) {
			t = templates[i]
		} else {
			t = FallbackTemplate(i + 1)
		}
		out[i] = models.Workout{
			WorkoutTemplate: t,
			ID:              newID(),
			Date:            models.DateOf(d),
			Week:            i/daysPerWeek + 1,
			Day:             i%daysPerWeek + 1,
		}
	}
	return out
}

// ApplyTargetWeights returns copies of the workouts where every exercise with
// a percentage of max and a known max for its name carries the rounded
// target weight. Other exercises are copied unchanged.
func ApplyTargetWeights(workouts []models.Workout, maxes loadcalc.Maxes, increment float64) ([]models.Workout, error) {
	apply := func(exs []models.Exercise) ([]models.Exercise, error) {
		if exs == nil {
			return nil, nil
		}
		out := make([]models.Exercise, len(exs))
		for i, ex := range exs {
			out[i] = ex
			if ex.PercentageOfMax == nil {
				continue
			}
			best, ok := maxes.Best(ex.Name)
			if !ok {
				continue
			}
			w, err := loadcalc.TargetWeightForPercentage(best, *ex.PercentageOfMax)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", ex.Name, err)
			}
			w, err = loadcalc.RoundToIncrement(w, increment)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", ex.Name, err)
			}
			out[i].TargetWeight = &w
		}
		return out, nil
	}

	out := make([]models.Workout, len(workouts))
	for i, w := range workouts {
		var err error
		if w.Warmup, err = apply(w.Warmup); err != nil {
			return nil, err
		}
		if w.Cooldown, err = apply(w.Cooldown); err != nil {
			return nil, err
		}
		supersets := make([]models.Superset, len(w.Supersets))
		for j, ss := range w.Supersets {
			if ss.Exercises, err = apply(ss.Exercises); err != nil {
				return nil, err
			}
			supersets[j] = ss
		}
		if w.Supersets != nil {
			w.Supersets = supersets
		}
		out[i] = w
	}
	return out, nil
}
