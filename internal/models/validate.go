package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecord is returned when a decoded record is missing required
// fields or carries out-of-range values.
var ErrInvalidRecord = errors.New("invalid record")

// Bounds on a program config. They match the scheduler's limits.
const (
	MaxDaysPerWeek   = 7
	MaxProgramLength = 520
)

var (
	experienceLevels = []string{"beginner", "intermediate", "advanced"}
	goals            = []string{"strength", "endurance", "power", "general"}
	severities       = []string{"mild", "moderate", "severe"}
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...))
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Validate checks the fields program generation depends on. Weekday names and
// the start date are checked by the scheduler.
func (c ProgramConfig) Validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return invalid("clientId is required")
	}
	if c.DaysPerWeek <= 0 || c.DaysPerWeek > MaxDaysPerWeek {
		return invalid("daysPerWeek must be between 1 and %d", MaxDaysPerWeek)
	}
	if c.ProgramLength <= 0 || c.ProgramLength > MaxProgramLength {
		return invalid("programLength must be between 1 and %d weeks", MaxProgramLength)
	}
	if strings.TrimSpace(c.StartDate) == "" {
		return invalid("startDate is required")
	}
	if c.ExperienceLevel != "" && !oneOf(c.ExperienceLevel, experienceLevels) {
		return invalid("unknown experienceLevel %q", c.ExperienceLevel)
	}
	if c.Goal != "" && !oneOf(c.Goal, goals) {
		return invalid("unknown goal %q", c.Goal)
	}
	if c.Injury != nil && c.Injury.Severity != "" && !oneOf(c.Injury.Severity, severities) {
		return invalid("unknown injury severity %q", c.Injury.Severity)
	}
	return nil
}

// Validate checks a template returned by a generator.
func (t WorkoutTemplate) Validate() error {
	check := func(section string, exs []Exercise) error {
		for i, ex := range exs {
			if strings.TrimSpace(ex.Name) == "" {
				return invalid("%s[%d]: exercise name is required", section, i)
			}
			if ex.Sets < 0 || ex.Reps < 0 {
				return invalid("%s[%d] %q: sets and reps must not be negative", section, i, ex.Name)
			}
		}
		return nil
	}
	if err := check("warmup", t.Warmup); err != nil {
		return err
	}
	for i, ss := range t.Supersets {
		if err := check(fmt.Sprintf("supersets[%d]", i), ss.Exercises); err != nil {
			return err
		}
	}
	return check("cooldown", t.Cooldown)
}

// Validate checks a stored program.
func (p Program) Validate() error {
	if p.ID == "" {
		return invalid("program id is required")
	}
	if p.ClientID == "" {
		return invalid("program %s: clientId is required", p.ID)
	}
	seen := make(map[string]bool, len(p.Workouts))
	for i, w := range p.Workouts {
		if w.ID == "" {
			return invalid("program %s: workouts[%d] id is required", p.ID, i)
		}
		if seen[w.ID] {
			return invalid("program %s: duplicate workout id %s", p.ID, w.ID)
		}
		seen[w.ID] = true
		if !w.Date.IsValid() {
			return invalid("program %s: workout %s has no valid date", p.ID, w.ID)
		}
		if err := w.WorkoutTemplate.Validate(); err != nil {
			return fmt.Errorf("program %s workout %s: %w", p.ID, w.ID, err)
		}
	}
	return nil
}

// Validate checks a stored client.
func (c Client) Validate() error {
	if c.ID == "" {
		return invalid("client id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return invalid("client %s: name is required", c.ID)
	}
	for i, l := range c.WorkoutLogs {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("client %s workoutLogs[%d]: %w", c.ID, i, err)
		}
	}
	return nil
}

// Validate checks a workout log's ratings and sets.
func (l WorkoutLog) Validate() error {
	if l.ProgramID == "" {
		return invalid("programId is required")
	}
	for name, v := range map[string]int{
		"feelingRating": l.FeelingRating,
		"sleepQuality":  l.SleepQuality,
		"stressLevel":   l.StressLevel,
	} {
		if v < 1 || v > 5 {
			return invalid("%s must be between 1 and 5, got %d", name, v)
		}
	}
	for _, ex := range l.Exercises {
		for j, s := range ex.Sets {
			if s.Weight < 0 || s.Reps < 0 {
				return invalid("%s set %d: weight and reps must not be negative", ex.Name, j+1)
			}
		}
	}
	if l.Bodyweight != nil && *l.Bodyweight <= 0 {
		return invalid("bodyweight must be positive")
	}
	return nil
}
