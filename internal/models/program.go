package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Date is a calendar date serialised as YYYY-MM-DD. It also accepts RFC 3339
// timestamps on input, keeping the date part as written, so snapshots saved
// with full ISO timestamps still load.
type Date struct {
	civil.Date
}

// DateOf wraps a civil.Date.
func DateOf(d civil.Date) Date {
	return Date{Date: d}
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Date.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDate parses YYYY-MM-DD or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if cd, err := civil.ParseDate(s); err == nil {
		return Date{Date: cd}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return Date{Date: civil.DateOf(t)}, nil
}

// Program sources.
const (
	SourceCompletion = "completion"
	SourceFallback   = "fallback"
)

// Injury is an optional constraint passed to program generation.
type Injury struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Notes    string `json:"notes,omitempty"`
}

// ProgramConfig is the request to build a program for a client.
type ProgramConfig struct {
	ClientID        string   `json:"clientId"`
	ClientName      string   `json:"clientName"`
	ExperienceLevel string   `json:"experienceLevel,omitempty"`
	Goal            string   `json:"goal,omitempty"`
	RaceType        string   `json:"raceType,omitempty"`
	RaceDate        string   `json:"raceDate,omitempty"`
	DaysPerWeek     int      `json:"daysPerWeek"`
	ProgramLength   int      `json:"programLength"`
	StartDate       string   `json:"startDate"`
	WorkoutDays     []string `json:"workoutDays"`
	Injury          *Injury  `json:"injury,omitempty"`
}

// Exercise is a prescribed movement within a workout section.
type Exercise struct {
	Name            string   `json:"name"`
	Sets            int      `json:"sets"`
	Reps            int      `json:"reps"`
	Notes           string   `json:"notes,omitempty"`
	PercentageOfMax *float64 `json:"percentageOfMax,omitempty"`
	RestBetweenSets int      `json:"restBetweenSets,omitempty"`
	TargetWeight    *float64 `json:"targetWeight,omitempty"`
}

// Superset groups exercises performed back to back with shared rest.
type Superset struct {
	Name            string     `json:"name"`
	Exercises       []Exercise `json:"exercises"`
	RestBetweenSets int        `json:"restBetweenSets,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// WorkoutTemplate is a workout before it is placed on the calendar.
type WorkoutTemplate struct {
	Name      string     `json:"name"`
	Focus     string     `json:"focus"`
	Warmup    []Exercise `json:"warmup"`
	Supersets []Superset `json:"supersets"`
	Cooldown  []Exercise `json:"cooldown"`
}

// Workout is a scheduled occurrence of a template.
type Workout struct {
	WorkoutTemplate
	ID        string `json:"id"`
	Date      Date   `json:"date"`
	Week      int    `json:"week"`
	Day       int    `json:"day"`
	Completed bool   `json:"completed,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Program is a multi-week plan for one client.
type Program struct {
	ID                string        `json:"id"`
	ClientID          string        `json:"clientId"`
	Name              string        `json:"name,omitempty"`
	Config            ProgramConfig `json:"config"`
	Workouts          []Workout     `json:"workouts"`
	CompletedWorkouts []string      `json:"completedWorkouts"`
	Source            string        `json:"source,omitempty"`
	DateCreated       time.Time     `json:"dateCreated"`
	LastUpdated       time.Time     `json:"lastUpdated"`
}

// Workout returns the workout with the given id.
func (p *Program) Workout(id string) (*Workout, bool) {
	for i := range p.Workouts {
		if p.Workouts[i].ID == id {
			return &p.Workouts[i], true
		}
	}
	return nil, false
}

// IsCompleted reports whether a workout id is in CompletedWorkouts.
func (p *Program) IsCompleted(workoutID string) bool {
	for _, id := range p.CompletedWorkouts {
		if id == workoutID {
			return true
		}
	}
	return false
}
