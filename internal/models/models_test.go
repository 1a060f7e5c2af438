package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

// TestDateJSON verifies dates serialise as YYYY-MM-DD and accept ISO timestamps
// written by older snapshots.
func TestDateJSON(t *testing.T) {
	d := DateOf(civil.Date{Year: 2024, Month: time.January, Day: 3})
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"2024-01-03"` {
		t.Errorf("marshal = %s, want \"2024-01-03\"", data)
	}

	for _, in := range []string{`"2024-01-03"`, `"2024-01-03T00:00:00.000Z"`, `"2024-01-03T18:00:00-05:00"`} {
		var got Date
		if err := json.Unmarshal([]byte(in), &got); err != nil {
			t.Errorf("unmarshal %s: %v", in, err)
			continue
		}
		if got != d {
			t.Errorf("unmarshal %s = %s, want %s", in, got, d)
		}
	}

	var bad Date
	if err := json.Unmarshal([]byte(`"soon"`), &bad); err == nil {
		t.Error("expected error for unparseable date")
	}
}

// TestWorkoutJSONFlattensTemplate verifies template fields sit at the top level
// of a workout, matching the stored snapshot shape.
func TestWorkoutJSONFlattensTemplate(t *testing.T) {
	raw := `{"id":"w1","date":"2024-01-01","week":1,"day":1,"name":"Workout 1","focus":"Strength",
		"warmup":[{"name":"Dynamic Stretching","sets":1,"reps":10}],
		"supersets":[{"name":"Main","exercises":[{"name":"Squats","sets":3,"reps":10,"restBetweenSets":90}]}],
		"cooldown":[]}`
	var w Workout
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		t.Fatal(err)
	}
	if w.Name != "Workout 1" || w.Focus != "Strength" {
		t.Errorf("template fields not decoded: %+v", w.WorkoutTemplate)
	}
	if len(w.Supersets) != 1 || w.Supersets[0].Exercises[0].RestBetweenSets != 90 {
		t.Errorf("supersets = %+v", w.Supersets)
	}
}

// TestProgramConfigValidate verifies required fields and enumerations.
func TestProgramConfigValidate(t *testing.T) {
	valid := ProgramConfig{ClientID: "c1", DaysPerWeek: 3, ProgramLength: 4, StartDate: "2024-01-01", WorkoutDays: []string{"monday"}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ProgramConfig)
	}{
		{"missing client", func(c *ProgramConfig) { c.ClientID = "" }},
		{"zero days", func(c *ProgramConfig) { c.DaysPerWeek = 0 }},
		{"zero length", func(c *ProgramConfig) { c.ProgramLength = 0 }},
		{"eight days", func(c *ProgramConfig) { c.DaysPerWeek = 8 }},
		{"huge length", func(c *ProgramConfig) { c.ProgramLength = 1<<62 + 1 }},
		{"missing start", func(c *ProgramConfig) { c.StartDate = "" }},
		{"bad goal", func(c *ProgramConfig) { c.Goal = "bulk" }},
		{"bad level", func(c *ProgramConfig) { c.ExperienceLevel = "elite" }},
		{"bad severity", func(c *ProgramConfig) { c.Injury = &Injury{Type: "knee", Severity: "awful"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("err = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

// TestWorkoutLogValidate verifies ratings must fall within 1..5.
func TestWorkoutLogValidate(t *testing.T) {
	log := WorkoutLog{ProgramID: "p1", FeelingRating: 3, SleepQuality: 4, StressLevel: 2}
	if err := log.Validate(); err != nil {
		t.Fatalf("valid log rejected: %v", err)
	}
	log.StressLevel = 6
	if err := log.Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("err = %v, want ErrInvalidRecord", err)
	}
	log.StressLevel = 2
	log.Exercises = []LoggedExercise{{Name: "Squat", Sets: []LoggedSet{{Weight: -5, Reps: 5}}}}
	if err := log.Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("negative weight err = %v, want ErrInvalidRecord", err)
	}
}

// TestProgramValidate verifies workout ids must be present and unique.
func TestProgramValidate(t *testing.T) {
	day := DateOf(civil.Date{Year: 2024, Month: time.January, Day: 1})
	p := Program{ID: "p1", ClientID: "c1", Workouts: []Workout{{ID: "w1", Date: day}, {ID: "w2", Date: day}}}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid program rejected: %v", err)
	}
	p.Workouts[1].ID = "w1"
	if err := p.Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("duplicate id err = %v, want ErrInvalidRecord", err)
	}
	p.Workouts[1].ID = "w2"
	p.Workouts[1].Date = Date{}
	if err := p.Validate(); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("missing date err = %v, want ErrInvalidRecord", err)
	}
}

// TestProgramHelpers verifies workout lookup and completion checks.
func TestProgramHelpers(t *testing.T) {
	p := Program{Workouts: []Workout{{ID: "a"}, {ID: "b"}}, CompletedWorkouts: []string{"b"}}
	if w, ok := p.Workout("b"); !ok || w.ID != "b" {
		t.Errorf("Workout(b) = %v, %v", w, ok)
	}
	if _, ok := p.Workout("z"); ok {
		t.Error("Workout(z) found")
	}
	if p.IsCompleted("a") || !p.IsCompleted("b") {
		t.Error("IsCompleted mismatch")
	}
}
