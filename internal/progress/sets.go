// Package progress tracks in-session set progress, workout completion and
// workout logs, and keeps a client's running metrics up to date.
package progress

import (
	"errors"
	"fmt"

	"github.com/claude/coachdesk/internal/models"
)

var (
	// ErrWorkoutNotFound is returned when a workout id is not part of the program.
	ErrWorkoutNotFound = errors.New("workout not found")
	// ErrUnknownExercise is returned for an exercise key the progress does not hold.
	ErrUnknownExercise = errors.New("unknown exercise")
	// ErrSetOutOfRange is returned for a set index outside the exercise's sets.
	ErrSetOutOfRange = errors.New("set index out of range")
)

// SetProgress is the state of one prescribed set during a session.
type SetProgress struct {
	Reps      int     `json:"reps"`
	Weight    float64 `json:"weight"`
	Completed bool    `json:"completed"`
}

// ExerciseProgress holds the sets of one exercise. Key identifies the
// exercise's section and position within the workout.
type ExerciseProgress struct {
	Key       string        `json:"key"`
	Name      string        `json:"name"`
	Sets      []SetProgress `json:"sets"`
	Notes     string        `json:"notes,omitempty"`
	Completed bool          `json:"completed"`
}

// WorkoutProgress is the session state for one workout.
type WorkoutProgress struct {
	WorkoutID string             `json:"workoutId"`
	Exercises []ExerciseProgress `json:"exercises"`
}

// WarmupKey is the key of the i-th warmup exercise.
func WarmupKey(i int) string { return fmt.Sprintf("warmup-%d", i) }

// SupersetKey is the key of exercise i in superset ss.
func SupersetKey(ss, i int) string { return fmt.Sprintf("superset-%d-%d", ss, i) }

// CooldownKey is the key of the i-th cooldown exercise.
func CooldownKey(i int) string { return fmt.Sprintf("cooldown-%d", i) }

func newExercise(key string, ex models.Exercise) ExerciseProgress {
	weight := 0.0
	if ex.TargetWeight != nil {
		weight = *ex.TargetWeight
	}
	sets := make([]SetProgress, max(ex.Sets, 0))
	for i := range sets {
		sets[i] = SetProgress{Reps: ex.Reps, Weight: weight}
	}
	return ExerciseProgress{Key: key, Name: ex.Name, Sets: sets}
}

// NewWorkoutProgress seeds progress from a workout's prescription: one entry
// per exercise in warmup, supersets and cooldown order.
func NewWorkoutProgress(w models.Workout) WorkoutProgress {
	p := WorkoutProgress{WorkoutID: w.ID}
	for i, ex := range w.Warmup {
		p.Exercises = append(p.Exercises, newExercise(WarmupKey(i), ex))
	}
	for s, ss := range w.Supersets {
		for i, ex := range ss.Exercises {
			p.Exercises = append(p.Exercises, newExercise(SupersetKey(s, i), ex))
		}
	}
	for i, ex := range w.Cooldown {
		p.Exercises = append(p.Exercises, newExercise(CooldownKey(i), ex))
	}
	return p
}

// clone copies the exercise list so updates never alias the caller's value.
func (p WorkoutProgress) clone() WorkoutProgress {
	out := WorkoutProgress{WorkoutID: p.WorkoutID, Exercises: make([]ExerciseProgress, len(p.Exercises))}
	for i, ex := range p.Exercises {
		ex.Sets = append([]SetProgress(nil), ex.Sets...)
		out.Exercises[i] = ex
	}
	return out
}

func (p WorkoutProgress) find(key string) (int, error) {
	for i := range p.Exercises {
		if p.Exercises[i].Key == key {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrUnknownExercise, key)
}

func (p WorkoutProgress) updateSet(key string, set int, fn func(*SetProgress)) (WorkoutProgress, error) {
	i, err := p.find(key)
	if err != nil {
		return p, err
	}
	if set < 0 || set >= len(p.Exercises[i].Sets) {
		return p, fmt.Errorf("%w: %s set %d of %d", ErrSetOutOfRange, key, set, len(p.Exercises[i].Sets))
	}
	out := p.clone()
	ex := &out.Exercises[i]
	fn(&ex.Sets[set])
	ex.Completed = len(ex.Sets) > 0
	for _, s := range ex.Sets {
		if !s.Completed {
			ex.Completed = false
			break
		}
	}
	return out, nil
}

// SetCompleted marks one set done or not done.
func (p WorkoutProgress) SetCompleted(key string, set int, done bool) (WorkoutProgress, error) {
	return p.updateSet(key, set, func(s *SetProgress) { s.Completed = done })
}

// SetWeight records the weight used for one set.
func (p WorkoutProgress) SetWeight(key string, set int, weight float64) (WorkoutProgress, error) {
	if weight < 0 {
		return p, fmt.Errorf("%w: negative weight %v", models.ErrInvalidRecord, weight)
	}
	return p.updateSet(key, set, func(s *SetProgress) { s.Weight = weight })
}

// SetReps records the reps performed for one set.
func (p WorkoutProgress) SetReps(key string, set int, reps int) (WorkoutProgress, error) {
	if reps < 0 {
		return p, fmt.Errorf("%w: negative reps %d", models.ErrInvalidRecord, reps)
	}
	return p.updateSet(key, set, func(s *SetProgress) { s.Reps = reps })
}

// SetNotes replaces an exercise's notes.
func (p WorkoutProgress) SetNotes(key, notes string) (WorkoutProgress, error) {
	i, err := p.find(key)
	if err != nil {
		return p, err
	}
	out := p.clone()
	out.Exercises[i].Notes = notes
	return out, nil
}

// Percent returns completed sets as a percentage of all sets, or 0 when the
// workout has no sets.
func (p WorkoutProgress) Percent() float64 {
	var total, done int
	for _, ex := range p.Exercises {
		for _, s := range ex.Sets {
			total++
			if s.Completed {
				done++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total) * 100
}

// Log converts completed sets into a log entry's exercises. Sets never marked
// complete are left out.
func (p WorkoutProgress) Log() []models.LoggedExercise {
	var out []models.LoggedExercise
	for _, ex := range p.Exercises {
		var sets []models.LoggedSet
		for _, s := range ex.Sets {
			if s.Completed {
				sets = append(sets, models.LoggedSet{Weight: s.Weight, Reps: s.Reps})
			}
		}
		if len(sets) > 0 {
			out = append(out, models.LoggedExercise{Name: ex.Name, Sets: sets, Notes: ex.Notes})
		}
	}
	return out
}
