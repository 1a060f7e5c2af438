// Package loadcalc estimates one-rep maxes, derives percentage-based loads and
// keeps a bounded per-exercise attempt history.
package loadcalc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidInput is returned for non-positive loads or reps, negative
// percentages and other values the formulas are not defined for.
var ErrInvalidInput = errors.New("invalid input")

const (
	// HistoryLimit is the number of attempts retained per exercise.
	HistoryLimit = 10
	// DefaultIncrement is the plate increment used when rounding loads.
	DefaultIncrement = 5.0

	// MaxReps is the largest rep count that keeps the Brzycki denominator positive.
	MaxReps = 36
)

// Attempt is one logged set used to estimate a max.
type Attempt struct {
	Weight float64   `json:"weight"`
	Reps   int       `json:"reps"`
	Date   time.Time `json:"date"`
}

// MovementMax is the best known estimate for an exercise plus its recent attempts.
type MovementMax struct {
	OneRepMax float64   `json:"oneRepMax"`
	History   []Attempt `json:"history"`
}

// UnmarshalJSON accepts either the full record or a bare number, which older
// client snapshots stored as the max alone.
func (m *MovementMax) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' && data[0] != 'n' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("movement max: %w", err)
		}
		*m = MovementMax{OneRepMax: v}
		return nil
	}
	type plain MovementMax
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = MovementMax(p)
	return nil
}

// Maxes maps exercise names to their max records.
type Maxes map[string]MovementMax

// EstimateOneRepMax applies the Brzycki formula. A single rep returns the
// weight unchanged.
func EstimateOneRepMax(weight float64, reps int) (float64, error) {
	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return 0, fmt.Errorf("%w: weight must be positive, got %v", ErrInvalidInput, weight)
	}
	if reps <= 0 {
		return 0, fmt.Errorf("%w: reps must be positive, got %d", ErrInvalidInput, reps)
	}
	if reps > MaxReps {
		return 0, fmt.Errorf("%w: %d reps is outside the Brzycki range (max %d)", ErrInvalidInput, reps, MaxReps)
	}
	if reps == 1 {
		return weight, nil
	}
	return weight / (1.0278 - 0.0278*float64(reps)), nil
}

// TargetWeightForPercentage scales a one-rep max linearly.
func TargetWeightForPercentage(oneRepMax, percentage float64) (float64, error) {
	if oneRepMax <= 0 {
		return 0, fmt.Errorf("%w: one-rep max must be positive, got %v", ErrInvalidInput, oneRepMax)
	}
	if percentage < 0 {
		return 0, fmt.Errorf("%w: percentage must not be negative, got %v", ErrInvalidInput, percentage)
	}
	return oneRepMax * (percentage / 100), nil
}

// RoundToIncrement rounds to the nearest multiple of increment, halves up.
func RoundToIncrement(weight, increment float64) (float64, error) {
	if increment <= 0 {
		return 0, fmt.Errorf("%w: increment must be positive, got %v", ErrInvalidInput, increment)
	}
	if weight < 0 {
		return 0, fmt.Errorf("%w: weight must not be negative, got %v", ErrInvalidInput, weight)
	}
	return math.Floor(weight/increment+0.5) * increment, nil
}

// RecordAttempt logs an attempt at the current time. See RecordAttemptAt.
func RecordAttempt(current Maxes, exerciseName string, weight float64, reps int) (Maxes, error) {
	return RecordAttemptAt(current, exerciseName, weight, reps, time.Now().UTC())
}

// RecordAttemptAt returns a copy of current with the named exercise's record
// updated: the max only ever increases and the history keeps the most recent
// HistoryLimit attempts. current is not modified.
func RecordAttemptAt(current Maxes, exerciseName string, weight float64, reps int, at time.Time) (Maxes, error) {
	if strings.TrimSpace(exerciseName) == "" {
		return nil, fmt.Errorf("%w: exercise name is required", ErrInvalidInput)
	}
	estimated, err := EstimateOneRepMax(weight, reps)
	if err != nil {
		return nil, err
	}

	next := make(Maxes, len(current)+1)
	for name, rec := range current {
		next[name] = rec
	}

	rec, ok := current[exerciseName]
	if !ok {
		rec = MovementMax{OneRepMax: estimated}
	}
	if estimated > rec.OneRepMax {
		rec.OneRepMax = estimated
	}

	history := make([]Attempt, 0, min(len(rec.History)+1, HistoryLimit))
	if drop := len(rec.History) + 1 - HistoryLimit; drop > 0 {
		history = append(history, rec.History[drop:]...)
	} else {
		history = append(history, rec.History...)
	}
	rec.History = append(history, Attempt{Weight: weight, Reps: reps, Date: at})

	next[exerciseName] = rec
	return next, nil
}

// Best returns the stored max for an exercise, if any.
func (m Maxes) Best(exerciseName string) (float64, bool) {
	rec, ok := m[exerciseName]
	if !ok || rec.OneRepMax <= 0 {
		return 0, false
	}
	return rec.OneRepMax, true
}
