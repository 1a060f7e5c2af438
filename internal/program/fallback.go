package program

import (
	"context"
	"fmt"

	"github.com/claude/coachdesk/internal/models"
)

// FallbackTemplate is the fixed full-body session used when no generator
// result is available. i is 1-based.
func FallbackTemplate(i int) models.WorkoutTemplate {
	return models.WorkoutTemplate{
		Name:  fmt.Sprintf("Workout %d", i),
		Focus: "Strength and Conditioning",
		Warmup: []models.Exercise{
			{Name: "Dynamic Stretching", Sets: 1, Reps: 10, Notes: "Full body warm-up"},
		},
		Supersets: []models.Superset{{
			Name: "Main Workout",
			Exercises: []models.Exercise{
				{Name: "Squats", Sets: 3, Reps: 10, RestBetweenSets: 90},
				{Name: "Push-ups", Sets: 3, Reps: 12, RestBetweenSets: 60},
			},
		}},
		Cooldown: []models.Exercise{
			{Name: "Static Stretching", Sets: 1, Reps: 5, Notes: "Hold each stretch for 30 seconds"},
		},
	}
}

// Fallback returns n fallback templates.
func Fallback(n int) []models.WorkoutTemplate {
	out := make([]models.WorkoutTemplate, max(n, 0))
	for i := range out {
		out[i] = FallbackTemplate(i + 1)
	}
	return out
}

// FallbackGenerator always returns the fallback templates.
type FallbackGenerator struct{}

// Generate implements Generator.
func (FallbackGenerator) Generate(_ context.Context, cfg models.ProgramConfig) ([]models.WorkoutTemplate, error) {
	return Fallback(cfg.ProgramLength * cfg.DaysPerWeek), nil
}
