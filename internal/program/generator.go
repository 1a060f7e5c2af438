// Package program builds training programs: it schedules workout dates,
// obtains workout templates from a generator and stamps each template onto
// its calendar slot.
package program

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/claude/coachdesk/internal/models"
)

// Generator drafts workout templates for a program config.
type Generator interface {
	Generate(ctx context.Context, cfg models.ProgramConfig) ([]models.WorkoutTemplate, error)
}

// Completer sends one system and one user message and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

const systemPrompt = "You are an expert strength and conditioning coach. Respond only with valid JSON matching the specified structure exactly."

// CompletionGenerator asks a chat-completion endpoint for templates.
type CompletionGenerator struct {
	completer Completer
}

// NewCompletionGenerator wraps a Completer.
func NewCompletionGenerator(c Completer) *CompletionGenerator {
	return &CompletionGenerator{completer: c}
}

// Generate implements Generator.
func (g *CompletionGenerator) Generate(ctx context.Context, cfg models.ProgramConfig) ([]models.WorkoutTemplate, error) {
	content, err := g.completer.Complete(ctx, systemPrompt, BuildPrompt(cfg))
	if err != nil {
		return nil, err
	}
	return ParseTemplates(content)
}

// ParseTemplates decodes a {"workouts": [...]} reply and validates each template.
func ParseTemplates(content string) ([]models.WorkoutTemplate, error) {
	var reply struct {
		Workouts []models.WorkoutTemplate `json:"workouts"`
	}
	if err := json.Unmarshal([]byte(content), &reply); err != nil {
		return nil, fmt.Errorf("decoding generated workouts: %w", err)
	}
	if len(reply.Workouts) == 0 {
		return nil, errors.New("generated program has no workouts")
	}
	for i, w := range reply.Workouts {
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("generated workout %d: %w", i+1, err)
		}
	}
	return reply.Workouts, nil
}

// BuildPrompt renders the coaching request for a config.
func BuildPrompt(cfg models.ProgramConfig) string {
	var b strings.Builder
	b.WriteString("As an expert strength and conditioning coach, create a detailed training program with the following requirements:\n\n")
	b.WriteString("Client Details:\n")
	fmt.Fprintf(&b, "- Name: %s\n", cfg.ClientName)
	fmt.Fprintf(&b, "- Experience Level: %s\n", cfg.ExperienceLevel)
	fmt.Fprintf(&b, "- Primary Goal: %s\n", cfg.Goal)
	fmt.Fprintf(&b, "- Race Type: %s\n", cfg.RaceType)
	fmt.Fprintf(&b, "- Race Date: %s\n", cfg.RaceDate)
	fmt.Fprintf(&b, "- Days per Week: %d\n", cfg.DaysPerWeek)
	fmt.Fprintf(&b, "- Program Length: %d weeks\n", cfg.ProgramLength)
	fmt.Fprintf(&b, "- Start Date: %s\n", cfg.StartDate)
	fmt.Fprintf(&b, "- Preferred Workout Days: %s\n", strings.Join(cfg.WorkoutDays, ", "))
	if cfg.Injury != nil {
		fmt.Fprintf(&b, "- Injury Consideration: %s (%s)\n", cfg.Injury.Type, cfg.Injury.Severity)
	}
	fmt.Fprintf(&b, "\nCreate a program with exactly %d workouts.\n", cfg.ProgramLength*cfg.DaysPerWeek)
	b.WriteString(`Each workout must include:
1. A warmup section with at least 1 exercise
2. 1-3 supersets with 2-4 exercises each
3. A cooldown section with at least 1 exercise

Each exercise must specify:
- name (string)
- sets (number)
- reps (number)
- restBetweenSets (number, in seconds)
- percentageOfMax (optional number, percent of the client's one-rep max)
- notes (optional string)

Response must be a valid JSON object with this exact structure:
{
  "workouts": [
    {
      "name": "string",
      "focus": "string",
      "warmup": [Exercise],
      "supersets": [
        {
          "name": "string",
          "exercises": [Exercise]
        }
      ],
      "cooldown": [Exercise]
    }
  ]
}`)
	return b.String()
}
