package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/coachdesk/internal/loadcalc"
	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/schedule"
	"github.com/claude/coachdesk/internal/storage"
)

// --- Tool definitions ---

var toolScheduleWorkouts = mcp.NewTool("schedule_workouts",
	mcp.WithDescription("Compute the calendar dates of a training program. Returns days_per_week * program_length dates on the given weekdays, starting on or after start_date."),
	mcp.WithString("start_date", mcp.Required(), mcp.Description("First possible workout date (YYYY-MM-DD)")),
	mcp.WithArray("workout_days", mcp.Required(), mcp.Description("Weekday names to train on (e.g. monday, wednesday, friday)"), mcp.Items(map[string]any{"type": "string"})),
	mcp.WithNumber("days_per_week", mcp.Required(), mcp.Description("Workouts per week")),
	mcp.WithNumber("program_length", mcp.Required(), mcp.Description("Program length in weeks")),
)

var toolEstimateOneRepMax = mcp.NewTool("estimate_one_rep_max",
	mcp.WithDescription("Estimate a one-rep max from a set using the Brzycki formula."),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Weight lifted")),
	mcp.WithNumber("reps", mcp.Required(), mcp.Description("Repetitions performed (1-36)")),
)

var toolTargetWeight = mcp.NewTool("target_weight",
	mcp.WithDescription("Compute the working weight for a percentage of a one-rep max, rounded to the nearest plate increment."),
	mcp.WithNumber("one_rep_max", mcp.Required(), mcp.Description("One-rep max")),
	mcp.WithNumber("percentage", mcp.Required(), mcp.Description("Percentage of the one-rep max (e.g. 75)")),
	mcp.WithNumber("increment", mcp.Description("Plate increment. Defaults to the server setting.")),
)

var toolListClients = mcp.NewTool("list_clients",
	mcp.WithDescription("List clients with their goals, active program and running workout metrics."),
)

var toolGetClientMaxes = mcp.NewTool("get_client_maxes",
	mcp.WithDescription("Get a client's movement maxes with the recent attempt history per exercise."),
	mcp.WithString("client_id", mcp.Required(), mcp.Description("Client ID")),
	mcp.WithString("exercise", mcp.Description("Only return this exercise (exact name)")),
)

var toolGetCurrentProgram = mcp.NewTool("get_current_program",
	mcp.WithDescription("Get the program currently open in the coaching app, including completed workout IDs."),
	mcp.WithNumber("week", mcp.Description("Only return workouts of this program week")),
)

var toolLookupExercise = mcp.NewTool("lookup_exercise",
	mcp.WithDescription("Look up instructions, tips, equipment and muscle groups for an exercise."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name (e.g. 'Bench Press', 'push-ups')")),
)

// --- Tool handlers ---

func (h *handlers) scheduleWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	startStr, err := req.RequireString("start_date")
	if err != nil {
		return mcp.NewToolResultError("start_date parameter is required"), nil
	}
	days, err := req.RequireStringSlice("workout_days")
	if err != nil {
		return mcp.NewToolResultError("workout_days must be a list of weekday names"), nil
	}
	perWeek, err := req.RequireInt("days_per_week")
	if err != nil {
		return mcp.NewToolResultError("days_per_week parameter is required"), nil
	}
	length, err := req.RequireInt("program_length")
	if err != nil {
		return mcp.NewToolResultError("program_length parameter is required"), nil
	}

	start, err := schedule.ParseStartDate(startStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dates, err := schedule.Generate(schedule.Input{
		StartDate:     start,
		WorkoutDays:   days,
		DaysPerWeek:   perWeek,
		ProgramLength: length,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.String()
	}
	return jsonResult(map[string]any{"dates": out})
}

func (h *handlers) estimateOneRepMax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	reps, err := req.RequireInt("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}
	orm, err := loadcalc.EstimateOneRepMax(weight, reps)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]float64{"one_rep_max": orm})
}

func (h *handlers) targetWeight(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orm, err := req.RequireFloat("one_rep_max")
	if err != nil {
		return mcp.NewToolResultError("one_rep_max parameter is required"), nil
	}
	pct, err := req.RequireFloat("percentage")
	if err != nil {
		return mcp.NewToolResultError("percentage parameter is required"), nil
	}
	inc := req.GetFloat("increment", h.increment)

	raw, err := loadcalc.TargetWeightForPercentage(orm, pct)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rounded, err := loadcalc.RoundToIncrement(raw, inc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]float64{"target_weight": raw, "rounded": rounded, "increment": inc})
}

// clientSummary is the list_clients view of a client, without logs.
type clientSummary struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Goals         []string             `json:"goals"`
	Injuries      []string             `json:"injuries"`
	ActiveProgram *string              `json:"active_program"`
	Programs      int                  `json:"programs"`
	Logs          int                  `json:"workout_logs"`
	Metrics       models.ClientMetrics `json:"metrics"`
}

func summarize(clients []models.Client) []clientSummary {
	out := make([]clientSummary, len(clients))
	for i, c := range clients {
		out[i] = clientSummary{
			ID:            c.ID,
			Name:          c.Name,
			Goals:         c.Goals,
			Injuries:      c.Injuries,
			ActiveProgram: c.ActiveProgram,
			Programs:      len(c.Programs),
			Logs:          len(c.WorkoutLogs),
			Metrics:       c.Metrics,
		}
	}
	return out
}

func (h *handlers) listClients(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clients, err := h.ds.Clients(ctx)
	if err != nil {
		h.log.Error("mcp list_clients", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(summarize(clients))
}

func (h *handlers) getClientMaxes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError("client_id parameter is required"), nil
	}
	c, err := h.ds.Client(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("client %q not found", id)), nil
	}
	if err != nil {
		h.log.Error("mcp get_client_maxes", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	maxes := c.MovementMaxes
	if maxes == nil {
		maxes = loadcalc.Maxes{}
	}
	if ex := req.GetString("exercise", ""); ex != "" {
		rec, ok := maxes[ex]
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("no max recorded for %q", ex)), nil
		}
		maxes = loadcalc.Maxes{ex: rec}
	}
	return jsonResult(maxes)
}

func (h *handlers) getCurrentProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := h.ds.CurrentProgram(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return mcp.NewToolResultError("no current program"), nil
	}
	if err != nil {
		h.log.Error("mcp get_current_program", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if week := req.GetInt("week", 0); week > 0 {
		workouts := make([]models.Workout, 0, p.Config.DaysPerWeek)
		for _, w := range p.Workouts {
			if w.Week == week {
				workouts = append(workouts, w)
			}
		}
		p.Workouts = workouts
	}
	return jsonResult(p)
}

func (h *handlers) lookupExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	ex, ok := h.catalog.Lookup(name)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no exercise data for %q", name)), nil
	}
	return jsonResult(ex)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
