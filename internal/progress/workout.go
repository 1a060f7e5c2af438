package progress

import (
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/civil"

	"github.com/claude/coachdesk/internal/loadcalc"
	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/schedule"
)

// CompleteWorkout returns a copy of the program with the workout marked
// completed. The id is added to CompletedWorkouts at most once.
func CompleteWorkout(p models.Program, workoutID string, now time.Time) (models.Program, error) {
	idx := -1
	for i := range p.Workouts {
		if p.Workouts[i].ID == workoutID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return p, fmt.Errorf("%w: %s in program %s", ErrWorkoutNotFound, workoutID, p.ID)
	}

	out := p
	out.Workouts = append([]models.Workout(nil), p.Workouts...)
	out.Workouts[idx].Completed = true
	if !p.IsCompleted(workoutID) {
		out.CompletedWorkouts = append(append([]string(nil), p.CompletedWorkouts...), workoutID)
	}
	out.LastUpdated = now
	return out, nil
}

// CurrentWeek returns the 1-based program week containing today. Days before
// the start count as week 1.
func CurrentWeek(start, today civil.Date) int {
	days := today.DaysSince(start)
	if days < 0 {
		return 1
	}
	return days/7 + 1
}

// Recordable reports whether a logged set counts as a max attempt: a positive
// weight and a rep count the 1RM estimate accepts. Other sets stay in the log
// only.
func Recordable(s models.LoggedSet) bool {
	return s.Weight > 0 && s.Reps > 0 && s.Reps <= loadcalc.MaxReps
}

// RecordedAttempts counts the sets of a log that LogWorkout records as attempts.
func RecordedAttempts(log models.WorkoutLog) int {
	n := 0
	for _, ex := range log.Exercises {
		for _, s := range ex.Sets {
			if Recordable(s) {
				n++
			}
		}
	}
	return n
}

// LogWorkout appends a log to the client and returns the updated copy. Every
// Recordable set is recorded as an attempt against the client's maxes, and
// the running metrics are refreshed.
func LogWorkout(c models.Client, p models.Program, log models.WorkoutLog, now time.Time) (models.Client, error) {
	if log.ProgramID == "" {
		log.ProgramID = p.ID
	}
	if log.ProgramID != p.ID {
		return c, fmt.Errorf("%w: log is for program %s, not %s", models.ErrInvalidRecord, log.ProgramID, p.ID)
	}
	if log.WorkoutID != "" {
		w, ok := p.Workout(log.WorkoutID)
		if !ok {
			return c, fmt.Errorf("%w: %s in program %s", ErrWorkoutNotFound, log.WorkoutID, p.ID)
		}
		if log.Week == 0 {
			log.Week, log.Day = w.Week, w.Day
		}
	}
	if log.Date.IsZero() {
		log.Date = now
	}
	if err := log.Validate(); err != nil {
		return c, err
	}

	maxes := c.MovementMaxes
	for _, ex := range log.Exercises {
		for _, s := range ex.Sets {
			if !Recordable(s) {
				continue
			}
			next, err := loadcalc.RecordAttemptAt(maxes, ex.Name, s.Weight, s.Reps, log.Date)
			if err != nil {
				return c, fmt.Errorf("recording %s: %w", ex.Name, err)
			}
			maxes = next
		}
	}

	out := c
	out.MovementMaxes = maxes
	out.WorkoutLogs = append(append([]models.WorkoutLog(nil), c.WorkoutLogs...), log)
	out.Metrics = nextMetrics(c.Metrics, p, log, now)
	out.LastUpdated = now
	return out, nil
}

func nextMetrics(m models.ClientMetrics, p models.Program, log models.WorkoutLog, now time.Time) models.ClientMetrics {
	prev := m.TotalWorkoutsCompleted
	m.TotalWorkoutsCompleted = prev + 1
	m.AverageWorkoutRating = (m.AverageWorkoutRating*float64(prev) + float64(log.FeelingRating)) / float64(prev+1)

	if start, err := schedule.ParseStartDate(p.Config.StartDate); err == nil && p.Config.DaysPerWeek > 0 {
		week := CurrentWeek(start, civil.DateOf(now))
		score := float64(m.TotalWorkoutsCompleted) / float64(week*p.Config.DaysPerWeek) * 100
		m.ConsistencyScore = min(score, 100)
	}

	cur, longest := Streaks(p, civil.DateOf(now))
	m.CurrentStreak = cur
	m.LongestStreak = max(m.LongestStreak, longest)
	return m
}

// Streaks walks the program's workouts scheduled on or before today in date
// order, whatever order they are stored in. A completed workout extends the
// run and a missed one ends it. A workout scheduled today that is not yet
// completed does not end the current run.
func Streaks(p models.Program, today civil.Date) (current, longest int) {
	workouts := slices.Clone(p.Workouts)
	slices.SortStableFunc(workouts, func(a, b models.Workout) int {
		return a.Date.Date.Compare(b.Date.Date)
	})
	run := 0
	for _, w := range workouts {
		if today.Before(w.Date.Date) {
			break
		}
		done := w.Completed || p.IsCompleted(w.ID)
		switch {
		case done:
			run++
			longest = max(longest, run)
		case w.Date.Date == today:
		default:
			run = 0
		}
	}
	return run, longest
}

// WeekSummary averages the client's logs for one week of a program.
func WeekSummary(c models.Client, p models.Program, week int) models.WeeklyMetrics {
	var (
		n                     int
		rating, sleep, stress float64
		bw                    float64
		bwCount               int
	)
	for _, l := range c.WorkoutLogs {
		if l.ProgramID != p.ID || l.Week != week {
			continue
		}
		n++
		rating += float64(l.FeelingRating)
		sleep += float64(l.SleepQuality)
		stress += float64(l.StressLevel)
		if l.Bodyweight != nil {
			bw += *l.Bodyweight
			bwCount++
		}
	}

	out := models.WeeklyMetrics{CompletedWorkouts: n, TotalWorkouts: p.Config.DaysPerWeek}
	if n > 0 {
		out.AverageWorkoutRating = rating / float64(n)
		out.AverageSleepQuality = sleep / float64(n)
		out.AverageStressLevel = stress / float64(n)
	}
	if bwCount > 0 {
		avg := bw / float64(bwCount)
		out.AverageBodyweight = &avg
	}
	return out
}
