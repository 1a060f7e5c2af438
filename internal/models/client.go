package models

import (
	"time"

	"github.com/claude/coachdesk/internal/loadcalc"
)

// ClientMetrics are running totals kept on the client record.
type ClientMetrics struct {
	TotalWorkoutsCompleted int     `json:"totalWorkoutsCompleted"`
	AverageWorkoutRating   float64 `json:"averageWorkoutRating"`
	ConsistencyScore       float64 `json:"consistencyScore"`
	CurrentStreak          int     `json:"currentStreak"`
	LongestStreak          int     `json:"longestStreak"`
}

// LoggedSet is one executed set.
type LoggedSet struct {
	Weight float64  `json:"weight"`
	Reps   int      `json:"reps"`
	RPE    *float64 `json:"rpe,omitempty"`
	Notes  string   `json:"notes,omitempty"`
}

// LoggedExercise holds the executed sets for one exercise.
type LoggedExercise struct {
	Name  string      `json:"name"`
	Sets  []LoggedSet `json:"sets"`
	Notes string      `json:"notes,omitempty"`
}

// WorkoutLog records how a scheduled workout went.
type WorkoutLog struct {
	Date          time.Time        `json:"date"`
	ProgramID     string           `json:"programId"`
	WorkoutID     string           `json:"workoutId,omitempty"`
	Week          int              `json:"week"`
	Day           int              `json:"day"`
	Exercises     []LoggedExercise `json:"exercises"`
	Notes         string           `json:"notes,omitempty"`
	FeelingRating int              `json:"feelingRating"`
	SleepQuality  int              `json:"sleepQuality"`
	StressLevel   int              `json:"stressLevel"`
	Bodyweight    *float64         `json:"bodyweight,omitempty"`
}

// WeeklyMetrics summarises the logs of one program week.
type WeeklyMetrics struct {
	AverageWorkoutRating float64  `json:"averageWorkoutRating"`
	AverageSleepQuality  float64  `json:"averageSleepQuality"`
	AverageStressLevel   float64  `json:"averageStressLevel"`
	AverageBodyweight    *float64 `json:"averageBodyweight,omitempty"`
	CompletedWorkouts    int      `json:"completedWorkouts"`
	TotalWorkouts        int      `json:"totalWorkouts"`
}

// WeeklyGoals are the trainer's notes on goal progress for a week.
type WeeklyGoals struct {
	Achieved   []string `json:"achieved"`
	InProgress []string `json:"inProgress"`
	Notes      string   `json:"notes"`
}

// WeeklyProgress is a per-week review entry.
type WeeklyProgress struct {
	Week      int           `json:"week"`
	ProgramID string        `json:"programId"`
	Notes     string        `json:"notes"`
	Metrics   WeeklyMetrics `json:"metrics"`
	Goals     *WeeklyGoals  `json:"goals,omitempty"`
}

// Client is a coached person.
type Client struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Email          string           `json:"email,omitempty"`
	DateCreated    time.Time        `json:"dateCreated"`
	LastUpdated    time.Time        `json:"lastUpdated"`
	Goals          []string         `json:"goals"`
	Injuries       []string         `json:"injuries"`
	MovementMaxes  loadcalc.Maxes   `json:"movementMaxes"`
	Notes          string           `json:"notes"`
	Programs       []string         `json:"programs"`
	ActiveProgram  *string          `json:"activeProgram"`
	Metrics        ClientMetrics    `json:"metrics"`
	WorkoutLogs    []WorkoutLog     `json:"workoutLogs,omitempty"`
	WeeklyProgress []WeeklyProgress `json:"weeklyProgress,omitempty"`
}

// HasProgram reports whether a program id is attached to the client.
func (c *Client) HasProgram(programID string) bool {
	for _, id := range c.Programs {
		if id == programID {
			return true
		}
	}
	return false
}

// Normalize replaces nil collections with empty ones so stored snapshots
// keep the shape the browser client expects.
func (c *Client) Normalize() {
	if c.Goals == nil {
		c.Goals = []string{}
	}
	if c.Injuries == nil {
		c.Injuries = []string{}
	}
	if c.Programs == nil {
		c.Programs = []string{}
	}
	if c.MovementMaxes == nil {
		c.MovementMaxes = loadcalc.Maxes{}
	}
}
