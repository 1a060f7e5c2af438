package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrInvalidScheduleConfig is returned when a weekday selection cannot produce
// the requested number of workout dates.
var ErrInvalidScheduleConfig = errors.New("invalid schedule config")

const (
	// MaxDaysPerWeek is the largest daysPerWeek a schedule accepts.
	MaxDaysPerWeek = 7
	// MaxProgramLength caps programLength, in weeks.
	MaxProgramLength = 520
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Input describes a weekly recurrence pattern for a program.
type Input struct {
	StartDate     civil.Date
	WorkoutDays   []string
	DaysPerWeek   int
	ProgramLength int
}

// Total returns the number of workouts the program needs.
func (in Input) Total() int {
	return in.ProgramLength * in.DaysPerWeek
}

// ParseWeekday maps a weekday name (any case) to its time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidScheduleConfig, name)
	}
	return wd, nil
}

// WeekdayName returns the lowercase name used in program configs.
func WeekdayName(wd time.Weekday) string {
	return strings.ToLower(wd.String())
}

// Weekday returns the day of week of a calendar date.
func Weekday(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

// ParseStartDate accepts YYYY-MM-DD or an RFC 3339 timestamp. For timestamps
// the date as written in the string is kept; the offset is not applied.
func ParseStartDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if d, err := civil.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%w: start date %q", ErrInvalidScheduleConfig, s)
	}
	return civil.DateOf(t), nil
}

// Generate walks forward one calendar day at a time from in.StartDate
// (inclusive) and returns every date whose weekday is selected, until
// in.Total() dates have been collected.
func Generate(in Input) ([]civil.Date, error) {
	if len(in.WorkoutDays) == 0 {
		return nil, fmt.Errorf("%w: no workout days selected", ErrInvalidScheduleConfig)
	}
	if in.DaysPerWeek <= 0 {
		return nil, fmt.Errorf("%w: days per week must be positive, got %d", ErrInvalidScheduleConfig, in.DaysPerWeek)
	}
	if in.DaysPerWeek > MaxDaysPerWeek {
		return nil, fmt.Errorf("%w: days per week must be at most %d, got %d", ErrInvalidScheduleConfig, MaxDaysPerWeek, in.DaysPerWeek)
	}
	if in.ProgramLength <= 0 {
		return nil, fmt.Errorf("%w: program length must be positive, got %d", ErrInvalidScheduleConfig, in.ProgramLength)
	}
	if in.ProgramLength > MaxProgramLength {
		return nil, fmt.Errorf("%w: program length must be at most %d weeks, got %d", ErrInvalidScheduleConfig, MaxProgramLength, in.ProgramLength)
	}
	if !in.StartDate.IsValid() {
		return nil, fmt.Errorf("%w: invalid start date %v", ErrInvalidScheduleConfig, in.StartDate)
	}

	var selected [7]bool
	for _, name := range in.WorkoutDays {
		wd, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		selected[wd] = true
	}

	total := in.Total()
	// Every 7-day window contains each selected weekday once.
	window := 7*total + 7

	dates := make([]civil.Date, 0, total)
	d := in.StartDate
	for step := 0; step < window && len(dates) < total; step++ {
		if selected[Weekday(d)] {
			dates = append(dates, d)
		}
		d = d.AddDays(1)
	}
	if len(dates) < total {
		return nil, fmt.Errorf("%w: found %d of %d dates within %d days", ErrInvalidScheduleConfig, len(dates), total, window)
	}
	return dates, nil
}
