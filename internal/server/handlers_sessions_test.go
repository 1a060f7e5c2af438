package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/claude/coachdesk/internal/exercises"
	"github.com/claude/coachdesk/internal/metrics"
	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/program"
	"github.com/claude/coachdesk/internal/progress"
	"github.com/claude/coachdesk/internal/storage"
)

func newClientWithProgram(t *testing.T, s *Server) models.Program {
	t.Helper()
	if rec := do(t, s, http.MethodPost, "/api/v1/clients", map[string]any{"id": "c1", "name": "Sam"}); rec.Code != http.StatusCreated {
		t.Fatalf("create client status = %d, body %s", rec.Code, rec.Body)
	}
	rec := do(t, s, http.MethodPost, "/api/v1/programs", programConfig("c1"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create program status = %d, body %s", rec.Code, rec.Body)
	}
	return decode[models.Program](t, rec)
}

// TestWorkoutSession verifies a session is seeded from the prescription,
// updated set by set, and turned into a workout log.
func TestWorkoutSession(t *testing.T) {
	s := newTestServer(t, "")
	p := newClientWithProgram(t, s)
	w := p.Workouts[0]
	base := "/api/v1/programs/" + p.ID + "/workouts/" + w.ID + "/progress"

	rec := do(t, s, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get session status = %d, body %s", rec.Code, rec.Body)
	}
	sess := decode[sessionResponse](t, rec)
	if sess.ProgramID != p.ID || sess.Progress.WorkoutID != w.ID || sess.Percent != 0 {
		t.Errorf("seeded session = %+v", sess)
	}
	// Fallback workout: one warmup, two superset exercises, one cooldown.
	if len(sess.Progress.Exercises) != 4 {
		t.Fatalf("exercises = %d, want 4", len(sess.Progress.Exercises))
	}

	squats := progress.SupersetKey(0, 0)
	for set := range 3 {
		rec = do(t, s, http.MethodPost, base, map[string]any{
			"exercise": squats, "set": set, "weight": 135, "reps": 5, "completed": true,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("update set %d status = %d, body %s", set, rec.Code, rec.Body)
		}
	}
	rec = do(t, s, http.MethodPost, base, map[string]any{"exercise": squats, "notes": "felt strong"})
	sess = decode[sessionResponse](t, rec)
	ex := sess.Progress.Exercises[1]
	if ex.Key != squats || !ex.Completed || ex.Notes != "felt strong" || ex.Sets[2].Weight != 135 {
		t.Errorf("squats progress = %+v", ex)
	}
	// 3 of 8 prescribed sets are done.
	if sess.Percent != 37.5 {
		t.Errorf("percent = %v, want 37.5", sess.Percent)
	}

	rec = do(t, s, http.MethodGet, base, nil)
	if got := decode[sessionResponse](t, rec); got.Percent != 37.5 {
		t.Errorf("stored percent = %v, want 37.5", got.Percent)
	}

	rec = do(t, s, http.MethodPost, base+"/log", map[string]any{"feelingRating": 4, "sleepQuality": 3, "stressLevel": 2})
	if rec.Code != http.StatusCreated {
		t.Fatalf("log session status = %d, body %s", rec.Code, rec.Body)
	}
	c := decode[models.Client](t, rec)
	if len(c.WorkoutLogs) != 1 {
		t.Fatalf("logs = %d, want 1", len(c.WorkoutLogs))
	}
	l := c.WorkoutLogs[0]
	if l.WorkoutID != w.ID || len(l.Exercises) != 1 || l.Exercises[0].Name != "Squats" || len(l.Exercises[0].Sets) != 3 {
		t.Errorf("log = %+v", l)
	}
	if rec := c.MovementMaxes["Squats"]; len(rec.History) != 3 {
		t.Errorf("squat history = %d attempts, want 3", len(rec.History))
	}

	rec = do(t, s, http.MethodGet, "/api/v1/programs/"+p.ID, nil)
	if got := decode[models.Program](t, rec); !got.IsCompleted(w.ID) {
		t.Error("logged session did not complete the workout")
	}
	rec = do(t, s, http.MethodGet, base, nil)
	if got := decode[sessionResponse](t, rec); got.Percent != 0 {
		t.Errorf("session not cleared after log, percent = %v", got.Percent)
	}
}

// TestWorkoutSessionErrors verifies bad updates are 400 and unknown workouts 404.
func TestWorkoutSessionErrors(t *testing.T) {
	s := newTestServer(t, "")
	p := newClientWithProgram(t, s)
	base := "/api/v1/programs/" + p.ID + "/workouts/" + p.Workouts[0].ID + "/progress"

	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown exercise", map[string]any{"exercise": "superset-9-9", "set": 0, "completed": true}},
		{"set out of range", map[string]any{"exercise": progress.WarmupKey(0), "set": 5, "completed": true}},
		{"missing set", map[string]any{"exercise": progress.WarmupKey(0), "completed": true}},
		{"missing exercise", map[string]any{"set": 0, "completed": true}},
		{"negative weight", map[string]any{"exercise": progress.WarmupKey(0), "set": 0, "weight": -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, s, http.MethodPost, base, tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body %s", rec.Code, rec.Body)
			}
		})
	}

	if rec := do(t, s, http.MethodGet, "/api/v1/programs/"+p.ID+"/workouts/nope/progress", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown workout status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/programs/nope/workouts/x/progress", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown program status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, base+"/log", map[string]any{"feelingRating": 9, "sleepQuality": 3, "stressLevel": 2}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad rating status = %d, want 400", rec.Code)
	}
}

// TestLogWorkoutHighRepSet verifies a set past the 1RM rep range is kept in
// the log and not counted as an attempt.
func TestLogWorkoutHighRepSet(t *testing.T) {
	s := newTestServer(t, "")
	m, reg := metrics.NewTestManagerAndRegistry()
	s.SetMetrics(m, reg)
	p := newClientWithProgram(t, s)

	rec := do(t, s, http.MethodPost, "/api/v1/clients/c1/logs", map[string]any{
		"workoutId":     p.Workouts[0].ID,
		"feelingRating": 4,
		"sleepQuality":  3,
		"stressLevel":   2,
		"exercises": []map[string]any{
			{"name": "Kettlebell Swing", "sets": []map[string]any{{"weight": 24, "reps": 40}}},
			{"name": "Deadlift", "sets": []map[string]any{{"weight": 100, "reps": 5}}},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("log status = %d, body %s", rec.Code, rec.Body)
	}
	c := decode[models.Client](t, rec)
	if len(c.WorkoutLogs) != 1 || len(c.WorkoutLogs[0].Exercises) != 2 {
		t.Errorf("logs = %+v", c.WorkoutLogs)
	}
	if _, ok := c.MovementMaxes["Kettlebell Swing"]; ok {
		t.Error("high-rep set recorded as a max")
	}
	if got := testutil.ToFloat64(m.CounterAttemptsRecorded); got != 1 {
		t.Errorf("attempts recorded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CounterWorkoutsLogged); got != 1 {
		t.Errorf("workouts logged = %v, want 1", got)
	}
}

// TestScheduleRejectsHugeProgram verifies oversized configs are 400 on both
// the preview and program creation.
func TestScheduleRejectsHugeProgram(t *testing.T) {
	s := newTestServer(t, "")
	rec := do(t, s, http.MethodPost, "/api/v1/schedule", map[string]any{
		"startDate": "2024-01-01", "workoutDays": []string{"monday", "wednesday"},
		"daysPerWeek": 2, "programLength": 1<<62 + 1,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("schedule status = %d, want 400", rec.Code)
	}

	do(t, s, http.MethodPost, "/api/v1/clients", map[string]any{"id": "c1", "name": "Sam"})
	cfg := programConfig("c1")
	cfg["programLength"] = 1 << 40
	if rec := do(t, s, http.MethodPost, "/api/v1/programs", cfg); rec.Code != http.StatusBadRequest {
		t.Errorf("program status = %d, want 400", rec.Code)
	}
}

// failingKV fails writes to one key once armed.
type failingKV struct {
	storage.KV
	key   string
	armed bool
}

func (f *failingKV) Put(ctx context.Context, key string, value []byte) error {
	if f.armed && key == f.key {
		return errors.New("disk full")
	}
	return f.KV.Put(ctx, key, value)
}

// TestLogWorkoutSavesClientFirst verifies a failed program write leaves the
// log recorded and the workout open.
func TestLogWorkoutSavesClientFirst(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	kv, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "coachdesk.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	fkv := &failingKV{KV: kv, key: storage.KeyPrograms}
	repo := storage.NewRepository(fkv, log)
	s := New(repo, program.NewService(nil, log), exercises.Default(), "", log)
	p := newClientWithProgram(t, s)

	fkv.armed = true
	rec := do(t, s, http.MethodPost, "/api/v1/clients/c1/logs", map[string]any{
		"workoutId": p.Workouts[0].ID, "feelingRating": 4, "sleepQuality": 3, "stressLevel": 2,
	})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	fkv.armed = false

	c, err := repo.Client(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.WorkoutLogs) != 1 {
		t.Errorf("logs = %d, want 1", len(c.WorkoutLogs))
	}
	got, err := repo.Program(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsCompleted(p.Workouts[0].ID) {
		t.Error("workout completed although the program write failed")
	}
}
