package importer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/storage"
)

const clientsJSON = `[{"id":"c1","name":"Sam","dateCreated":"2024-01-01T10:00:00.000Z","lastUpdated":"2024-01-01T10:00:00.000Z","goals":["strength"],"movementMaxes":{"Squats":{"oneRepMax":250,"history":[]}},"programs":["p1"],"activeProgram":"p1","metrics":{"totalWorkoutsCompleted":0}}]`

const programsJSON = `[{"id":"p1","clientId":"c1","config":{"clientId":"c1","clientName":"Sam","daysPerWeek":1,"programLength":1,"startDate":"2024-01-01","workoutDays":["monday"]},"workouts":[{"id":"w1","week":1,"day":1,"date":"2024-01-01T00:00:00.000Z","name":"Full Body","focus":"strength","warmup":[],"supersets":[],"cooldown":[]}],"completedWorkouts":[]}]`

func newRepo(t *testing.T) *storage.Repository {
	t.Helper()
	kv, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "import.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = kv.Close() })
	return storage.NewRepository(kv, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// dump builds a localStorage-style dump where every value is a JSON string.
func dump(t *testing.T, values map[string]string) string {
	t.Helper()
	data, err := json.Marshal(values)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// TestParseStringEncodedValues verifies values stored as JSON strings are
// decoded and unknown keys are reported.
func TestParseStringEncodedValues(t *testing.T) {
	in := dump(t, map[string]string{
		"clients":        clientsJSON,
		"programs":       programsJSON,
		"currentProgram": "null",
		"theme":          "dark",
	})
	snap, skipped, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Clients) != 1 || snap.Clients[0].Name != "Sam" {
		t.Errorf("clients = %+v", snap.Clients)
	}
	if len(snap.Programs) != 1 || snap.Programs[0].Workouts[0].Date.String() != "2024-01-01" {
		t.Errorf("programs = %+v", snap.Programs)
	}
	if snap.CurrentProgram != nil {
		t.Error("null currentProgram should stay nil")
	}
	if len(skipped) != 1 || skipped[0] != "theme" {
		t.Errorf("skipped = %v", skipped)
	}
}

// TestParseRawValues verifies plain JSON values are accepted as well.
func TestParseRawValues(t *testing.T) {
	in := `{"clients": ` + clientsJSON + `, "currentProgram": ` + strings.TrimSuffix(strings.TrimPrefix(programsJSON, "["), "]") + `}`
	snap, _, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Clients) != 1 {
		t.Errorf("clients = %d, want 1", len(snap.Clients))
	}
	if snap.CurrentProgram == nil || snap.CurrentProgram.ID != "p1" {
		t.Errorf("currentProgram = %+v", snap.CurrentProgram)
	}
}

// TestImportWritesSnapshots verifies an import lands in the repository.
func TestImportWritesSnapshots(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	in := dump(t, map[string]string{"clients": clientsJSON, "programs": programsJSON})

	stats, err := New(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), false).Import(ctx, strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Clients != 1 || stats.Programs != 1 || stats.Workouts != 1 || stats.CurrentProgram {
		t.Errorf("stats = %+v", stats)
	}

	c, err := repo.Client(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if best, ok := c.MovementMaxes.Best("Squats"); !ok || best != 250 {
		t.Errorf("squat max = %v, %v", best, ok)
	}
	if c.Injuries == nil {
		t.Error("injuries not normalised")
	}
	if _, err := repo.Program(ctx, "p1"); err != nil {
		t.Errorf("program not stored: %v", err)
	}
	if _, err := repo.CurrentProgram(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("current program err = %v, want ErrNotFound", err)
	}
}

// TestImportDryRun verifies counts are produced without writing.
func TestImportDryRun(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	in := dump(t, map[string]string{"clients": clientsJSON, "programs": programsJSON})

	stats, err := New(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), true).Import(ctx, strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Clients != 1 || stats.Programs != 1 {
		t.Errorf("stats = %+v", stats)
	}
	clients, err := repo.Clients(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(clients) != 0 {
		t.Errorf("dry run wrote %d clients", len(clients))
	}
}

// TestImportRejectsInvalid verifies a bad record aborts the import before
// anything is written.
func TestImportRejectsInvalid(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	badPrograms := strings.Replace(programsJSON, `"id":"w1"`, `"id":""`, 1)
	in := dump(t, map[string]string{"clients": clientsJSON, "programs": badPrograms})

	_, err := New(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), false).Import(ctx, strings.NewReader(in))
	if !errors.Is(err, models.ErrInvalidRecord) {
		t.Fatalf("err = %v, want ErrInvalidRecord", err)
	}
	clients, _ := repo.Clients(ctx)
	if len(clients) != 0 {
		t.Errorf("failed import wrote %d clients", len(clients))
	}
}

// TestImportAssignsMissingIDs verifies clients without ids get one and
// programs of unknown clients are counted.
func TestImportAssignsMissingIDs(t *testing.T) {
	repo := newRepo(t)
	in := dump(t, map[string]string{
		"clients":  `[{"name":"Ana"}]`,
		"programs": programsJSON,
	})
	stats, err := New(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), true).Import(context.Background(), strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if stats.ClientIDsAssigned != 1 || stats.OrphanPrograms != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestImportMalformed verifies undecodable input is an error.
func TestImportMalformed(t *testing.T) {
	repo := newRepo(t)
	for _, in := range []string{`not json`, `{"clients": "[{"}`} {
		if _, err := New(repo, slog.Default(), true).Import(context.Background(), strings.NewReader(in)); err == nil {
			t.Errorf("Import(%q) succeeded, want error", in)
		}
	}
}
