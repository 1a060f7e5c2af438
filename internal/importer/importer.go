package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/storage"
)

// Stats tracks import progress.
type Stats struct {
	Clients        int
	Programs       int
	Workouts       int
	WorkoutLogs    int
	CurrentProgram bool

	ClientIDsAssigned int
	OrphanPrograms    int

	SkippedKeys []string
}

// Snapshot is the decoded content of a browser localStorage dump.
type Snapshot struct {
	Clients        []models.Client
	Programs       []models.Program
	CurrentProgram *models.Program
}

// Parse decodes a localStorage dump. Values may be JSON documents or, as
// localStorage stores them, strings holding JSON. Unknown keys are returned
// sorted so callers can report them.
func Parse(r io.Reader) (Snapshot, []string, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Snapshot{}, nil, fmt.Errorf("decoding dump: %w", err)
	}

	var snap Snapshot
	var skipped []string
	for key, val := range raw {
		data, err := unwrap(val)
		if err != nil {
			return Snapshot{}, nil, fmt.Errorf("key %s: %w", key, err)
		}
		if data == nil {
			continue
		}
		switch key {
		case storage.KeyClients:
			err = json.Unmarshal(data, &snap.Clients)
		case storage.KeyPrograms:
			err = json.Unmarshal(data, &snap.Programs)
		case storage.KeyCurrentProgram:
			var p models.Program
			if err = json.Unmarshal(data, &p); err == nil {
				snap.CurrentProgram = &p
			}
		default:
			skipped = append(skipped, key)
		}
		if err != nil {
			return Snapshot{}, nil, fmt.Errorf("decoding %s: %w", key, err)
		}
	}
	sort.Strings(skipped)
	return snap, skipped, nil
}

// unwrap returns the JSON document held by a value, decoding one level of
// string encoding. Null and empty strings yield nil.
func unwrap(val json.RawMessage) ([]byte, error) {
	val = bytes.TrimSpace(val)
	if len(val) == 0 || bytes.Equal(val, []byte("null")) {
		return nil, nil
	}
	if val[0] != '"' {
		return val, nil
	}
	var s string
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return nil, nil
	}
	return []byte(s), nil
}

// Importer validates a localStorage dump and writes it into the store.
type Importer struct {
	repo   *storage.Repository
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer.
func New(repo *storage.Repository, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{repo: repo, log: log, dryRun: dryRun}
}

// Import reads a dump from r. Every record is validated before anything is
// written; in dry-run mode only the stats are produced.
func (imp *Importer) Import(ctx context.Context, r io.Reader) (*Stats, error) {
	snap, skipped, err := Parse(r)
	if err != nil {
		return &imp.stats, err
	}
	imp.stats.SkippedKeys = skipped
	for _, key := range skipped {
		imp.log.Info("skipping unknown key", "key", key)
	}

	if err := imp.prepare(&snap); err != nil {
		return &imp.stats, err
	}

	if imp.dryRun {
		return &imp.stats, nil
	}

	if err := imp.repo.PutClients(ctx, snap.Clients); err != nil {
		return &imp.stats, fmt.Errorf("writing clients: %w", err)
	}
	if err := imp.repo.PutPrograms(ctx, snap.Programs); err != nil {
		return &imp.stats, fmt.Errorf("writing programs: %w", err)
	}
	if snap.CurrentProgram != nil {
		if err := imp.repo.PutCurrentProgram(ctx, *snap.CurrentProgram); err != nil {
			return &imp.stats, fmt.Errorf("writing current program: %w", err)
		}
	}
	return &imp.stats, nil
}

// prepare normalises and validates the snapshot and fills in the stats.
func (imp *Importer) prepare(snap *Snapshot) error {
	known := make(map[string]bool, len(snap.Clients))
	for i := range snap.Clients {
		c := &snap.Clients[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
			imp.stats.ClientIDsAssigned++
			imp.log.Warn("client without id, assigned one", "name", c.Name, "id", c.ID)
		}
		c.Normalize()
		if err := c.Validate(); err != nil {
			return fmt.Errorf("clients[%d]: %w", i, err)
		}
		if known[c.ID] {
			return fmt.Errorf("clients[%d]: %w: duplicate client id %s", i, models.ErrInvalidRecord, c.ID)
		}
		known[c.ID] = true
		imp.stats.Clients++
		imp.stats.WorkoutLogs += len(c.WorkoutLogs)
	}

	seen := make(map[string]bool, len(snap.Programs))
	for i := range snap.Programs {
		p := &snap.Programs[i]
		if p.CompletedWorkouts == nil {
			p.CompletedWorkouts = []string{}
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("programs[%d]: %w", i, err)
		}
		if seen[p.ID] {
			return fmt.Errorf("programs[%d]: %w: duplicate program id %s", i, models.ErrInvalidRecord, p.ID)
		}
		seen[p.ID] = true
		if !known[p.ClientID] {
			imp.stats.OrphanPrograms++
			imp.log.Warn("program references unknown client", "program", p.ID, "client", p.ClientID)
		}
		imp.stats.Programs++
		imp.stats.Workouts += len(p.Workouts)
	}

	if p := snap.CurrentProgram; p != nil {
		if p.CompletedWorkouts == nil {
			p.CompletedWorkouts = []string{}
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("currentProgram: %w", err)
		}
		imp.stats.CurrentProgram = true
	}
	return nil
}
