package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/progress"
)

// Snapshot keys, matching the browser localStorage layout.
const (
	KeyClients        = "clients"
	KeyPrograms       = "programs"
	KeyCurrentProgram = "currentProgram"
)

// WorkoutProgressKey is the key of an in-session progress snapshot.
func WorkoutProgressKey(programID, workoutID string) string {
	return "workoutProgress:" + programID + ":" + workoutID
}

// Repository reads and writes typed snapshots over a KV. Updates to a single
// record are read-modify-write of the whole snapshot; mu serialises them
// within the process.
type Repository struct {
	kv  KV
	log *slog.Logger
	mu  sync.Mutex
}

// NewRepository creates a Repository.
func NewRepository(kv KV, logger *slog.Logger) *Repository {
	return &Repository{kv: kv, log: logger}
}

// Ping checks the backing store.
func (r *Repository) Ping(ctx context.Context) error {
	return r.kv.Ping(ctx)
}

func (r *Repository) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(data) == 0 || string(data) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (r *Repository) store(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return r.kv.Put(ctx, key, data)
}

// Clients returns all clients. A missing snapshot is an empty list.
func (r *Repository) Clients(ctx context.Context) ([]models.Client, error) {
	clients := []models.Client{}
	if _, err := r.load(ctx, KeyClients, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// PutClients replaces the clients snapshot after validating every record.
func (r *Repository) PutClients(ctx context.Context, clients []models.Client) error {
	for _, c := range clients {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	if clients == nil {
		clients = []models.Client{}
	}
	return r.store(ctx, KeyClients, clients)
}

// Client returns one client by id.
func (r *Repository) Client(ctx context.Context, id string) (models.Client, error) {
	clients, err := r.Clients(ctx)
	if err != nil {
		return models.Client{}, err
	}
	for _, c := range clients {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Client{}, fmt.Errorf("client %s: %w", id, ErrNotFound)
}

// SaveClient inserts or replaces a client by id.
func (r *Repository) SaveClient(ctx context.Context, c models.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, err := r.Clients(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range clients {
		if clients[i].ID == c.ID {
			clients[i] = c
			replaced = true
			break
		}
	}
	if !replaced {
		clients = append(clients, c)
	}
	if err := r.store(ctx, KeyClients, clients); err != nil {
		return err
	}
	r.log.Debug("client saved", "client", c.ID, "new", !replaced)
	return nil
}

// Programs returns all programs. A missing snapshot is an empty list.
func (r *Repository) Programs(ctx context.Context) ([]models.Program, error) {
	programs := []models.Program{}
	if _, err := r.load(ctx, KeyPrograms, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}

// PutPrograms replaces the programs snapshot after validating every record.
func (r *Repository) PutPrograms(ctx context.Context, programs []models.Program) error {
	for _, p := range programs {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	if programs == nil {
		programs = []models.Program{}
	}
	return r.store(ctx, KeyPrograms, programs)
}

// Program returns one program by id.
func (r *Repository) Program(ctx context.Context, id string) (models.Program, error) {
	programs, err := r.Programs(ctx)
	if err != nil {
		return models.Program{}, err
	}
	for _, p := range programs {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Program{}, fmt.Errorf("program %s: %w", id, ErrNotFound)
}

// SaveProgram inserts or replaces a program by id. When the stored current
// program has the same id it is refreshed too.
func (r *Repository) SaveProgram(ctx context.Context, p models.Program) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	programs, err := r.Programs(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range programs {
		if programs[i].ID == p.ID {
			programs[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		programs = append(programs, p)
	}
	if err := r.store(ctx, KeyPrograms, programs); err != nil {
		return err
	}

	var current models.Program
	ok, err := r.load(ctx, KeyCurrentProgram, &current)
	if err != nil {
		return err
	}
	if ok && current.ID == p.ID {
		if err := r.store(ctx, KeyCurrentProgram, p); err != nil {
			return err
		}
	}
	r.log.Debug("program saved", "program", p.ID, "new", !replaced)
	return nil
}

// CurrentProgram returns the program last opened in the builder.
func (r *Repository) CurrentProgram(ctx context.Context) (models.Program, error) {
	var p models.Program
	ok, err := r.load(ctx, KeyCurrentProgram, &p)
	if err != nil {
		return models.Program{}, err
	}
	if !ok {
		return models.Program{}, fmt.Errorf("current program: %w", ErrNotFound)
	}
	return p, nil
}

// PutCurrentProgram replaces the current program snapshot.
func (r *Repository) PutCurrentProgram(ctx context.Context, p models.Program) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return r.store(ctx, KeyCurrentProgram, p)
}

// AttachProgram saves a new program, links it to its client and makes it the
// client's active and the current program.
func (r *Repository) AttachProgram(ctx context.Context, p models.Program) error {
	c, err := r.Client(ctx, p.ClientID)
	if err != nil {
		return err
	}
	if err := r.SaveProgram(ctx, p); err != nil {
		return err
	}
	if !c.HasProgram(p.ID) {
		c.Programs = append(append([]string(nil), c.Programs...), p.ID)
	}
	id := p.ID
	c.ActiveProgram = &id
	c.LastUpdated = p.LastUpdated
	if err := r.SaveClient(ctx, c); err != nil {
		return err
	}
	return r.PutCurrentProgram(ctx, p)
}

// WorkoutProgress returns the stored session progress for a workout.
func (r *Repository) WorkoutProgress(ctx context.Context, programID, workoutID string) (progress.WorkoutProgress, error) {
	var wp progress.WorkoutProgress
	ok, err := r.load(ctx, WorkoutProgressKey(programID, workoutID), &wp)
	if err != nil {
		return progress.WorkoutProgress{}, err
	}
	if !ok {
		return progress.WorkoutProgress{}, fmt.Errorf("progress for workout %s: %w", workoutID, ErrNotFound)
	}
	return wp, nil
}

// SaveWorkoutProgress stores session progress for a workout of a program.
func (r *Repository) SaveWorkoutProgress(ctx context.Context, programID string, wp progress.WorkoutProgress) error {
	if wp.WorkoutID == "" {
		return fmt.Errorf("%w: workout progress without workoutId", models.ErrInvalidRecord)
	}
	return r.store(ctx, WorkoutProgressKey(programID, wp.WorkoutID), wp)
}

// ClearWorkoutProgress drops the session progress of a workout. Clearing a
// workout with no stored progress is not an error.
func (r *Repository) ClearWorkoutProgress(ctx context.Context, programID, workoutID string) error {
	return r.kv.Put(ctx, WorkoutProgressKey(programID, workoutID), []byte("null"))
}
