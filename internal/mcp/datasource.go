package mcp

import (
	"context"

	"github.com/claude/coachdesk/internal/models"
	"github.com/claude/coachdesk/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.Repository
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Clients(ctx context.Context) ([]models.Client, error)
	Client(ctx context.Context, id string) (models.Client, error)
	CurrentProgram(ctx context.Context) (models.Program, error)
}

// Compile-time check: *storage.Repository satisfies DataSource.
var _ DataSource = (*storage.Repository)(nil)
