package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/coachdesk/internal/exercises"
	"github.com/claude/coachdesk/internal/loadcalc"
)

// New creates an MCP server with all tools and resources registered.
// increment is the default plate increment for target_weight; zero means
// loadcalc.DefaultIncrement.
func New(ds DataSource, catalog *exercises.Catalog, increment float64, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("CoachDesk", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("CoachDesk coaching server. Preview workout schedules, estimate one-rep maxes and training loads, and read clients, their movement maxes, the current program and exercise cues."),
	)

	if increment <= 0 {
		increment = loadcalc.DefaultIncrement
	}
	if catalog == nil {
		catalog = exercises.Default()
	}
	h := &handlers{ds: ds, catalog: catalog, increment: increment, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolScheduleWorkouts, Handler: h.scheduleWorkouts},
		server.ServerTool{Tool: toolEstimateOneRepMax, Handler: h.estimateOneRepMax},
		server.ServerTool{Tool: toolTargetWeight, Handler: h.targetWeight},
		server.ServerTool{Tool: toolListClients, Handler: h.listClients},
		server.ServerTool{Tool: toolGetClientMaxes, Handler: h.getClientMaxes},
		server.ServerTool{Tool: toolGetCurrentProgram, Handler: h.getCurrentProgram},
		server.ServerTool{Tool: toolLookupExercise, Handler: h.lookupExercise},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resClients, Handler: h.clientsResource},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds        DataSource
	catalog   *exercises.Catalog
	increment float64
	log       *slog.Logger
}

// --- Resource definitions ---

var resClients = mcp.NewResource(
	"coachdesk://clients",
	"Clients",
	mcp.WithResourceDescription("All clients with their active program and running workout metrics"),
	mcp.WithMIMEType("application/json"),
)
