package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("wodlink", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("wodlink workout programming server. List scheduled sessions and blueprints, mint team sync links for a session, a day or a blueprint, and import links received from other coaches."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolListBlueprints, Handler: h.listBlueprints},
		server.ServerTool{Tool: toolShareSession, Handler: h.shareSession},
		server.ServerTool{Tool: toolShareDay, Handler: h.shareDay},
		server.ServerTool{Tool: toolShareBlueprint, Handler: h.shareBlueprint},
		server.ServerTool{Tool: toolImportLink, Handler: h.importLink},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resToday, Handler: h.today},
		server.ServerResource{Resource: resBlueprints, Handler: h.blueprints},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resToday = mcp.NewResource(
	"wodlink://today",
	"Today's Sessions",
	mcp.WithResourceDescription("Sessions scheduled for today, ordered by time slot"),
	mcp.WithMIMEType("application/json"),
)

var resBlueprints = mcp.NewResource(
	"wodlink://blueprints",
	"Blueprint Library",
	mcp.WithResourceDescription("All reusable workout blueprints"),
	mcp.WithMIMEType("application/json"),
)
