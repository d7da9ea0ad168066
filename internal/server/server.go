package server

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/surelook/holmes-mcp/internal/metrics"
	"github.com/surelook/holmes-mcp/internal/profile"
	"github.com/surelook/holmes-mcp/internal/records"
	"github.com/surelook/holmes-mcp/internal/resources"
	"github.com/surelook/holmes-mcp/internal/tools"
)

const (
	Name    = "holmes-mcp"
	Version = "0.1.0"
)

// Deps are the collaborators the tools need. Metrics is optional.
type Deps struct {
	Records  *records.Service
	Profiles profile.Provider
	Metrics  *metrics.Metrics
}

// New creates a fully configured MCP server with all tools and resources
// registered.
func New(deps Deps) *mcp.Server {
	rt := &tools.RecordTools{Records: deps.Records}
	pt := &tools.ProfileTools{Provider: deps.Profiles}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    Name,
		Version: Version,
	}, nil)

	// Metric labels only carry registered names.
	toolNames := map[string]bool{}
	tool := func(t *mcp.Tool) *mcp.Tool {
		toolNames[t.Name] = true
		return t
	}

	// Session tools
	mcp.AddTool(srv, tool(&mcp.Tool{
		Name:        "list_sessions",
		Description: "List the most recent recording sessions, newest first",
	}), rt.ListSessions)

	mcp.AddTool(srv, tool(&mcp.Tool{
		Name:        "get_session",
		Description: "Get a single session by ID",
	}), rt.GetSession)

	// Identity tools
	mcp.AddTool(srv, tool(&mcp.Tool{
		Name:        "list_identities",
		Description: "List known identities (people the wearer has met)",
	}), rt.ListIdentities)

	mcp.AddTool(srv, tool(&mcp.Tool{
		Name:        "get_identity",
		Description: "Get a single identity by ID",
	}), rt.GetIdentity)

	mcp.AddTool(srv, tool(&mcp.Tool{
		Name:        "update_identity",
		Description: "Update an identity's name, relationship status, LinkedIn URL or metadata; only supplied fields change",
	}), rt.UpdateIdentity)

	// Event tools
	mcp.AddTool(srv, tool(&mcp.Tool{
		Name:        "get_events",
		Description: "Get the events of a session in chronological order",
	}), rt.GetEvents)

	mcp.AddTool(srv, tool(&mcp.Tool{
		Name:        "create_event",
		Description: "Record an event, optionally linked to a session and an identity",
	}), rt.CreateEvent)

	mcp.AddTool(srv, tool(&mcp.Tool{
		Name:        "get_notes",
		Description: "Get the notes recorded about an identity, newest first",
	}), rt.GetNotes)

	// Profile lookup
	mcp.AddTool(srv, tool(&mcp.Tool{
		Name:        "who_is_this",
		Description: "Look up a person from their LinkedIn profile URL and summarize who they are",
	}), pt.WhoIsThis)

	rh := &resources.Handlers{ServerName: Name, Version: Version}
	rh.Register(srv)

	srv.AddReceivingMiddleware(observe(deps.Metrics, toolNames, resources.Schemes))

	return srv
}
