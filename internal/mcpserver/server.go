// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Perch day-rotation tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/perchsync/internal/perch"
)

// Server wraps the MCP server with Perch tools.
type Server struct {
	mcp *server.MCPServer
	svc *perch.Service
}

// New creates a new MCP server with all Perch tools registered.
func New(svc *perch.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Perch",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_today",
		mcp.WithDescription("Return today's day key, rotation index and keyboard set."),
		mcp.WithString("timezone", mcp.Description("IANA timezone (default: server timezone)")),
	), s.getToday)

	s.mcp.AddTool(mcp.NewTool("signal_day",
		mcp.WithDescription("Run the once-per-day rotation check for a client, as the page does on load."),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Client id")),
		mcp.WithString("trigger", mcp.Description("ready or visible (default: ready)")),
		mcp.WithString("capabilities", mcp.Description("Comma-separated capabilities, e.g. applyKeyboardSet,buildKeyboard")),
		mcp.WithString("timezone", mcp.Description("IANA timezone of the client")),
		mcp.WithBoolean("hidden", mcp.Description("Page is hidden; a visible trigger is then skipped")),
		mcp.WithNumber("day_index", mcp.Description("Day index override from the page")),
		mcp.WithNumber("puzzle_index", mcp.Description("Puzzle index override, used when day_index is absent")),
	), s.signalDay)

	s.mcp.AddTool(mcp.NewTool("hard_reset",
		mcp.WithDescription("Clear a client's saved puzzle state and session. The day key is kept."),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Client id")),
	), s.hardReset)

	s.mcp.AddTool(mcp.NewTool("get_client_state",
		mcp.WithDescription("Show the persisted keys and last rotation day of a client."),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Client id")),
	), s.getClientState)

	s.mcp.AddTool(mcp.NewTool("list_keyboard_sets",
		mcp.WithDescription("List keyboard sets in rotation order."),
	), s.listKeyboardSets)

	s.mcp.AddResource(
		mcp.NewResource("perch://keyboard-format", "Keyboard Set Format",
			mcp.WithResourceDescription("YAML format of the keyboard set rotation file."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readKeyboardFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// optionalInt returns nil when name was not passed.
func optionalInt(req mcp.CallToolRequest, name string) *int {
	if _, ok := req.GetArguments()[name]; !ok {
		return nil
	}
	v := req.GetInt(name, 0)
	return &v
}

func optionalString(req mcp.CallToolRequest, name string) string {
	if v, err := req.RequireString(name); err == nil {
		return v
	}
	return ""
}

func (s *Server) getToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	today, err := s.svc.Today(ctx, optionalString(req, "timezone"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(today)
}

func (s *Server) signalDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := req.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	trigger := optionalString(req, "trigger")
	if trigger == "" {
		trigger = "ready"
	}
	var caps []string
	for _, c := range strings.Split(optionalString(req, "capabilities"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			caps = append(caps, c)
		}
	}

	resp, err := s.svc.Signal(ctx, clientID, perch.SignalRequest{
		Trigger:      trigger,
		Hidden:       req.GetBool("hidden", false),
		Capabilities: caps,
		DayIndex:     optionalInt(req, "day_index"),
		PuzzleIndex:  optionalInt(req, "puzzle_index"),
		Timezone:     optionalString(req, "timezone"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resp)
}

func (s *Server) hardReset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := req.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.svc.HardReset(ctx, clientID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resp)
}

func (s *Server) getClientState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	clientID, err := req.RequireString("client_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st, err := s.svc.State(ctx, clientID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st)
}

func (s *Server) listKeyboardSets(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sets := s.svc.KeyboardSets()
	if len(sets) == 0 {
		return mcp.NewToolResultText("no keyboard sets loaded"), nil
	}
	names := make([]string, len(sets))
	for i, set := range sets {
		names[i] = set.Name
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) readKeyboardFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "perch://keyboard-format",
			MIMEType: "text/markdown",
			Text:     KeyboardFormatContract,
		},
	}, nil
}
