package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/zako-ac/issuetracker/internal/admin"
	"github.com/zako-ac/issuetracker/internal/models"
	"github.com/zako-ac/issuetracker/internal/store"
)

// Server wraps the issue store and exposes it as MCP tools.
type Server struct {
	store   store.Store
	admins  *admin.Checker
	version string
}

// NewServer creates the MCP server wrapper.
func NewServer(s store.Store, admins *admin.Checker, version string) *Server {
	return &Server{
		store:   s,
		admins:  admins,
		version: version,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("issuetracker", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.listIssuesTool())
	srv.AddTool(s.createIssueTool())
	srv.AddTool(s.updateStatusTool())
	srv.AddTool(s.isAdminTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

func tagNames() string {
	tags := models.AllIssueTags()
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func statusNames() string {
	statuses := models.AllIssueStatuses()
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	return strings.Join(names, ", ")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// tracker_list_issues
func (s *Server) listIssuesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_list_issues",
		mcp.WithDescription("List issues, optionally filtered by tag. Returns a JSON array of issues ordered by id, each with id, name, detail, tag, status and discord_id."),
		mcp.WithString("tag", mcp.Description("Tag filter: "+tagNames())),
	)
	return tool, s.handleListIssues
}

func (s *Server) handleListIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var tag models.IssueTag
	if raw := request.GetString("tag", ""); raw != "" {
		t, ok := models.ParseIssueTag(raw)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown tag %q (valid: %s)", raw, tagNames())), nil
		}
		tag = t
	}

	issues, err := s.store.ListIssues(ctx, tag)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list issues: %v", err)), nil
	}

	out := make([]*models.Issue, 0, len(issues))
	for _, id := range store.SortedIDs(issues) {
		out = append(out, issues[id])
	}
	return jsonResult(out)
}

// tracker_create_issue
func (s *Server) createIssueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_create_issue",
		mcp.WithDescription("Create a new issue with status Proposed. Returns the created issue as JSON, including its id."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Short issue name")),
		mcp.WithString("detail", mcp.Required(), mcp.Description("Issue detail")),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag: "+tagNames())),
		mcp.WithString("discord_id", mcp.Description("Submitter's chat identity")),
	)
	return tool, s.handleCreateIssue
}

func (s *Server) handleCreateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	detail := request.GetString("detail", "")
	rawTag := request.GetString("tag", "")

	issue := &models.Issue{
		Name:      name,
		Detail:    detail,
		DiscordID: request.GetString("discord_id", ""),
	}
	if rawTag != "" {
		tag, ok := models.ParseIssueTag(rawTag)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown tag %q (valid: %s)", rawTag, tagNames())), nil
		}
		issue.Tag = tag
	}

	ok, err := s.store.CreateIssue(ctx, issue)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create issue: %v", err)), nil
	}
	if !ok {
		return mcp.NewToolResultError("name, detail and tag are required"), nil
	}
	return jsonResult(issue)
}

// tracker_update_status
func (s *Server) updateStatusTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_update_status",
		mcp.WithDescription("Change an issue's status. Only configured admins may do this."),
		mcp.WithNumber("issue_id", mcp.Required(), mcp.Description("Issue id")),
		mcp.WithString("status", mcp.Required(), mcp.Description("New status: "+statusNames())),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Chat identity of the user requesting the change")),
	)
	return tool, s.handleUpdateStatus
}

func (s *Server) handleUpdateStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", "")
	if !s.admins.IsAdmin(userID) {
		return mcp.NewToolResultError(fmt.Sprintf("user %q is not an admin", userID)), nil
	}

	id, err := issueIDArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawStatus := request.GetString("status", "")
	status, _ := models.ParseIssueStatus(rawStatus)

	ok, err := s.store.UpdateIssueStatus(ctx, id, status)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update issue: %v", err)), nil
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("issue_id and a valid status are required (valid: %s)", statusNames())), nil
	}
	return jsonResult(map[string]any{"id": id, "status": status})
}

// issueIDArg reads issue_id as a whole number. A missing argument yields 0,
// which the store rejects.
func issueIDArg(request mcp.CallToolRequest) (int64, error) {
	raw, ok := request.GetArguments()["issue_id"]
	if !ok || raw == nil {
		return 0, nil
	}
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || v < math.MinInt64 || v >= math.MaxInt64 {
			return 0, fmt.Errorf("issue_id must be a whole number, got %v", v)
		}
		return int64(v), nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("issue_id must be a whole number, got %q", v)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("issue_id must be a whole number, got %T", raw)
	}
}

// tracker_is_admin
func (s *Server) isAdminTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("tracker_is_admin",
		mcp.WithDescription("Report whether a chat identity is on the admin allow-list."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Chat identity")),
	)
	return tool, s.handleIsAdmin
}

func (s *Server) handleIsAdmin(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := request.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: user_id"), nil
	}
	return jsonResult(map[string]any{"user_id": userID, "admin": s.admins.IsAdmin(userID)})
}
