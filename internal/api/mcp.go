package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/askorg/internal/intent"
)

const mcpHistoryLimit = 10

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Answerer Answerer
	Reporter Reporter
	Version  string
}

// NewMCPServer creates an MCP server exposing the question pipeline as tools
// and store summaries as resources.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"askorg",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("askorg answers questions about the organization's employees, projects and issues."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription("Answer a natural-language question about employees, projects or issues."),
			mcp.WithString("question", mcp.Description("The question to answer"), mcp.Required()),
		),
		mcpAsk(deps),
	)

	s.AddTool(runIntentTool(), mcpRunIntent(deps))

	s.AddTool(
		mcp.NewTool("stats",
			mcp.WithDescription("Count employees, projects and issues."),
		),
		mcpStats(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"org://stats",
			"Organization Stats",
			mcp.WithResourceDescription("Employee, project and issue counts as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceStats(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"org://history",
			"Recent Questions",
			mcp.WithResourceDescription("Last 10 answered questions"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceHistory(deps),
	)

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil || strings.TrimSpace(question) == "" {
			return mcpError("question is required"), nil
		}

		resp, err := deps.Answerer.Ask(ctx, question)
		if err != nil {
			return mcpError(fmt.Sprintf("query failed: %v", err)), nil
		}
		return mcpJSON(resp)
	}
}

// runIntentTool advertises every type name mcpRunIntent accepts.
func runIntentTool() mcp.Tool {
	return mcp.NewTool("run_intent",
		mcp.WithDescription("Run a structured query directly, skipping question classification."),
		mcp.WithString("type", mcp.Description("Intent type"), mcp.Required(), mcp.Enum(intent.Names()...)),
		mcp.WithString("parameter", mcp.Description("Department, role, name or status the intent filters on")),
	)
}

func mcpRunIntent(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("type")
		if err != nil {
			return mcpError("type is required"), nil
		}
		t, ok := intent.ParseType(raw)
		if !ok {
			return mcpError(fmt.Sprintf("unknown intent type %q", raw)), nil
		}

		resp, err := deps.Answerer.Run(ctx, intent.New(t, req.GetString("parameter", "")))
		if err != nil {
			return mcpError(fmt.Sprintf("query failed: %v", err)), nil
		}
		return mcpJSON(resp)
	}
}

func mcpStats(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s, err := deps.Reporter.Stats(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("reading stats: %v", err)), nil
		}
		return mcpJSON(s)
	}
}

func mcpResourceStats(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		s, err := deps.Reporter.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read stats: %w", err)
		}
		return jsonResource(req.Params.URI, s)
	}
}

func mcpResourceHistory(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		records, err := deps.Reporter.RecentQueries(ctx, mcpHistoryLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to read history: %w", err)
		}

		type historyEntry struct {
			ID        string `json:"id"`
			CreatedAt string `json:"created_at"`
			Question  string `json:"question"`
			Intent    string `json:"intent"`
		}

		entries := make([]historyEntry, len(records))
		for i, r := range records {
			q := r.Question
			if utf8.RuneCountInString(q) > 200 {
				q = string([]rune(q)[:200]) + "..."
			}
			entries[i] = historyEntry{
				ID:        r.ID,
				CreatedAt: r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
				Question:  q,
				Intent:    r.IntentType,
			}
		}
		return jsonResource(req.Params.URI, entries)
	}
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
