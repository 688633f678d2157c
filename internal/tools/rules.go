package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// RulesTool handles the get_rules MCP tool.
// It returns only the rule documents relevant to the task at hand.
type RulesTool struct {
	pipeline Pipeline
}

// NewRulesTool creates a RulesTool.
func NewRulesTool(p Pipeline) *RulesTool {
	return &RulesTool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *RulesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_rules",
		mcp.WithDescription(
			"Get the development rules relevant to a task. Describe what you are about to do "+
				"and only the matching rule sets (testing, structure, endpoints, code style) are "+
				"returned. Without context every rule set is returned. Call this before writing code.",
		),
		mcp.WithString("context",
			mcp.Description("What you are about to work on, e.g. 'write jest tests for the booking form'"),
		),
	)
}

// Handle processes the get_rules tool call.
func (t *RulesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := t.pipeline.Rules(ctx, req.GetString("context", ""))

	names := make([]string, len(res.Types))
	for i, rt := range res.Types {
		names[i] = string(rt)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Rule types**: %s\n\n", strings.Join(names, ", "))
	sb.WriteString(res.Content)
	if res.Retrieved != "" {
		sb.WriteString("\n\n---\n\n## Project-specific rules\n\n")
		sb.WriteString(res.Retrieved)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
