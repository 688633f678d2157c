package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// DevPromptTool handles the dev_prompt MCP tool.
// It turns a free-form development command into a context-rich prompt.
type DevPromptTool struct {
	pipeline Pipeline
}

// NewDevPromptTool creates a DevPromptTool.
func NewDevPromptTool(p Pipeline) *DevPromptTool {
	return &DevPromptTool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *DevPromptTool) Definition() mcp.Tool {
	return mcp.NewTool("dev_prompt",
		mcp.WithDescription(
			"Build a development prompt grounded in the project's documentation. "+
				"Pass a command like 'dev rac booking search with date filters' or "+
				"'test partners add unit tests for auth flow': an optional action "+
				"(dev, test, fix, refactor, update, gen), an optional application scope, "+
				"then the requirement. Returns system and user sections ready to follow.",
		),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Development command: [action] [scope] requirement"),
		),
	)
}

// Handle processes the dev_prompt tool call.
func (t *DevPromptTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := req.GetString("command", "")

	res, err := t.pipeline.DevelopmentPrompt(ctx, raw)
	if err != nil {
		return errorResult(err), nil
	}

	var sb strings.Builder
	sb.WriteString("# System\n\n")
	sb.WriteString(res.Prompt.System)
	sb.WriteString("\n\n---\n\n# User\n\n")
	sb.WriteString(res.Prompt.User)
	sb.WriteString("\n\n---\n")
	sb.WriteString(retrievalSummary(res.Prompt.Metadata.Hits()))

	return mcp.NewToolResultText(sb.String()), nil
}

// retrievalSummary lists which aspects were found in the knowledge base.
func retrievalSummary(hits map[string]bool) string {
	var sb strings.Builder
	sb.WriteString("_Retrieved context:")
	for _, aspect := range []string{"technology", "folder_structure", "conventions", "examples"} {
		mark := "✗"
		if hits[aspect] {
			mark = "✓"
		}
		sb.WriteString(" " + aspect + " " + mark)
	}
	sb.WriteString("_\n")
	return sb.String()
}
