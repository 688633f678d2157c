package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// DevPlanTool handles the dev_plan MCP tool.
// It produces a planning document asking for a PRD, tasks and subtasks.
type DevPlanTool struct {
	pipeline Pipeline
}

// NewDevPlanTool creates a DevPlanTool.
func NewDevPlanTool(p Pipeline) *DevPlanTool {
	return &DevPlanTool{pipeline: p}
}

// Definition returns the MCP tool definition for registration.
func (t *DevPlanTool) Definition() mcp.Tool {
	return mcp.NewTool("dev_plan",
		mcp.WithDescription(
			"Build a planning document for a feature: retrieved architecture, conventions "+
				"and examples plus the PRD, task and subtask templates from the knowledge base. "+
				"Use before large features to produce a PRD and an implementation breakdown.",
		),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("Development command: [action] [scope] requirement"),
		),
	)
}

// Handle processes the dev_plan tool call.
func (t *DevPlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := t.pipeline.PlanDocument(ctx, req.GetString("command", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(doc), nil
}
