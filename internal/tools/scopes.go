package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/devctx/internal/apperr"
)

// ScopesTool handles the list_scopes MCP tool.
type ScopesTool struct {
	scopes ScopeLister
}

// NewScopesTool creates a ScopesTool.
func NewScopesTool(scopes ScopeLister) *ScopesTool {
	return &ScopesTool{scopes: scopes}
}

// Definition returns the MCP tool definition for registration.
func (t *ScopesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_scopes",
		mcp.WithDescription(
			"List the application scopes registered in the knowledge base. "+
				"Use an active scope name in dev_prompt and dev_plan commands.",
		),
	)
}

// Handle processes the list_scopes tool call.
func (t *ScopesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scopes, err := t.scopes.ListScopes(ctx)
	if err != nil {
		return errorResult(apperr.Backend("tools.list_scopes", err)), nil
	}
	if len(scopes) == 0 {
		return mcp.NewToolResultText("No scopes registered. Add one with `devctx scopes add <key>`."), nil
	}

	var sb strings.Builder
	sb.WriteString("## Application Scopes\n\n")
	for _, s := range scopes {
		status := "active"
		if !s.Active {
			status = "inactive"
		}
		fmt.Fprintf(&sb, "- **%s** (%s)", s.Key, status)
		if s.Description != "" {
			fmt.Fprintf(&sb, ": %s", s.Description)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}
