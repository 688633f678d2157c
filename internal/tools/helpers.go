// Package tools implements the MCP tool handlers.
//
// Each tool is a struct holding its dependencies, with a Definition for
// registration and a Handle compatible with mcp-go's CallToolRequest
// signature. Domain failures are returned as tool error results carrying
// human-readable text, never as protocol errors.
package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/devctx/internal/apperr"
	"github.com/HendryAvila/devctx/internal/knowledge"
	"github.com/HendryAvila/devctx/internal/pipeline"
)

// Pipeline is the caller-facing surface tools depend on.
// *pipeline.Service satisfies it.
type Pipeline interface {
	DevelopmentPrompt(ctx context.Context, raw string) (*pipeline.Result, error)
	PlanDocument(ctx context.Context, raw string) (string, error)
	Rules(ctx context.Context, text string) pipeline.RulesResult
}

// ScopeLister lists the applications registry.
// *knowledge.Store satisfies it.
type ScopeLister interface {
	ListScopes(ctx context.Context) ([]knowledge.Scope, error)
}

// errorResult renders err for the agent.
func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(apperr.Render(err))
}
