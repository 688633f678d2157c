// Package prompts implements the MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands). Unlike
// tools, which the agent calls, prompts are initiated by the user and
// return messages the host places in the conversation.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/devctx/internal/apperr"
	"github.com/HendryAvila/devctx/internal/pipeline"
)

// Pipeline is the surface prompts depend on.
// *pipeline.Service satisfies it.
type Pipeline interface {
	DevelopmentPrompt(ctx context.Context, raw string) (*pipeline.Result, error)
	PlanDocument(ctx context.Context, raw string) (string, error)
}

// DevPrompt handles the dev MCP prompt.
type DevPrompt struct {
	pipeline Pipeline
}

// NewDevPrompt creates a DevPrompt.
func NewDevPrompt(p Pipeline) *DevPrompt {
	return &DevPrompt{pipeline: p}
}

// Definition returns the MCP prompt definition for registration.
func (p *DevPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("dev",
		mcp.WithPromptDescription(
			"Start a development task with project context. "+
				"Example: 'dev rac booking search with date filters'.",
		),
		mcp.WithArgument("command",
			mcp.ArgumentDescription("Development command: [action] [scope] requirement"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the dev prompt request. The system section is sent as
// an assistant message followed by the user section.
func (p *DevPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	raw := argument(req, "command")

	res, err := p.pipeline.DevelopmentPrompt(ctx, raw)
	if err != nil {
		return failure(err), nil
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("%s task for %s", res.Command.Action, res.Command.Scope),
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleAssistant, Content: mcp.NewTextContent(res.Prompt.System)},
			{Role: mcp.RoleUser, Content: mcp.NewTextContent(res.Prompt.User)},
		},
	}, nil
}

// PlanPrompt handles the dev-plan MCP prompt.
type PlanPrompt struct {
	pipeline Pipeline
}

// NewPlanPrompt creates a PlanPrompt.
func NewPlanPrompt(p Pipeline) *PlanPrompt {
	return &PlanPrompt{pipeline: p}
}

// Definition returns the MCP prompt definition for registration.
func (p *PlanPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("dev-plan",
		mcp.WithPromptDescription(
			"Plan a feature: produce a PRD, tasks and subtasks grounded in the project documentation.",
		),
		mcp.WithArgument("command",
			mcp.ArgumentDescription("Development command: [action] [scope] requirement"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the dev-plan prompt request.
func (p *PlanPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	doc, err := p.pipeline.PlanDocument(ctx, argument(req, "command"))
	if err != nil {
		return failure(err), nil
	}
	return &mcp.GetPromptResult{
		Description: "Feature planning document",
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleUser, Content: mcp.NewTextContent(doc)},
		},
	}, nil
}

func argument(req mcp.GetPromptRequest, name string) string {
	if args := req.Params.Arguments; args != nil {
		return args[name]
	}
	return ""
}

// failure renders err as a single user message so the host shows the
// remediation text instead of a protocol error.
func failure(err error) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: "devctx could not build the prompt",
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleUser, Content: mcp.NewTextContent(apperr.Render(err))},
		},
	}
}
