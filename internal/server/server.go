// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the long-lived clients once
// (knowledge base, embedding provider, rule library) and injects them
// into the tools, prompts and resources. No business logic lives here.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/devctx/internal/assembler"
	"github.com/HendryAvila/devctx/internal/config"
	"github.com/HendryAvila/devctx/internal/embedding"
	"github.com/HendryAvila/devctx/internal/knowledge"
	"github.com/HendryAvila/devctx/internal/pipeline"
	"github.com/HendryAvila/devctx/internal/prompts"
	"github.com/HendryAvila/devctx/internal/resources"
	"github.com/HendryAvila/devctx/internal/retrieval"
	"github.com/HendryAvila/devctx/internal/rules"
	"github.com/HendryAvila/devctx/internal/tools"
	"github.com/HendryAvila/devctx/internal/version"
)

// openKnowledge is a package-level var to allow test injection.
var openKnowledge = knowledge.Open

// Registry is the scope registry surface the MCP handlers read.
// *knowledge.Store satisfies it.
type Registry interface {
	tools.ScopeLister
	resources.ScopeLister
}

// Deps are the dependencies Build registers handlers with.
type Deps struct {
	Pipeline *pipeline.Service
	Registry Registry
	Library  *rules.Library
}

// App is a fully wired devctx instance.
type App struct {
	MCP      *server.MCPServer
	Service  *pipeline.Service
	Store    *knowledge.Store
	cfg      *config.Config
	log      *zap.Logger
	closeFns []func() error
}

// New validates cfg and builds every dependency. Close must be called on
// shutdown.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := openKnowledge(cfg.KnowledgeBase)
	if err != nil {
		return nil, err
	}
	app := &App{Store: store, cfg: cfg, log: log}
	app.closeFns = append(app.closeFns, store.Close)

	embedder, err := embedding.New(ctx, cfg.EmbeddingConfig(embedding.TaskRetrievalQuery))
	if err != nil {
		app.Close()
		return nil, err
	}

	library, err := rules.Load(cfg.RulesDir)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	engine := retrieval.NewEngine(embedder, store, log, retrieval.Options{
		ResultLimit:  cfg.ResultLimit,
		QueryTimeout: cfg.Timeout(),
	})
	app.Service = pipeline.New(engine, assembler.New(engine, log), library, log)
	app.MCP = Build(Deps{Pipeline: app.Service, Registry: store, Library: library})

	log.Info("server ready",
		zap.String("knowledge_base", cfg.KnowledgeBase),
		zap.String("embedding", embedder.Name()),
		zap.Int("result_limit", cfg.ResultLimit),
	)
	return app, nil
}

// Close releases every resource New opened.
func (a *App) Close() {
	for i := len(a.closeFns) - 1; i >= 0; i-- {
		if err := a.closeFns[i](); err != nil {
			a.log.Warn("WARNING: shutdown", zap.Error(err))
		}
	}
	a.closeFns = nil
}

// ServeStdio serves MCP over stdin/stdout until the client disconnects.
func (a *App) ServeStdio() error {
	return server.ServeStdio(a.MCP)
}

// Build creates the MCP server with all tools, prompts and resources
// registered.
func Build(d Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"devctx",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tools ---

	devPrompt := tools.NewDevPromptTool(d.Pipeline)
	s.AddTool(devPrompt.Definition(), devPrompt.Handle)

	devPlan := tools.NewDevPlanTool(d.Pipeline)
	s.AddTool(devPlan.Definition(), devPlan.Handle)

	rulesTool := tools.NewRulesTool(d.Pipeline)
	s.AddTool(rulesTool.Definition(), rulesTool.Handle)

	scopesTool := tools.NewScopesTool(d.Registry)
	s.AddTool(scopesTool.Definition(), scopesTool.Handle)

	// --- Register prompts ---

	devPromptMsg := prompts.NewDevPrompt(d.Pipeline)
	s.AddPrompt(devPromptMsg.Definition(), devPromptMsg.Handle)

	planPrompt := prompts.NewPlanPrompt(d.Pipeline)
	s.AddPrompt(planPrompt.Definition(), planPrompt.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(d.Registry, d.Library)
	s.AddResource(resourceHandler.ScopesResource(), resourceHandler.HandleScopes)
	s.AddResourceTemplate(resourceHandler.RulesTemplate(), resourceHandler.HandleRules)

	return s
}

// serverInstructions tells the agent how to use devctx.
func serverInstructions() string {
	return `You have access to devctx, a development-context server for a pnpm + Turborepo monorepo.

## WHEN TO USE devctx

Call dev_prompt BEFORE writing code for any development task in this monorepo:
features, tests, bug fixes, refactors or updates. It returns the project's
technology stack, folder structure, conventions and similar examples for the
application you are working on.

## Commands

dev_prompt and dev_plan take a single command string:

    [action] [scope] requirement

- action: dev, implement, create, add, build, test, fix, debug, refactor, update, gen (default: dev)
- scope: the application, e.g. rac, partners, web (default: global). Call list_scopes to see them.
- requirement: what to build, in plain words

Examples:
- dev rac booking search with date filters
- test partners add unit tests for auth flow
- fix web header overlaps on mobile

## Tools
- dev_prompt: context-rich prompt for one task
- dev_plan: PRD, task and subtask planning document for a larger feature
- get_rules: only the rule sets relevant to what you are about to do
- list_scopes: registered application scopes

## Rules
Always read the mandatory rules in the returned prompt, or call get_rules,
before writing code. When a tool returns an error, show the message to the
user: it names the missing setting or the valid scopes.`
}
