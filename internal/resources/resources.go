// Package resources implements the MCP resource handlers.
//
// Resources provide read-only data the host can consume for context,
// addressed by devctx:// URIs.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/devctx/internal/rules"
)

const (
	scopesURI        = "devctx://scopes"
	rulesURIPrefix   = "devctx://rules/"
	rulesURITemplate = rulesURIPrefix + "{name}"
)

// ScopeLister lists the active scopes.
type ScopeLister interface {
	ListActiveScopes(ctx context.Context) ([]string, error)
}

// Handler serves devctx resources.
type Handler struct {
	scopes  ScopeLister
	library *rules.Library
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(scopes ScopeLister, library *rules.Library) *Handler {
	return &Handler{scopes: scopes, library: library}
}

// ScopesResource returns the MCP resource definition for the active scopes.
func (h *Handler) ScopesResource() mcp.Resource {
	return mcp.NewResource(
		scopesURI,
		"Active application scopes",
		mcp.WithResourceDescription("Application scopes accepted by dev_prompt and dev_plan"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleScopes returns the active scopes as JSON.
func (h *Handler) HandleScopes(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	scopes, err := h.scopes.ListActiveScopes(ctx)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(map[string][]string{"scopes": scopes}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling scopes: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// RulesTemplate returns the MCP resource template for rule documents.
func (h *Handler) RulesTemplate() mcp.ResourceTemplate {
	return mcp.NewResourceTemplate(
		rulesURITemplate,
		"Development rules",
		mcp.WithTemplateDescription("Static rule document by name: "+strings.Join(h.library.Names(), ", ")),
		mcp.WithTemplateMIMEType("text/markdown"),
	)
}

// HandleRules returns the rule document named by the URI.
func (h *Handler) HandleRules(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	name := strings.TrimPrefix(req.Params.URI, rulesURIPrefix)
	doc, ok := h.library.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown rule document %q (available: %s)", name, strings.Join(h.library.Names(), ", "))
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     doc,
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
