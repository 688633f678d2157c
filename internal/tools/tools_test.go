package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/devctx/internal/apperr"
	"github.com/HendryAvila/devctx/internal/assembler"
	"github.com/HendryAvila/devctx/internal/knowledge"
	"github.com/HendryAvila/devctx/internal/pipeline"
	"github.com/HendryAvila/devctx/internal/retrieval"
	"github.com/HendryAvila/devctx/internal/rules"
)

// --- Test helpers ---

// stubRetriever serves canned retrieval results.
type stubRetriever struct {
	rc       retrieval.RetrievedContext
	err      error
	rulesErr error
	lastReq  string
}

func (s *stubRetriever) RetrieveContext(_ context.Context, requirement, scope, action string) (retrieval.RetrievedContext, error) {
	s.lastReq = requirement
	if s.err != nil {
		return retrieval.RetrievedContext{}, s.err
	}
	return s.rc, nil
}

func (s *stubRetriever) RetrieveTemplates(context.Context) retrieval.TemplateBundle {
	return retrieval.TemplateBundle{
		PRD:      "# PRD skeleton",
		Tasks:    retrieval.TemplatePlaceholder("Tasks"),
		Subtasks: retrieval.TemplatePlaceholder("Subtasks"),
	}
}

func (s *stubRetriever) RetrieveRules(context.Context, string, string, []string, int) (string, error) {
	if s.rulesErr != nil {
		return "", s.rulesErr
	}
	return "### Repo rule (global/rules/testing, distance: 0.1000)\nuse msw for http mocks", nil
}

func newPipeline(t *testing.T, r *stubRetriever) *pipeline.Service {
	t.Helper()
	lib, err := rules.Load("")
	if err != nil {
		t.Fatalf("rules.Load: %v", err)
	}
	return pipeline.New(r, assembler.New(nil, nil), lib, nil)
}

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// getResultText extracts the text content from a CallToolResult.
func getResultText(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// --- DevPromptTool ---

func TestDevPromptTool_Handle_Success(t *testing.T) {
	r := &stubRetriever{rc: retrieval.RetrievedContext{Technology: "React 18", Examples: "booking example"}}
	tool := NewDevPromptTool(newPipeline(t, r))

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"command": "dev rac booking search with date filters",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if isErrorResult(result) {
		t.Fatalf("expected success, got error: %s", getResultText(result))
	}

	text := getResultText(result)
	for _, want := range []string{
		"# System", "RAC application", "React 18", "# User",
		"**dev**: booking search with date filters", "## Similar Examples",
		"technology ✓", "conventions ✗",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q", want)
		}
	}
	if r.lastReq != "booking search with date filters" {
		t.Errorf("requirement = %q", r.lastReq)
	}
}

func TestDevPromptTool_Handle_EmptyCommand(t *testing.T) {
	tool := NewDevPromptTool(newPipeline(t, &stubRetriever{}))

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"command": "  "}))
	if err != nil {
		t.Fatalf("Handle returned protocol error: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result for empty command")
	}
}

func TestDevPromptTool_Handle_ScopeNotFound(t *testing.T) {
	r := &stubRetriever{err: apperr.ScopeNotFound("web", []string{"global", "rac"})}
	tool := NewDevPromptTool(newPipeline(t, r))

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"command": "dev web landing"}))
	if err != nil {
		t.Fatalf("Handle returned protocol error: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result")
	}
	text := getResultText(result)
	if !strings.Contains(text, "- global") || !strings.Contains(text, "- rac") {
		t.Errorf("error should list available scopes, got: %s", text)
	}
}

func TestDevPromptTool_Handle_ConfigurationError(t *testing.T) {
	r := &stubRetriever{err: apperr.Configuration([]string{"GEMINI_API_KEY"}, errors.New("missing key"))}
	tool := NewDevPromptTool(newPipeline(t, r))

	result, _ := tool.Handle(context.Background(), makeReq(map[string]interface{}{"command": "dev rac x"}))
	if !strings.Contains(getResultText(result), "- [ ] Set `GEMINI_API_KEY`") {
		t.Errorf("configuration errors should render a checklist, got: %s", getResultText(result))
	}
}

// --- DevPlanTool ---

func TestDevPlanTool_Handle(t *testing.T) {
	tool := NewDevPlanTool(newPipeline(t, &stubRetriever{}))

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"command": "dev partners payouts export"}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.Contains(text, "# PRD skeleton") || !strings.Contains(text, "[Tasks template not found]") {
		t.Errorf("plan should include templates, got: %s", text)
	}
}

func TestDevPlanTool_Handle_BackendError(t *testing.T) {
	r := &stubRetriever{err: apperr.Backend("retrieval.technology", errors.New("disk I/O error"))}
	tool := NewDevPlanTool(newPipeline(t, r))

	result, _ := tool.Handle(context.Background(), makeReq(map[string]interface{}{"command": "dev rac x"}))
	if !isErrorResult(result) {
		t.Fatal("expected error result")
	}
}

// --- RulesTool ---

func TestRulesTool_Handle_Testing(t *testing.T) {
	tool := NewRulesTool(newPipeline(t, &stubRetriever{}))

	result, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"context": "write jest unit tests for the booking component",
	}))
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	text := getResultText(result)
	if !strings.HasPrefix(text, "**Rule types**: TESTING") {
		t.Errorf("TESTING should come first, got: %s", text[:min(60, len(text))])
	}
	if !strings.Contains(text, "# Testing Rules") || !strings.Contains(text, "use msw for http mocks") {
		t.Error("result should include static and retrieved testing rules")
	}
}

func TestRulesTool_Handle_NoContext(t *testing.T) {
	tool := NewRulesTool(newPipeline(t, &stubRetriever{rulesErr: errors.New("offline")}))

	result, _ := tool.Handle(context.Background(), makeReq(nil))
	if isErrorResult(result) {
		t.Fatal("get_rules must not fail when retrieval fails")
	}
	text := getResultText(result)
	if !strings.HasPrefix(text, "**Rule types**: ALL") {
		t.Errorf("blank context should select ALL, got: %s", text[:min(60, len(text))])
	}
	if strings.Contains(text, "Project-specific rules") {
		t.Error("failed retrieval should omit the project-specific block")
	}
}

// --- ScopesTool ---

type stubScopes struct {
	scopes []knowledge.Scope
	err    error
}

func (s stubScopes) ListScopes(context.Context) ([]knowledge.Scope, error) {
	return s.scopes, s.err
}

func TestScopesTool_Handle(t *testing.T) {
	tool := NewScopesTool(stubScopes{scopes: []knowledge.Scope{
		{Key: "global", Active: true, Description: "Shared docs"},
		{Key: "web", Active: false},
	}})

	result, _ := tool.Handle(context.Background(), makeReq(nil))
	text := getResultText(result)
	if !strings.Contains(text, "- **global** (active): Shared docs") {
		t.Errorf("missing global scope line: %s", text)
	}
	if !strings.Contains(text, "- **web** (inactive)") {
		t.Errorf("missing web scope line: %s", text)
	}
}

func TestScopesTool_Handle_Empty(t *testing.T) {
	result, _ := NewScopesTool(stubScopes{}).Handle(context.Background(), makeReq(nil))
	if !strings.Contains(getResultText(result), "No scopes registered") {
		t.Errorf("got: %s", getResultText(result))
	}
}

func TestScopesTool_Handle_Error(t *testing.T) {
	result, err := NewScopesTool(stubScopes{err: errors.New("locked")}).Handle(context.Background(), makeReq(nil))
	if err != nil {
		t.Fatalf("Handle returned protocol error: %v", err)
	}
	if !isErrorResult(result) {
		t.Fatal("expected error result")
	}
}

func TestDefinitions(t *testing.T) {
	p := newPipeline(t, &stubRetriever{})
	names := map[string]string{
		NewDevPromptTool(p).Definition().Name: "dev_prompt",
		NewDevPlanTool(p).Definition().Name:   "dev_plan",
		NewRulesTool(p).Definition().Name:     "get_rules",
		NewScopesTool(nil).Definition().Name:  "list_scopes",
	}
	for got, want := range names {
		if got != want {
			t.Errorf("tool name = %s, want %s", got, want)
		}
	}
}
