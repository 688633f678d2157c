package resources

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/devctx/internal/rules"
)

type stubScopes struct {
	scopes []string
	err    error
}

func (s stubScopes) ListActiveScopes(context.Context) ([]string, error) { return s.scopes, s.err }

func newHandler(t *testing.T, s stubScopes) *Handler {
	t.Helper()
	lib, err := rules.Load("")
	if err != nil {
		t.Fatalf("rules.Load: %v", err)
	}
	return NewHandler(s, lib)
}

func readReq(uri string) mcp.ReadResourceRequest {
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	return req
}

func text(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content is %T", contents[0])
	}
	return tc.Text
}

func TestHandleScopes(t *testing.T) {
	h := newHandler(t, stubScopes{scopes: []string{"global", "rac"}})

	contents, err := h.HandleScopes(context.Background(), readReq(scopesURI))
	if err != nil {
		t.Fatalf("HandleScopes: %v", err)
	}
	var got struct {
		Scopes []string `json:"scopes"`
	}
	if err := json.Unmarshal([]byte(text(t, contents)), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if strings.Join(got.Scopes, ",") != "global,rac" {
		t.Errorf("scopes = %v", got.Scopes)
	}
}

func TestHandleScopes_Error(t *testing.T) {
	h := newHandler(t, stubScopes{err: errors.New("database is locked")})

	contents, err := h.HandleScopes(context.Background(), readReq(scopesURI))
	if err != nil {
		t.Fatalf("HandleScopes: %v", err)
	}
	if got := text(t, contents); !strings.HasPrefix(got, "Error: ") {
		t.Errorf("text = %q, want error resource", got)
	}
}

func TestHandleRules(t *testing.T) {
	h := newHandler(t, stubScopes{})

	contents, err := h.HandleRules(context.Background(), readReq("devctx://rules/testing"))
	if err != nil {
		t.Fatalf("HandleRules: %v", err)
	}
	if got := text(t, contents); !strings.Contains(got, "# Testing Rules") {
		t.Errorf("text = %q", got)
	}
}

func TestHandleRules_Unknown(t *testing.T) {
	h := newHandler(t, stubScopes{})
	if _, err := h.HandleRules(context.Background(), readReq("devctx://rules/security")); err == nil {
		t.Fatal("unknown rule document should fail")
	}
}

func TestRulesTemplate_ListsNames(t *testing.T) {
	tpl := newHandler(t, stubScopes{}).RulesTemplate()
	if !strings.Contains(tpl.Description, "code-style") {
		t.Errorf("Description = %q", tpl.Description)
	}
}
