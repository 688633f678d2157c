package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/devctx/internal/apperr"
	"github.com/HendryAvila/devctx/internal/config"
	"github.com/HendryAvila/devctx/internal/pipeline"
	"github.com/HendryAvila/devctx/internal/rules"
)

// run executes the CLI with args against temp databases and returns
// stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func tempStores(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvConfigFile, "")
	t.Setenv(config.EnvKnowledgeBase, filepath.Join(dir, "knowledge.db"))
	t.Setenv(config.EnvAccessDB, filepath.Join(dir, "access.db"))
	t.Setenv(config.EnvLogLevel, "error")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "devctx v") {
		t.Errorf("out = %q", out)
	}
}

func TestScopesLifecycle(t *testing.T) {
	tempStores(t)

	if _, err := run(t, "scopes", "add", "rac", "--description", "Rent-a-car booking app"); err != nil {
		t.Fatalf("scopes add: %v", err)
	}
	out, err := run(t, "scopes", "list")
	if err != nil {
		t.Fatalf("scopes list: %v", err)
	}
	if !strings.Contains(out, "rac") || !strings.Contains(out, "Rent-a-car booking app") {
		t.Errorf("list = %q", out)
	}

	if _, err := run(t, "scopes", "disable", "RAC"); err != nil {
		t.Fatalf("scopes disable: %v", err)
	}
	out, _ = run(t, "scopes", "list")
	if !strings.Contains(out, "inactive") {
		t.Errorf("list after disable = %q", out)
	}

	if _, err := run(t, "scopes", "disable", "nope"); err == nil {
		t.Error("disabling an unregistered scope should fail")
	}
}

func TestKeysLifecycle(t *testing.T) {
	tempStores(t)

	out, err := run(t, "keys", "create", "ci")
	if err != nil {
		t.Fatalf("keys create: %v", err)
	}
	if !strings.HasPrefix(out, "dctx_") {
		t.Errorf("create = %q, want a dctx_ key first", out)
	}

	out, err = run(t, "keys", "list")
	if err != nil {
		t.Fatalf("keys list: %v", err)
	}
	if !strings.Contains(out, "ci") || !strings.Contains(out, "never") {
		t.Errorf("list = %q", out)
	}

	if _, err := run(t, "keys", "revoke", "1"); err != nil {
		t.Fatalf("keys revoke: %v", err)
	}
	out, _ = run(t, "keys", "list")
	if !strings.Contains(out, "revoked") {
		t.Errorf("list after revoke = %q", out)
	}

	if _, err := run(t, "keys", "revoke", "abc"); err == nil {
		t.Error("non-numeric id should fail")
	}
}

func TestStats_Empty(t *testing.T) {
	tempStores(t)

	out, err := run(t, "stats")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "Documents:     0") {
		t.Errorf("stats = %q", out)
	}
}

func TestPrompt_RequiresCommand(t *testing.T) {
	if _, err := run(t, "prompt"); err == nil {
		t.Fatal("prompt without arguments should fail")
	}
}

func TestPrompt_MissingConfiguration(t *testing.T) {
	tempStores(t)
	t.Setenv(config.EnvEmbeddingProvider, "genai")
	t.Setenv(config.EnvGeminiAPIKey, "")

	_, err := run(t, "prompt", "dev", "rac", "booking")
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
	if msg := apperr.Render(err); !strings.Contains(msg, config.EnvGeminiAPIKey) {
		t.Errorf("Render = %q, want it to name %s", msg, config.EnvGeminiAPIKey)
	}
}

func TestIndex_RequiresDir(t *testing.T) {
	if _, err := run(t, "index"); err == nil {
		t.Fatal("index without a directory should fail")
	}
}

func TestFormatRules(t *testing.T) {
	out := formatRules(pipeline.RulesResult{
		Types:     []rules.RuleType{rules.Testing},
		Content:   "# Testing Rules",
		Retrieved: "Use MSW for API mocks.",
	})
	if !strings.HasPrefix(out, "Rule types: TESTING") || !strings.Contains(out, "## Project-specific rules") {
		t.Errorf("formatRules = %q", out)
	}
}

func TestPromptHelp_ListsScopes(t *testing.T) {
	out, err := run(t, "prompt", "--help")
	if err != nil {
		t.Fatalf("prompt --help: %v", err)
	}
	if !strings.Contains(out, "rac, partners") {
		t.Errorf("help = %q", out)
	}
}
