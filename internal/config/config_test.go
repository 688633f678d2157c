package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HendryAvila/devctx/internal/apperr"
	"github.com/HendryAvila/devctx/internal/embedding"
)

// withEnv replaces the environment lookup for the duration of a test.
func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	origLookup, origHome := lookupEnv, userHomeDir
	lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	userHomeDir = func() (string, error) { return "/home/dev", nil }
	t.Cleanup(func() {
		lookupEnv, userHomeDir = origLookup, origHome
	})
}

func missingOf(t *testing.T, err error) []string {
	t.Helper()
	var e *apperr.Error
	if !errors.As(err, &e) || e.Kind != apperr.KindConfiguration {
		t.Fatalf("error = %v, want a configuration error", err)
	}
	return e.Missing
}

// --- Load ---

func TestLoad_Defaults(t *testing.T) {
	withEnv(t, nil)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KnowledgeBase != filepath.Join("/home/dev", ".devctx", "knowledge.db") {
		t.Errorf("KnowledgeBase = %s", cfg.KnowledgeBase)
	}
	if cfg.AccessDB != filepath.Join("/home/dev", ".devctx", "access.db") {
		t.Errorf("AccessDB = %s", cfg.AccessDB)
	}
	if cfg.Embedding.Provider != "genai" {
		t.Errorf("Provider = %s, want genai", cfg.Embedding.Provider)
	}
	if cfg.ResultLimit != 2 {
		t.Errorf("ResultLimit = %d, want 2", cfg.ResultLimit)
	}
	if cfg.Timeout() != 15*time.Second {
		t.Errorf("Timeout = %s, want 15s", cfg.Timeout())
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	withEnv(t, nil)
	path := filepath.Join(t.TempDir(), "devctx.yaml")
	content := `knowledge_base: /data/kb.db
embedding:
  provider: ollama
  model: nomic-embed-text
result_limit: 4
query_timeout: 3s
log_level: debug
http_addr: ":8080"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KnowledgeBase != "/data/kb.db" {
		t.Errorf("KnowledgeBase = %s", cfg.KnowledgeBase)
	}
	if cfg.Embedding.Provider != "ollama" || cfg.Embedding.Model != "nomic-embed-text" {
		t.Errorf("Embedding = %+v", cfg.Embedding)
	}
	if cfg.ResultLimit != 4 || cfg.Timeout() != 3*time.Second {
		t.Errorf("ResultLimit=%d Timeout=%s", cfg.ResultLimit, cfg.Timeout())
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %s", cfg.HTTPAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_FileFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devctx.yaml")
	if err := os.WriteFile(path, []byte("rules_dir: /rules\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	withEnv(t, map[string]string{EnvConfigFile: path})

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RulesDir != "/rules" {
		t.Errorf("RulesDir = %s, want /rules", cfg.RulesDir)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devctx.yaml")
	if err := os.WriteFile(path, []byte("knowledge_base: /file.db\nresult_limit: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	withEnv(t, map[string]string{
		EnvKnowledgeBase:     "/env.db",
		EnvResultLimit:       "7",
		EnvQueryTimeout:      "500ms",
		EnvEmbeddingProvider: "OLLAMA",
	})

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KnowledgeBase != "/env.db" {
		t.Errorf("KnowledgeBase = %s, want env value", cfg.KnowledgeBase)
	}
	if cfg.ResultLimit != 7 {
		t.Errorf("ResultLimit = %d, want 7", cfg.ResultLimit)
	}
	if cfg.Timeout() != 500*time.Millisecond {
		t.Errorf("Timeout = %s, want 500ms", cfg.Timeout())
	}
	if cfg.Embedding.Provider != "ollama" {
		t.Errorf("Provider = %s, want lower-cased ollama", cfg.Embedding.Provider)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	withEnv(t, nil)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load(missing file) should fail")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	withEnv(t, nil)
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("query_timeout: forever\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !apperr.Is(err, apperr.KindConfiguration) {
		t.Fatalf("Load(bad yaml) = %v, want configuration error", err)
	}
}

// --- Validate ---

func TestValidate_GenAIRequiresKey(t *testing.T) {
	withEnv(t, nil)
	cfg, _ := Load("")

	missing := missingOf(t, cfg.Validate())
	if len(missing) != 1 || missing[0] != EnvGeminiAPIKey {
		t.Errorf("Missing = %v, want [%s]", missing, EnvGeminiAPIKey)
	}
}

func TestValidate_ReportsEverything(t *testing.T) {
	withEnv(t, map[string]string{
		EnvEmbeddingProvider: "openai",
		EnvResultLimit:       "two",
		EnvQueryTimeout:      "soon",
		EnvLogLevel:          "loud",
	})
	userHomeDir = func() (string, error) { return "", errors.New("no home") }
	cfg, _ := Load("")

	missing := missingOf(t, cfg.Validate())
	want := map[string]bool{
		EnvResultLimit: true, EnvQueryTimeout: true, EnvKnowledgeBase: true,
		EnvEmbeddingProvider: true, EnvLogLevel: true,
	}
	if len(missing) != len(want) {
		t.Fatalf("Missing = %v, want %d entries", missing, len(want))
	}
	for _, m := range missing {
		if !want[m] {
			t.Errorf("unexpected missing setting %s", m)
		}
	}
}

func TestValidate_OllamaNeedsNoKey(t *testing.T) {
	withEnv(t, map[string]string{EnvEmbeddingProvider: "ollama"})
	cfg, _ := Load("")
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestEmbeddingConfig(t *testing.T) {
	withEnv(t, map[string]string{EnvGeminiAPIKey: "k", EnvEmbeddingModel: "m"})
	cfg, _ := Load("")

	got := cfg.EmbeddingConfig(embedding.TaskRetrievalDocument)
	want := embedding.Config{Provider: "genai", APIKey: "k", Model: "m", TaskType: embedding.TaskRetrievalDocument}
	if got != want {
		t.Errorf("EmbeddingConfig = %+v, want %+v", got, want)
	}
}
