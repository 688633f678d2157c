// Package config loads devctx settings from an optional YAML file and
// the environment.
//
// Precedence is environment, then file, then built-in defaults. A loaded
// Config is never mutated; pass it by pointer to the composition root.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/devctx/internal/apperr"
	"github.com/HendryAvila/devctx/internal/embedding"
)

// Environment variable names.
const (
	EnvConfigFile        = "DEVCTX_CONFIG"
	EnvKnowledgeBase     = "DEVCTX_KB_PATH"
	EnvAccessDB          = "DEVCTX_ACCESS_DB"
	EnvRulesDir          = "DEVCTX_RULES_DIR"
	EnvEmbeddingProvider = "DEVCTX_EMBEDDING_PROVIDER"
	EnvGeminiAPIKey      = "GEMINI_API_KEY"
	EnvEmbeddingModel    = "DEVCTX_EMBEDDING_MODEL"
	EnvOllamaEndpoint    = "OLLAMA_ENDPOINT"
	EnvResultLimit       = "DEVCTX_RESULT_LIMIT"
	EnvQueryTimeout      = "DEVCTX_QUERY_TIMEOUT"
	EnvLogLevel          = "DEVCTX_LOG_LEVEL"
	EnvHTTPAddr          = "DEVCTX_HTTP_ADDR"
)

const (
	defaultResultLimit  = 2
	defaultQueryTimeout = 15 * time.Second
	dataDirName         = ".devctx"
)

// lookupEnv and userHomeDir are package-level vars for testability.
var (
	lookupEnv   = os.LookupEnv
	userHomeDir = os.UserHomeDir
)

// Duration is a time.Duration that decodes from YAML strings like "15s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(v)
	return nil
}

// Embedding configures the embedding provider.
type Embedding struct {
	Provider       string `yaml:"provider"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	OllamaEndpoint string `yaml:"ollama_endpoint"`
}

// Config holds every devctx setting.
type Config struct {
	KnowledgeBase string    `yaml:"knowledge_base"`
	AccessDB      string    `yaml:"access_db"`
	RulesDir      string    `yaml:"rules_dir"`
	Embedding     Embedding `yaml:"embedding"`
	ResultLimit   int       `yaml:"result_limit"`
	QueryTimeout  Duration  `yaml:"query_timeout"`
	LogLevel      string    `yaml:"log_level"`
	HTTPAddr      string    `yaml:"http_addr"`
	Development   bool      `yaml:"development"`

	// invalid collects environment values that failed to parse.
	invalid []string
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		Embedding:    Embedding{Provider: "genai"},
		ResultLimit:  defaultResultLimit,
		QueryTimeout: Duration(defaultQueryTimeout),
		LogLevel:     "info",
	}
	if home, err := userHomeDir(); err == nil {
		cfg.KnowledgeBase = filepath.Join(home, dataDirName, "knowledge.db")
		cfg.AccessDB = filepath.Join(home, dataDirName, "access.db")
	}
	return cfg
}

// Load builds the configuration. path names a YAML file; when empty,
// DEVCTX_CONFIG is consulted, and with neither set only defaults and the
// environment apply. A named file that cannot be read is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path, _ = lookupEnv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperr.Configuration(nil, fmt.Errorf("parse %s: %w", path, err))
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString := func(key string, dst *string) {
		if v, ok := lookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setString(EnvKnowledgeBase, &c.KnowledgeBase)
	setString(EnvAccessDB, &c.AccessDB)
	setString(EnvRulesDir, &c.RulesDir)
	setString(EnvEmbeddingProvider, &c.Embedding.Provider)
	setString(EnvGeminiAPIKey, &c.Embedding.APIKey)
	setString(EnvEmbeddingModel, &c.Embedding.Model)
	setString(EnvOllamaEndpoint, &c.Embedding.OllamaEndpoint)
	setString(EnvLogLevel, &c.LogLevel)
	setString(EnvHTTPAddr, &c.HTTPAddr)

	if v, ok := lookupEnv(EnvResultLimit); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			c.invalid = append(c.invalid, EnvResultLimit)
		} else {
			c.ResultLimit = n
		}
	}
	if v, ok := lookupEnv(EnvQueryTimeout); ok && v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			c.invalid = append(c.invalid, EnvQueryTimeout)
		} else {
			c.QueryTimeout = Duration(d)
		}
	}
	c.Embedding.Provider = strings.ToLower(c.Embedding.Provider)
}

// Validate reports every missing or malformed setting in a single
// Configuration error.
func (c *Config) Validate() error {
	bad := append([]string(nil), c.invalid...)

	if strings.TrimSpace(c.KnowledgeBase) == "" {
		bad = append(bad, EnvKnowledgeBase)
	}
	switch c.Embedding.Provider {
	case "genai":
		if c.Embedding.APIKey == "" {
			bad = append(bad, EnvGeminiAPIKey)
		}
	case "ollama":
	default:
		bad = append(bad, EnvEmbeddingProvider)
	}
	if c.ResultLimit < 1 && !containsKey(bad, EnvResultLimit) {
		bad = append(bad, EnvResultLimit)
	}
	if c.QueryTimeout <= 0 && !containsKey(bad, EnvQueryTimeout) {
		bad = append(bad, EnvQueryTimeout)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		bad = append(bad, EnvLogLevel)
	}

	if len(bad) == 0 {
		return nil
	}
	return apperr.Configuration(bad, errors.New("missing or invalid settings: "+strings.Join(bad, ", ")))
}

// Timeout returns QueryTimeout as a time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.QueryTimeout)
}

// EmbeddingConfig returns the provider settings for taskType.
func (c *Config) EmbeddingConfig(taskType string) embedding.Config {
	return embedding.Config{
		Provider:       c.Embedding.Provider,
		APIKey:         c.Embedding.APIKey,
		Model:          c.Embedding.Model,
		OllamaEndpoint: c.Embedding.OllamaEndpoint,
		TaskType:       taskType,
	}
}

func containsKey(keys []string, k string) bool {
	for _, v := range keys {
		if v == k {
			return true
		}
	}
	return false
}
