// Package embedding converts text into fixed-length vectors for semantic
// search. Supports Google GenAI (cloud) and Ollama (local) backends.
package embedding

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/HendryAvila/devctx/internal/apperr"
)

// Dimensions is the vector length the knowledge base is indexed with.
// It is pinned, never auto-detected from the provider.
const Dimensions = 768

// Task types understood by the GenAI provider.
const (
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
)

// Provider generates embeddings for text.
type Provider interface {
	// Embed returns the embedding for a single non-empty text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name identifies the provider and model, e.g. "genai:gemini-embedding-001".
	Name() string
}

// Config selects and configures a provider.
type Config struct {
	Provider       string // "genai" or "ollama"
	APIKey         string
	Model          string
	OllamaEndpoint string
	TaskType       string
}

// New builds the provider named by cfg.Provider and wraps it with
// dimension checking.
func New(ctx context.Context, cfg Config) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case "genai", "":
		p, err = NewGenAI(ctx, cfg.APIKey, cfg.Model, cfg.TaskType)
	case "ollama":
		p, err = NewOllama(cfg.OllamaEndpoint, cfg.Model)
	default:
		return nil, apperr.Configuration(
			[]string{"DEVCTX_EMBEDDING_PROVIDER"},
			fmt.Errorf("unsupported embedding provider %q (use 'genai' or 'ollama')", cfg.Provider),
		)
	}
	if err != nil {
		return nil, err
	}
	return Checked(p), nil
}

// checked enforces the pinned vector dimension and maps failures to
// apperr.KindEmbedding.
type checked struct {
	inner Provider
}

// Checked wraps p so that empty input, provider errors and vectors whose
// length differs from Dimensions all fail with an Embedding error.
func Checked(p Provider) Provider {
	if c, ok := p.(*checked); ok {
		return c
	}
	return &checked{inner: p}
}

func (c *checked) Name() string { return c.inner.Name() }

func (c *checked) Embed(ctx context.Context, text string) ([]float32, error) {
	op := "embedding." + c.inner.Name()
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Embedding(op, fmt.Errorf("empty text"))
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, apperr.Embedding(op, err)
	}
	if len(vec) != Dimensions {
		return nil, apperr.Embedding(op, fmt.Errorf("got %d dimensions, want %d", len(vec), Dimensions))
	}
	return vec, nil
}

// FormatVector serializes v in the bracketed, comma-separated text form
// the knowledge base's vector column parses, e.g. "[0.1,-0.25,3]".
func FormatVector(v []float32) string {
	var b strings.Builder
	b.Grow(len(v)*10 + 2)
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(x), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
