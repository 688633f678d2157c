package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_WrappedError(t *testing.T) {
	base := Backend("knowledge.search", errors.New("no such table: documents"))
	wrapped := fmt.Errorf("retrieval: %w", base)

	assert.Equal(t, KindBackend, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindBackend))
	assert.False(t, Is(wrapped, KindEmbedding))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.False(t, Is(nil, KindBackend))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Embedding("embedding.genai", cause)
	assert.ErrorIs(t, err, cause)
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"scope", ScopeNotFound("foo", []string{"global", "rac"}), `scope: scope "foo" not found (available: global, rac)`},
		{"config", Configuration([]string{"GEMINI_API_KEY"}, nil), "config: invalid configuration: GEMINI_API_KEY"},
		{"empty", EmptyInput("pipeline"), "pipeline: empty command"},
		{"backend", Backend("knowledge.search", errors.New("x")), "knowledge.search: backend error: x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestRender_ConfigurationChecklist(t *testing.T) {
	out := Render(Configuration([]string{"DEVCTX_KB_PATH", "GEMINI_API_KEY"}, nil))

	require.Contains(t, out, "## Checklist")
	assert.Contains(t, out, "- [ ] Set `DEVCTX_KB_PATH`")
	assert.Contains(t, out, "- [ ] Set `GEMINI_API_KEY`")
}

func TestRender_ScopeNotFoundListsScopes(t *testing.T) {
	out := Render(ScopeNotFound("nope", []string{"global", "partners"}))

	assert.Contains(t, out, `"nope"`)
	assert.Contains(t, out, "- global\n")
	assert.Contains(t, out, "- partners\n")
}

func TestRender_ScopeNotFoundNoScopes(t *testing.T) {
	out := Render(ScopeNotFound("nope", nil))
	assert.Contains(t, out, "No active scopes")
}

func TestRender_NeverEmpty(t *testing.T) {
	for _, err := range []error{
		Backend("op", nil),
		Embedding("op", errors.New("dim")),
		EmptyInput("op"),
		errors.New("raw"),
	} {
		out := Render(err)
		assert.NotEmpty(t, strings.TrimSpace(out), "Render(%v)", err)
	}
	assert.Empty(t, Render(nil))
}
