package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/devctx/internal/apperr"
)

type stubProvider struct {
	vec   []float32
	err   error
	calls int
}

func (s *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	return s.vec, s.err
}

func (s *stubProvider) Name() string { return "stub" }

func TestChecked_PassesCorrectDimension(t *testing.T) {
	p := Checked(&stubProvider{vec: make([]float32, Dimensions)})

	vec, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, vec, Dimensions)
}

func TestChecked_RejectsWrongDimension(t *testing.T) {
	p := Checked(&stubProvider{vec: make([]float32, 3)})

	_, err := p.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.Equal(t, apperr.KindEmbedding, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "got 3 dimensions, want 768")
}

func TestChecked_RejectsEmptyTextWithoutCallingProvider(t *testing.T) {
	stub := &stubProvider{vec: make([]float32, Dimensions)}
	p := Checked(stub)

	_, err := p.Embed(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, apperr.KindEmbedding, apperr.KindOf(err))
	assert.Zero(t, stub.calls)
}

func TestChecked_WrapsProviderError(t *testing.T) {
	cause := errors.New("quota exceeded")
	p := Checked(&stubProvider{err: cause})

	_, err := p.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, apperr.KindEmbedding, apperr.KindOf(err))
}

func TestChecked_DoesNotDoubleWrap(t *testing.T) {
	p := Checked(&stubProvider{})
	assert.Same(t, p, Checked(p))
}

func TestFormatVector(t *testing.T) {
	tests := []struct {
		in   []float32
		want string
	}{
		{nil, "[]"},
		{[]float32{0.5}, "[0.5]"},
		{[]float32{0.1, -0.25, 3}, "[0.1,-0.25,3]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatVector(tt.in))
	}
}

func TestFormatVector_IsJSONArray(t *testing.T) {
	in := []float32{0.125, -1, 42.5}
	var out []float32
	require.NoError(t, json.Unmarshal([]byte(FormatVector(in)), &out))
	assert.Equal(t, in, out)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Config{Provider: "openai"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestNewGenAI_RequiresKey(t *testing.T) {
	_, err := NewGenAI(context.Background(), "", "", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConfiguration, apperr.KindOf(err))
}

func TestOllama_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "embeddinggemma", req.Model)
		assert.Equal(t, "folder structure", req.Prompt)
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{1, 2, 3}})
	}))
	defer srv.Close()

	o, err := NewOllama(srv.URL+"/", "")
	require.NoError(t, err)

	vec, err := o.Embed(context.Background(), "folder structure")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, vec)
	assert.Equal(t, "ollama:embeddinggemma", o.Name())
}

func TestOllama_EmbedStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	o, _ := NewOllama(srv.URL, "missing")
	_, err := o.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestNew_OllamaIsChecked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{1, 2}})
	}))
	defer srv.Close()

	p, err := New(context.Background(), Config{Provider: "ollama", OllamaEndpoint: srv.URL})
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), "x")
	assert.Equal(t, apperr.KindEmbedding, apperr.KindOf(err))
}
