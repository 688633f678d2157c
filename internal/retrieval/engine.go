// Package retrieval fetches the documentation context a development
// prompt is assembled from.
//
// The Engine validates the requested scope, fans out one embed+search
// pair per context aspect, and merges the results in backend order.
// Context retrieval fails as a whole on any single failure; template
// retrieval degrades per slot.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/devctx/internal/apperr"
	"github.com/HendryAvila/devctx/internal/knowledge"
)

// GlobalApplication is the shared pool every query also searches.
const GlobalApplication = "global"

const (
	defaultResultLimit  = 2
	defaultQueryTimeout = 15 * time.Second
)

// Embedder converts query text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Backend is the knowledge base surface the engine reads from.
// *knowledge.Store satisfies it.
type Backend interface {
	Search(ctx context.Context, vector []float32, applications, categories []string, limit int) ([]knowledge.SearchResult, error)
	IsActiveScope(ctx context.Context, key string) (bool, error)
	ListActiveScopes(ctx context.Context) ([]string, error)
}

// Options tunes an Engine. Zero values select defaults.
type Options struct {
	// ResultLimit caps the rows returned per aspect query.
	ResultLimit int
	// QueryTimeout bounds every embedding and search call.
	QueryTimeout time.Duration
}

// Engine is the context and template retrieval engine. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	embedder Embedder
	backend  Backend
	log      *zap.Logger
	limit    int
	timeout  time.Duration
}

// NewEngine creates an Engine.
func NewEngine(embedder Embedder, backend Backend, log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = defaultResultLimit
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}
	return &Engine{
		embedder: embedder,
		backend:  backend,
		log:      log.Named("retrieval"),
		limit:    opts.ResultLimit,
		timeout:  opts.QueryTimeout,
	}
}

// ValidateScope fails with a ScopeNotFound error carrying the active
// scopes when scope is absent or inactive.
func (e *Engine) ValidateScope(ctx context.Context, scope string) error {
	ok, err := e.backend.IsActiveScope(ctx, scope)
	if err != nil {
		return asKind(err, apperr.KindBackend, "retrieval.scope")
	}
	if ok {
		return nil
	}

	available, err := e.backend.ListActiveScopes(ctx)
	if err != nil {
		return asKind(err, apperr.KindBackend, "retrieval.scopes")
	}
	return apperr.ScopeNotFound(scope, available)
}

// search runs one bounded embed+search pair.
func (e *Engine) search(ctx context.Context, op, text string, applications, categories []string, limit int) ([]knowledge.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Backend(op, fmt.Errorf("embedding timed out after %s: %w", e.timeout, err))
		}
		return nil, asKind(err, apperr.KindEmbedding, op)
	}

	results, err := e.backend.Search(ctx, vec, applications, categories, limit)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.Backend(op, fmt.Errorf("search timed out after %s: %w", e.timeout, err))
		}
		return nil, asKind(err, apperr.KindBackend, op)
	}
	return results, nil
}

// RetrieveRules runs a single rule-document search restricted to
// categories for scope (plus the global pool) and combines the rows.
func (e *Engine) RetrieveRules(ctx context.Context, query, scope string, categories []string, limit int) (string, error) {
	if limit <= 0 {
		limit = e.limit
	}
	if strings.TrimSpace(query) == "" {
		query = scope + " development rules guidelines"
	}
	results, err := e.search(ctx, "retrieval.rules", query, []string{scope, GlobalApplication}, categories, limit)
	if err != nil {
		return "", err
	}
	return Combine(results), nil
}

// FetchRules returns the mandatory rule snippets stored under the
// generic "rules" category for scope.
func (e *Engine) FetchRules(ctx context.Context, scope string) (string, error) {
	return e.RetrieveRules(ctx, scope+" mandatory development rules", scope, []string{"rules"}, e.limit)
}

// Combine renders results in the order given: a header line with title,
// application, category and distance, then the content. Results are
// separated by a blank line. No results yields "".
func Combine(results []knowledge.SearchResult) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, fmt.Sprintf("### %s (%s/%s, distance: %.4f)\n%s",
			r.Title, r.Application, r.Category, r.Distance, strings.TrimSpace(r.Content)))
	}
	return strings.Join(parts, "\n\n")
}

// asKind keeps an existing apperr classification and wraps anything
// else with kind.
func asKind(err error, kind apperr.Kind, op string) error {
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	if kind == apperr.KindEmbedding {
		return apperr.Embedding(op, err)
	}
	return apperr.Backend(op, err)
}

// fanOut runs fn for every index concurrently and fails fast: the first
// error cancels the shared context.
func fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error { return fn(gctx, i) })
	}
	return g.Wait()
}
