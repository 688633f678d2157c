package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HendryAvila/devctx/internal/knowledge"
)

// Aspect names, one per context facet.
const (
	AspectTechnology      = "technology"
	AspectFolderStructure = "folder_structure"
	AspectConventions     = "conventions"
	AspectExamples        = "examples"
)

// AspectQuery is one facet of context retrieval.
type AspectQuery struct {
	Aspect       string
	Text         string
	Applications []string
	Categories   []string
	Limit        int
}

// RetrievedContext holds the combined text per aspect. Every field is
// always set; an aspect with no results is "".
type RetrievedContext struct {
	Technology      string `json:"technology"`
	FolderStructure string `json:"folder_structure"`
	Conventions     string `json:"conventions"`
	Examples        string `json:"examples"`
	// Architecture is Technology and FolderStructure joined.
	Architecture string `json:"architecture"`
}

// Fields returns the context as an aspect-name map with all five keys.
func (rc RetrievedContext) Fields() map[string]string {
	return map[string]string{
		AspectTechnology:      rc.Technology,
		AspectFolderStructure: rc.FolderStructure,
		AspectConventions:     rc.Conventions,
		AspectExamples:        rc.Examples,
		"architecture":        rc.Architecture,
	}
}

// AspectQueries builds the four aspect queries for a request. Each
// targets the scope plus the global pool.
func (e *Engine) AspectQueries(requirement, scope, action string) []AspectQuery {
	apps := []string{scope, GlobalApplication}
	return []AspectQuery{
		{
			Aspect:       AspectTechnology,
			Text:         fmt.Sprintf("%s technology stack frameworks libraries dependencies versions", scope),
			Applications: apps,
			Categories:   []string{"architecture", "introduction"},
			Limit:        e.limit,
		},
		{
			Aspect:       AspectFolderStructure,
			Text:         fmt.Sprintf("%s folder structure directories project organization modules", scope),
			Applications: apps,
			Categories:   []string{"architecture", "routing"},
			Limit:        e.limit,
		},
		{
			Aspect:       AspectConventions,
			Text:         fmt.Sprintf("%s coding conventions naming style guide imports best practices", scope),
			Applications: apps,
			Categories:   []string{"style-guide", "architecture"},
			Limit:        e.limit,
		},
		{
			Aspect:       AspectExamples,
			Text:         strings.TrimSpace(fmt.Sprintf("%s %s example implementation similar", action, requirement)),
			Applications: apps,
			Categories:   []string{"tasks-examples", "core"},
			Limit:        e.limit,
		},
	}
}

// RetrieveContext validates scope and runs the four aspect queries
// concurrently. Any query failure fails the whole call; there is no
// partial context.
func (e *Engine) RetrieveContext(ctx context.Context, requirement, scope, action string) (RetrievedContext, error) {
	start := time.Now()
	if err := e.ValidateScope(ctx, scope); err != nil {
		return RetrievedContext{}, err
	}

	queries := e.AspectQueries(requirement, scope, action)
	results := make([][]knowledge.SearchResult, len(queries))

	err := fanOut(ctx, len(queries), func(ctx context.Context, i int) error {
		q := queries[i]
		rows, err := e.search(ctx, "retrieval."+q.Aspect, q.Text, q.Applications, q.Categories, q.Limit)
		if err != nil {
			return err
		}
		results[i] = rows
		return nil
	})
	if err != nil {
		e.log.Warn("context retrieval failed", zap.String("scope", scope), zap.Error(err))
		return RetrievedContext{}, err
	}

	rc := RetrievedContext{
		Technology:      Combine(results[0]),
		FolderStructure: Combine(results[1]),
		Conventions:     Combine(results[2]),
		Examples:        Combine(results[3]),
	}
	rc.Architecture = joinNonEmpty(rc.Technology, rc.FolderStructure)

	e.log.Debug("context retrieved",
		zap.String("scope", scope),
		zap.Int("technology", len(results[0])),
		zap.Int("folder_structure", len(results[1])),
		zap.Int("conventions", len(results[2])),
		zap.Int("examples", len(results[3])),
		zap.Duration("took", time.Since(start)),
	)
	return rc, nil
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
