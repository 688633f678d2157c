// Package pipeline wires the parser, retrieval engine, assembler and rule
// detector into the operations exposed to callers.
//
// Every MCP tool, prompt and CLI command goes through a Service; none of
// them call the lower packages directly.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HendryAvila/devctx/internal/apperr"
	"github.com/HendryAvila/devctx/internal/assembler"
	"github.com/HendryAvila/devctx/internal/command"
	"github.com/HendryAvila/devctx/internal/retrieval"
	"github.com/HendryAvila/devctx/internal/rules"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// rulesResultLimit caps retrieved rule snippets per Rules call.
const rulesResultLimit = 3

// Retriever is the retrieval surface a Service needs.
// *retrieval.Engine satisfies it.
type Retriever interface {
	RetrieveContext(ctx context.Context, requirement, scope, action string) (retrieval.RetrievedContext, error)
	RetrieveTemplates(ctx context.Context) retrieval.TemplateBundle
	RetrieveRules(ctx context.Context, query, scope string, categories []string, limit int) (string, error)
}

// Result is the outcome of DevelopmentPrompt.
type Result struct {
	RequestID string                     `json:"request_id"`
	Command   command.ParsedCommand      `json:"command"`
	Prompt    assembler.StructuredPrompt `json:"prompt"`
	Took      time.Duration              `json:"took"`
}

// RulesResult is the outcome of Rules.
type RulesResult struct {
	Types []rules.RuleType `json:"types"`
	// Content is the static rule text for Types.
	Content string `json:"content"`
	// Retrieved holds matching rule snippets from the knowledge base, or
	// "" when none were found or the lookup failed.
	Retrieved string `json:"retrieved,omitempty"`
}

// Service implements the caller-facing operations. It is safe for
// concurrent use.
type Service struct {
	retriever Retriever
	assembler *assembler.Assembler
	library   *rules.Library
	log       *zap.Logger
}

// New creates a Service.
func New(retriever Retriever, asm *assembler.Assembler, library *rules.Library, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{retriever: retriever, assembler: asm, library: library, log: log.Named("pipeline")}
}

// DevelopmentPrompt parses raw, retrieves context for it and assembles
// the development prompt.
func (s *Service) DevelopmentPrompt(ctx context.Context, raw string) (*Result, error) {
	start := timeNow()
	cmd, err := parse(raw)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	log := s.log.With(zap.String("request_id", id), zap.String("scope", cmd.Scope), zap.String("action", cmd.Action))

	rc, err := s.retriever.RetrieveContext(ctx, cmd.Requirement, cmd.Scope, cmd.Action)
	if err != nil {
		log.Warn("development prompt failed", zap.Stringer("kind", apperr.KindOf(err)), zap.Error(err))
		return nil, err
	}

	prompt := s.assembler.Assemble(ctx, cmd, rc)
	took := timeNow().Sub(start)
	log.Info("development prompt assembled", zap.Any("hits", prompt.Metadata.Hits()), zap.Duration("took", took))

	return &Result{RequestID: id, Command: cmd, Prompt: prompt, Took: took}, nil
}

// PlanDocument parses raw, retrieves context and templates concurrently
// and assembles the planning document. A context failure fails the call;
// template misses never do.
func (s *Service) PlanDocument(ctx context.Context, raw string) (string, error) {
	cmd, err := parse(raw)
	if err != nil {
		return "", err
	}

	var (
		rc retrieval.RetrievedContext
		tb retrieval.TemplateBundle
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rc, err = s.retriever.RetrieveContext(gctx, cmd.Requirement, cmd.Scope, cmd.Action)
		return err
	})
	g.Go(func() error {
		tb = s.retriever.RetrieveTemplates(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("plan document failed", zap.String("scope", cmd.Scope), zap.Error(err))
		return "", err
	}

	return s.assembler.AssemblePlan(cmd, rc, tb), nil
}

// Rules detects the rule types relevant to text and returns the static
// rule documents for them, plus any matching rule snippets stored in the
// knowledge base for the scope named in text. Retrieval is best-effort.
func (s *Service) Rules(ctx context.Context, text string) RulesResult {
	types := rules.DetectRuleTypes(text)
	res := RulesResult{Types: types}
	if s.library != nil {
		res.Content = s.library.ForTypes(types)
	}

	scope := command.Parse(text).Scope
	retrieved, err := s.retriever.RetrieveRules(ctx, text, scope, rules.Categories(types), rulesResultLimit)
	if err != nil {
		s.log.Warn("WARNING: pipeline: rule snippet lookup failed", zap.String("scope", scope), zap.Error(err))
		return res
	}
	res.Retrieved = retrieved
	return res
}

func parse(raw string) (command.ParsedCommand, error) {
	if strings.TrimSpace(raw) == "" {
		return command.ParsedCommand{}, apperr.EmptyInput("pipeline")
	}
	return command.Parse(raw), nil
}
