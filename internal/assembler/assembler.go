// Package assembler renders a parsed command and its retrieved context
// into the final development prompt.
//
// Output depends only on the inputs and the static copy in this package,
// plus one best-effort rules lookup per prompt.
package assembler

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/HendryAvila/devctx/internal/command"
	"github.com/HendryAvila/devctx/internal/retrieval"
)

const sectionSep = "\n\n"

// RuleFetcher returns the mandatory rule text stored for a scope.
// *retrieval.Engine satisfies it.
type RuleFetcher interface {
	FetchRules(ctx context.Context, scope string) (string, error)
}

// ContextMetadata exposes the raw retrieved aspects, independent of any
// fallback copy the assembler rendered in their place.
type ContextMetadata struct {
	Technology      string `json:"technology"`
	FolderStructure string `json:"folder_structure"`
	Conventions     string `json:"conventions"`
	Examples        string `json:"examples"`
}

// Hits reports which aspects returned content.
func (m ContextMetadata) Hits() map[string]bool {
	return map[string]bool{
		retrieval.AspectTechnology:      m.Technology != "",
		retrieval.AspectFolderStructure: m.FolderStructure != "",
		retrieval.AspectConventions:     m.Conventions != "",
		retrieval.AspectExamples:        m.Examples != "",
	}
}

// StructuredPrompt is the assembled prompt.
type StructuredPrompt struct {
	System   string          `json:"system"`
	User     string          `json:"user"`
	Metadata ContextMetadata `json:"context_metadata"`
}

// Text joins both sections for transports that carry a single string.
func (p StructuredPrompt) Text() string {
	return p.System + "\n\n---\n\n" + p.User
}

// Assembler builds prompts. A nil RuleFetcher disables the mandatory
// rules block.
type Assembler struct {
	rules RuleFetcher
	log   *zap.Logger
}

// New creates an Assembler.
func New(rules RuleFetcher, log *zap.Logger) *Assembler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{rules: rules, log: log.Named("assembler")}
}

// Assemble renders the system and user sections in their fixed order.
func (a *Assembler) Assemble(ctx context.Context, cmd command.ParsedCommand, rc retrieval.RetrievedContext) StructuredPrompt {
	return StructuredPrompt{
		System: a.system(ctx, cmd, rc),
		User:   user(cmd, rc),
		Metadata: ContextMetadata{
			Technology:      rc.Technology,
			FolderStructure: rc.FolderStructure,
			Conventions:     rc.Conventions,
			Examples:        rc.Examples,
		},
	}
}

func (a *Assembler) system(ctx context.Context, cmd command.ParsedCommand, rc retrieval.RetrievedContext) string {
	sections := []string{roleStatement(cmd.Scope)}

	if rules := a.mandatoryRules(ctx, cmd.Scope); rules != "" {
		sections = append(sections, "## Mandatory Rules\n"+rules)
	}

	sections = append(sections,
		metadataBlock(cmd),
		monorepoStructure,
		retrievedOr("## Technical Context", rc.Technology, fallbackTechnology),
		retrievedOr("## Project Structure", rc.FolderStructure, fallbackStructure),
		retrievedOr("## Conventions", rc.Conventions, fallbackConventions),
		developmentPrinciples,
	)
	return strings.Join(sections, sectionSep)
}

func user(cmd command.ParsedCommand, rc retrieval.RetrievedContext) string {
	sections := []string{taskLine(cmd)}
	if rc.Examples != "" {
		sections = append(sections, "## Similar Examples\n"+rc.Examples)
	}
	sections = append(sections, implementationInstructions)
	return strings.Join(sections, sectionSep)
}

// mandatoryRules never fails: lookup errors are logged and the block is
// left out.
func (a *Assembler) mandatoryRules(ctx context.Context, scope string) string {
	if a.rules == nil {
		return ""
	}
	text, err := a.rules.FetchRules(ctx, scope)
	if err != nil {
		a.log.Warn("WARNING: assembler: mandatory rules lookup failed",
			zap.String("scope", scope), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(text)
}

func roleStatement(scope string) string {
	return fmt.Sprintf("You are a senior software engineer working on the %s application. "+
		"You write production-ready code that follows the project's architecture, conventions and rules.",
		strings.ToUpper(scope))
}

func metadataBlock(cmd command.ParsedCommand) string {
	return fmt.Sprintf("## Context\n- **Application**: %s\n- **Action**: %s\n- **Monorepo**: %s",
		cmd.Scope, cmd.Action, monorepoDescriptor)
}

func taskLine(cmd command.ParsedCommand) string {
	return fmt.Sprintf("## Task\n**%s**: %s", cmd.Action, cmd.Requirement)
}

// retrievedOr renders heading plus content, or the fallback block when
// content is empty. The fallback carries its own heading.
func retrievedOr(heading, content, fallback string) string {
	if strings.TrimSpace(content) == "" {
		return fallback
	}
	return heading + "\n" + content
}
