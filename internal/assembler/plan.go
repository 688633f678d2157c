package assembler

import (
	"fmt"
	"strings"

	"github.com/HendryAvila/devctx/internal/command"
	"github.com/HendryAvila/devctx/internal/retrieval"
)

// AssemblePlan renders the planning document that asks the agent for a
// PRD, a task list and subtasks. Missing context falls back to the same
// static copy Assemble uses; templates are rendered as given, placeholders
// included.
func (a *Assembler) AssemblePlan(cmd command.ParsedCommand, rc retrieval.RetrievedContext, tb retrieval.TemplateBundle) string {
	architecture := rc.Architecture
	if strings.TrimSpace(architecture) == "" {
		architecture = strings.Join([]string{
			retrievedOr("## Technical Context", rc.Technology, fallbackTechnology),
			retrievedOr("## Project Structure", rc.FolderStructure, fallbackStructure),
		}, sectionSep)
	} else {
		architecture = "## Architecture\n" + architecture
	}

	sections := []string{
		fmt.Sprintf("You are a senior technical lead planning work for the %s application. "+
			"You turn a requirement into a PRD, a task breakdown and implementation subtasks.",
			strings.ToUpper(cmd.Scope)),
		metadataBlock(cmd),
		taskLine(cmd),
		architecture,
		retrievedOr("## Conventions", rc.Conventions, fallbackConventions),
	}
	if rc.Examples != "" {
		sections = append(sections, "## Similar Examples\n"+rc.Examples)
	}
	sections = append(sections,
		"## PRD Template\n"+tb.PRD,
		"## Tasks Template\n"+tb.Tasks,
		"## Subtasks Template\n"+tb.Subtasks,
		planInstructions,
	)
	return strings.Join(sections, sectionSep)
}
