package retrieval

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TemplateBundle holds the three planning templates. A slot with no
// stored template holds a "[... template not found]" placeholder.
type TemplateBundle struct {
	PRD      string `json:"prd_template"`
	Tasks    string `json:"tasks_template"`
	Subtasks string `json:"subtasks_template"`
}

type templateSlot struct {
	label    string
	category string
	query    string
}

var templateSlots = []templateSlot{
	{label: "PRD", category: "templates/prd", query: "PRD product requirements document template"},
	{label: "Tasks", category: "templates/tasks", query: "task list breakdown template"},
	{label: "Subtasks", category: "templates/subtasks", query: "subtask implementation template"},
}

// TemplatePlaceholder is the text a slot receives when its template is
// missing.
func TemplatePlaceholder(label string) string {
	return fmt.Sprintf("[%s template not found]", label)
}

// RetrieveTemplates fetches the three templates concurrently from the
// global pool. It never fails: a slot that finds nothing, or whose
// lookup errors, gets its placeholder.
func (e *Engine) RetrieveTemplates(ctx context.Context) TemplateBundle {
	out := make([]string, len(templateSlots))

	var g errgroup.Group
	for i, slot := range templateSlots {
		g.Go(func() error {
			out[i] = e.retrieveTemplate(ctx, slot)
			return nil
		})
	}
	_ = g.Wait()

	return TemplateBundle{PRD: out[0], Tasks: out[1], Subtasks: out[2]}
}

func (e *Engine) retrieveTemplate(ctx context.Context, slot templateSlot) string {
	rows, err := e.search(ctx, "retrieval.template", slot.query,
		[]string{GlobalApplication}, []string{slot.category}, 1)
	if err != nil {
		e.log.Warn("WARNING: template lookup failed", zap.String("slot", slot.label), zap.Error(err))
		return TemplatePlaceholder(slot.label)
	}
	if len(rows) == 0 || strings.TrimSpace(rows[0].Content) == "" {
		e.log.Debug("template not found", zap.String("slot", slot.label))
		return TemplatePlaceholder(slot.label)
	}
	return strings.TrimSpace(rows[0].Content)
}
