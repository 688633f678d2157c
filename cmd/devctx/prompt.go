package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/devctx/internal/command"
	"github.com/HendryAvila/devctx/internal/pipeline"
	"github.com/HendryAvila/devctx/internal/server"
)

const prettyWrap = 100

func (c *cli) promptCmd() *cobra.Command {
	var plan, pretty bool

	cmd := &cobra.Command{
		Use:   "prompt <command...>",
		Short: "Print the assembled prompt for a development command",
		Long: `Print the prompt dev_prompt would return for command.

Recognized scopes: ` + strings.Join(command.KnownScopes(), ", ") + `. Only
scopes registered and active in the knowledge base are accepted.`,
		Example: `  devctx prompt dev rac booking search with date filters
  devctx prompt --plan implement partners payouts dashboard`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := c.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			app, err := server.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			raw := strings.Join(args, " ")
			var text string
			if plan {
				text, err = app.Service.PlanDocument(ctx, raw)
			} else {
				var res *pipeline.Result
				res, err = app.Service.DevelopmentPrompt(ctx, raw)
				if res != nil {
					text = res.Prompt.Text()
				}
			}
			if err != nil {
				return err
			}
			return printMarkdown(c.out, text, pretty)
		},
	}
	cmd.Flags().BoolVar(&plan, "plan", false, "print a PRD, task and subtask planning document instead")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "render markdown for the terminal")
	return cmd
}

func (c *cli) rulesCmd() *cobra.Command {
	var pretty bool

	cmd := &cobra.Command{
		Use:   "rules [context...]",
		Short: "Print the rule sets relevant to a piece of context",
		Example: `  devctx rules add jest tests for the booking form
  devctx rules`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, log, err := c.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			app, err := server.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			return printMarkdown(c.out, formatRules(app.Service.Rules(ctx, strings.Join(args, " "))), pretty)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "render markdown for the terminal")
	return cmd
}

func formatRules(res pipeline.RulesResult) string {
	names := make([]string, len(res.Types))
	for i, rt := range res.Types {
		names[i] = string(rt)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Rule types: %s\n\n", strings.Join(names, ", "))
	sb.WriteString(res.Content)
	if res.Retrieved != "" {
		sb.WriteString("\n\n## Project-specific rules\n\n")
		sb.WriteString(res.Retrieved)
	}
	return sb.String()
}

// printMarkdown writes text as-is, or rendered by glamour when pretty is
// set.
func printMarkdown(w io.Writer, text string, pretty bool) error {
	if pretty {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(prettyWrap))
		if err != nil {
			return fmt.Errorf("creating renderer: %w", err)
		}
		if text, err = r.Render(text); err != nil {
			return fmt.Errorf("rendering markdown: %w", err)
		}
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
