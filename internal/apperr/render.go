package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Render turns err into plain, human-readable text for the end user.
// It never includes stack traces; configuration problems get a
// remediation checklist naming each missing setting.
func Render(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) {
		return fmt.Sprintf("❌ Unexpected error: %v", err)
	}

	var b strings.Builder
	switch e.Kind {
	case KindConfiguration:
		b.WriteString("❌ devctx is not configured correctly.\n\n")
		b.WriteString("## Checklist\n\n")
		if len(e.Missing) == 0 {
			b.WriteString("- [ ] Review your devctx configuration file and environment\n")
		}
		for _, m := range e.Missing {
			fmt.Fprintf(&b, "- [ ] Set `%s`\n", m)
		}
		if e.Err != nil {
			fmt.Fprintf(&b, "\nDetail: %v\n", e.Err)
		}
		b.WriteString("\nRestart the server after fixing the settings above.")

	case KindScopeNotFound:
		fmt.Fprintf(&b, "❌ Application scope %q was not found or is inactive.\n\n", e.Scope)
		if len(e.AvailableScopes) == 0 {
			b.WriteString("No active scopes are registered in the knowledge base. ")
			b.WriteString("Add one with `devctx scopes add <key>`.")
		} else {
			b.WriteString("Available scopes:\n")
			for _, s := range e.AvailableScopes {
				fmt.Fprintf(&b, "- %s\n", s)
			}
			b.WriteString("\nRetry the command with one of the scopes above.")
		}

	case KindBackend:
		b.WriteString("❌ The knowledge base query failed.\n\n")
		fmt.Fprintf(&b, "Operation: %s\n", e.Op)
		if e.Err != nil {
			fmt.Fprintf(&b, "Cause: %v\n", e.Err)
		}
		b.WriteString("\nLikely causes: the knowledge base path (`DEVCTX_KB_PATH`) points to a " +
			"missing or un-indexed database, or the query timed out. " +
			"Run `devctx index <docs-dir>` to populate it.")

	case KindEmbedding:
		b.WriteString("❌ Embedding generation failed.\n\n")
		fmt.Fprintf(&b, "Operation: %s\n", e.Op)
		if e.Err != nil {
			fmt.Fprintf(&b, "Cause: %v\n", e.Err)
		}
		b.WriteString("\nLikely causes: a missing or invalid `GEMINI_API_KEY`, an unreachable " +
			"Ollama endpoint, or an embedding model whose dimension does not match the knowledge base.")

	case KindEmptyInput:
		b.WriteString("Please provide a development command, for example: " +
			"`dev rac implement booking search`.")

	default:
		fmt.Fprintf(&b, "❌ %v", e)
	}
	return b.String()
}
