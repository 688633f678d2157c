// Package command extracts structured intent from a natural-language
// development command such as "dev rac implement booking search".
package command

import (
	"regexp"
	"strings"
)

const (
	// DefaultAction is used when no action keyword starts the command.
	DefaultAction = "dev"
	// DefaultScope is used when no known scope token appears in the command.
	DefaultScope = "global"
)

// ParsedCommand is the structured form of one inbound command string.
type ParsedCommand struct {
	Action      string `json:"action"`
	Scope       string `json:"scope"`
	Requirement string `json:"requirement"`
	Raw         string `json:"raw"`
}

// actionPatterns are tried in order against the start of the command.
// Longer variants come first inside each group so "develop" is not
// reported as "dev".
var actionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(generate|gen)\b`),
	regexp.MustCompile(`(?i)^(develop|dev|implement|create|add|build)\b`),
	regexp.MustCompile(`(?i)^(testing|test)\b`),
	regexp.MustCompile(`(?i)^(refactoring|refactor)\b`),
	regexp.MustCompile(`(?i)^(bugfix|fix|debug)\b`),
	regexp.MustCompile(`(?i)^(update|modify|change)\b`),
}

var knownScopes = []string{
	"rac", "partners", "global", "web", "mobile", "suppliers", "notifications", "queues",
}

// scopePattern finds the first scope token anywhere in the command.
var scopePattern = regexp.MustCompile(`(?i)\b(` + strings.Join(knownScopes, "|") + `)\b`)

var whitespace = regexp.MustCompile(`\s+`)

// KnownScopes returns the scope tokens the parser recognizes.
func KnownScopes() []string {
	out := make([]string, len(knownScopes))
	copy(out, knownScopes)
	return out
}

// Parse extracts action, scope and requirement from raw. It never fails:
// missing action or scope fall back to DefaultAction and DefaultScope.
func Parse(raw string) ParsedCommand {
	input := strings.TrimSpace(raw)
	if input == "" {
		return ParsedCommand{Action: DefaultAction, Scope: DefaultScope}
	}

	action := DefaultAction
	rest := input
	for _, p := range actionPatterns {
		if m := p.FindString(input); m != "" {
			action = strings.ToLower(m)
			rest = input[len(m):]
			break
		}
	}

	scope := DefaultScope
	if m := scopePattern.FindString(input); m != "" {
		scope = strings.ToLower(m)
		token := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(scope) + `\b`)
		rest = token.ReplaceAllString(rest, " ")
	}

	requirement := strings.TrimSpace(whitespace.ReplaceAllString(rest, " "))
	if requirement == "" {
		requirement = input
	}

	return ParsedCommand{
		Action:      action,
		Scope:       scope,
		Requirement: requirement,
		Raw:         input,
	}
}
