// Package rules classifies free-text context into rule categories and
// serves the static rule documents the coding agent must follow.
package rules

import (
	"sort"
	"strings"
)

// RuleType is one category of development rules.
type RuleType string

const (
	Testing   RuleType = "TESTING"
	Structure RuleType = "STRUCTURE"
	Endpoints RuleType = "ENDPOINTS"
	CodeStyle RuleType = "CODE_STYLE"
	All       RuleType = "ALL"
)

// scoredTypes lists the non-ALL types in tie-break order.
var scoredTypes = []RuleType{Testing, Structure, Endpoints, CodeStyle}

// keywords is the scoring table. A type scores one point per distinct
// keyword contained in the lower-cased context. Overlap between types
// is intentional.
var keywords = map[RuleType][]string{
	Testing: {
		"test", "testing", "jest", "unit test", "spec", "mock", "coverage",
		"e2e", "integration test", "assert", "expect", "describe(", "testing library",
		"snapshot", "fixture", "tdd", "vitest", "cypress", "prueba",
	},
	Structure: {
		"folder", "directory", "structure", "architecture", "screaming architecture",
		"module", "layer", "monorepo", "package", "organize", "organization",
		"feature folder", "domain", "file location", "where to put", "carpeta", "estructura",
	},
	Endpoints: {
		"endpoint", "api", "route", "routing", "controller", "request", "response",
		"rest", "http", "fetch", "axios", "service", "screaming architecture",
		"auth", "payload", "url", "graphql", "ruta",
	},
	CodeStyle: {
		"naming", "convention", "style", "format", "lint", "eslint", "prettier",
		"import", "export", "camelcase", "pascalcase", "kebab-case", "typescript",
		"type", "interface", "clean code", "readability", "estilo",
	},
}

// categories maps each type to the backend categories holding its rule
// documents. "rules/crac" holds the rules shared by every type.
var categories = map[RuleType][]string{
	Testing:   {"rules/crac", "rules/testing"},
	Structure: {"rules/crac", "rules/structure"},
	Endpoints: {"rules/crac", "rules/endpoints"},
	CodeStyle: {"rules/crac", "rules/code-style"},
	All:       {"rules/crac", "rules/testing", "rules/structure", "rules/endpoints", "rules/code-style"},
}

// score returns the number of distinct keywords of t found in context.
// Context is expected to be lower-cased already.
func score(context string, t RuleType) int {
	n := 0
	for _, kw := range keywords[t] {
		if strings.Contains(context, kw) {
			n++
		}
	}
	return n
}

// DetectRuleTypes returns the rule types relevant to context, most
// relevant first. The two best-scoring types are always kept; a type
// ranked third or lower is kept only when it matched at least two
// keywords. Blank or unmatched context yields [ALL].
func DetectRuleTypes(context string) []RuleType {
	lower := strings.ToLower(strings.TrimSpace(context))
	if lower == "" {
		return []RuleType{All}
	}

	type scored struct {
		t     RuleType
		score int
	}
	var matched []scored
	for _, t := range scoredTypes {
		if s := score(lower, t); s > 0 {
			matched = append(matched, scored{t, s})
		}
	}
	if len(matched) == 0 {
		return []RuleType{All}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	out := make([]RuleType, 0, len(matched))
	for i, m := range matched {
		if i < 2 || m.score >= 2 {
			out = append(out, m.t)
		}
	}
	return out
}

// Categories returns the deduplicated backend categories for types, in
// first-seen order.
func Categories(types []RuleType) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range types {
		for _, c := range categories[t] {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// ParseRuleType converts a user-supplied name ("testing", "code_style",
// "CODE-STYLE") into a RuleType.
func ParseRuleType(s string) (RuleType, bool) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for _, t := range append(scoredTypes, All) {
		if string(t) == norm {
			return t, true
		}
	}
	return "", false
}
