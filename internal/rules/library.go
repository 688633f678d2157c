package rules

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed docs/*.md
var defaultDocs embed.FS

// Names of the rule documents, in render order.
var docNames = []string{"crac", "testing", "structure", "endpoints", "code-style"}

// Library holds the rule documents, read once at startup. It is never
// mutated after Load returns, so it is safe to share across requests.
type Library struct {
	docs map[string]string
}

// Load reads one markdown file per rule name from dir ("<name>.md").
// Names missing from dir, or every name when dir is empty, fall back to
// the embedded defaults. A dir that does not exist is an error.
func Load(dir string) (*Library, error) {
	lib := &Library{docs: make(map[string]string, len(docNames))}

	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("rules: reading rules dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("rules: %s is not a directory", dir)
		}
	}

	for _, name := range docNames {
		if dir != "" {
			data, err := os.ReadFile(filepath.Join(dir, name+".md"))
			if err == nil {
				lib.docs[name] = strings.TrimSpace(string(data))
				continue
			}
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("rules: reading %s: %w", name, err)
			}
		}
		data, err := defaultDocs.ReadFile("docs/" + name + ".md")
		if err != nil {
			return nil, fmt.Errorf("rules: embedded %s: %w", name, err)
		}
		lib.docs[name] = strings.TrimSpace(string(data))
	}
	return lib, nil
}

// Get returns the document for name.
func (l *Library) Get(name string) (string, bool) {
	doc, ok := l.docs[name]
	return doc, ok
}

// Names returns every rule document name, sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.docs))
	for n := range l.docs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ForTypes renders the documents relevant to types, general rules first,
// each document at most once.
func (l *Library) ForTypes(types []RuleType) string {
	var parts []string
	for _, cat := range Categories(types) {
		name := strings.TrimPrefix(cat, "rules/")
		if doc, ok := l.docs[name]; ok && doc != "" {
			parts = append(parts, doc)
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}
