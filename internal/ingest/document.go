// Package ingest loads markdown documentation into the knowledge base.
//
// Each file becomes one document. Optional YAML front matter overrides the
// title, application and category the indexer would otherwise derive.
package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/devctx/internal/knowledge"
)

// DefaultApplication is used when neither front matter nor Defaults name
// one.
const DefaultApplication = "global"

// DefaultCategory is used for files at the root of the indexed directory.
const DefaultCategory = "general"

var frontMatterDelim = []byte("---")

// FrontMatter is the optional YAML header of a document.
type FrontMatter struct {
	Title       string `yaml:"title"`
	Application string `yaml:"application"`
	Category    string `yaml:"category"`
}

// Defaults are applied to documents whose front matter leaves a field
// empty.
type Defaults struct {
	Application string
	Category    string
}

// splitFrontMatter separates a leading "---" delimited YAML block from the
// body. Files without one return a zero FrontMatter and the full input.
func splitFrontMatter(raw []byte) (FrontMatter, string, error) {
	var fm FrontMatter
	raw = bytes.TrimPrefix(raw, []byte("\ufeff"))
	if !bytes.HasPrefix(raw, frontMatterDelim) {
		return fm, string(raw), nil
	}

	rest := raw[len(frontMatterDelim):]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 || len(bytes.TrimSpace(rest[:nl])) != 0 {
		return fm, string(raw), nil
	}
	rest = rest[nl+1:]

	end := bytes.Index(rest, append([]byte("\n"), frontMatterDelim...))
	var header []byte
	switch {
	case bytes.HasPrefix(rest, frontMatterDelim):
		header, rest = nil, rest[len(frontMatterDelim):]
	case end >= 0:
		header, rest = rest[:end], rest[end+1+len(frontMatterDelim):]
	default:
		return fm, "", fmt.Errorf("unterminated front matter")
	}

	if err := yaml.Unmarshal(header, &fm); err != nil {
		return fm, "", fmt.Errorf("parse front matter: %w", err)
	}
	return fm, strings.TrimLeft(string(rest), "\r\n"), nil
}

// ParseDocument builds the document for the file at rel (slash separated,
// relative to the indexed root). Precedence per field is front matter,
// then defaults, then what the path implies.
func ParseDocument(rel string, raw []byte, defaults Defaults) (knowledge.Document, error) {
	fm, body, err := splitFrontMatter(raw)
	if err != nil {
		return knowledge.Document{}, fmt.Errorf("ingest: %s: %w", rel, err)
	}

	doc := knowledge.Document{
		Application: firstNonEmpty(fm.Application, defaults.Application, DefaultApplication),
		Category:    firstNonEmpty(fm.Category, defaults.Category, categoryFromPath(rel)),
		Title:       firstNonEmpty(fm.Title, headingTitle(body), titleFromPath(rel)),
		Path:        rel,
		Content:     strings.TrimSpace(body),
	}
	doc.Application = strings.ToLower(doc.Application)
	return doc, nil
}

// EmbeddingText is the text embedded for a document.
func EmbeddingText(d knowledge.Document) string {
	return d.Title + "\n\n" + d.Content
}

func categoryFromPath(rel string) string {
	dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(rel)))
	if dir == "." || dir == "" {
		return DefaultCategory
	}
	return dir
}

func titleFromPath(rel string) string {
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func headingTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
		if line != "" {
			return ""
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
