package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/HendryAvila/devctx/internal/knowledge"
)

// Embedder converts document text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Sink receives indexed documents. *knowledge.Store satisfies it.
type Sink interface {
	UpsertDocument(ctx context.Context, d knowledge.Document) (int64, error)
	DeleteDocumentsByPath(ctx context.Context, path string) (int64, error)
}

// Summary reports the outcome of IndexDir.
type Summary struct {
	Indexed int      `json:"indexed"`
	Failed  []string `json:"failed,omitempty"`
}

// Indexer embeds markdown files and writes them to a Sink.
type Indexer struct {
	embedder Embedder
	sink     Sink
	log      *zap.Logger
}

// NewIndexer creates an Indexer.
func NewIndexer(embedder Embedder, sink Sink, log *zap.Logger) *Indexer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Indexer{embedder: embedder, sink: sink, log: log.Named("ingest")}
}

// isMarkdown reports whether path has a markdown extension.
func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// IndexDir indexes every markdown file under dir. A file that fails is
// recorded in the summary and does not stop the walk; context
// cancellation does.
func (ix *Indexer) IndexDir(ctx context.Context, dir string, defaults Defaults) (Summary, error) {
	var sum Summary
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !isMarkdown(path) {
			return nil
		}

		if err := ix.IndexFile(ctx, dir, path, defaults); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			ix.log.Warn("WARNING: ingest: file skipped", zap.String("path", path), zap.Error(err))
			sum.Failed = append(sum.Failed, path)
			return nil
		}
		sum.Indexed++
		return nil
	})
	if err != nil {
		return sum, fmt.Errorf("ingest: walk %s: %w", dir, err)
	}
	ix.log.Info("directory indexed", zap.String("dir", dir), zap.Int("indexed", sum.Indexed), zap.Int("failed", len(sum.Failed)))
	return sum, nil
}

// IndexFile indexes the single file at path, stored under its path
// relative to root.
func (ix *Indexer) IndexFile(ctx context.Context, root, path string, defaults Defaults) error {
	rel, err := relPath(root, path)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ingest: read %s: %w", rel, err)
	}

	doc, err := ParseDocument(rel, raw, defaults)
	if err != nil {
		return err
	}
	if doc.Content == "" {
		return fmt.Errorf("ingest: %s: empty document", rel)
	}

	vec, err := ix.embedder.Embed(ctx, EmbeddingText(doc))
	if err != nil {
		return err
	}
	doc.Embedding = vec

	if _, err := ix.sink.UpsertDocument(ctx, doc); err != nil {
		return err
	}
	ix.log.Debug("document indexed",
		zap.String("path", rel), zap.String("application", doc.Application), zap.String("category", doc.Category))
	return nil
}

// RemoveFile deletes every document indexed from path.
func (ix *Indexer) RemoveFile(ctx context.Context, root, path string) error {
	rel, err := relPath(root, path)
	if err != nil {
		return err
	}
	n, err := ix.sink.DeleteDocumentsByPath(ctx, rel)
	if err != nil {
		return err
	}
	ix.log.Debug("document removed", zap.String("path", rel), zap.Int64("rows", n))
	return nil
}

func relPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("ingest: %s is outside %s: %w", path, root, err)
	}
	return filepath.ToSlash(rel), nil
}
