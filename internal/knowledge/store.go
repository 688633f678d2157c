// Package knowledge implements the vector-search knowledge base that backs
// context retrieval.
//
// Documents are rows tagged by (application, category) with a float32
// embedding. Similarity is computed natively by the sqlite-vec extension
// (vec_distance_cosine), loaded into mattn/go-sqlite3 and queried through
// sqlx. The applications table doubles as the scope registry.
package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/HendryAvila/devctx/internal/apperr"
	"github.com/HendryAvila/devctx/internal/embedding"
)

func init() {
	// Registers sqlite-vec as an auto-loaded extension for every
	// connection opened by the sqlite3 driver.
	sqlite_vec.Auto()
}

// openDB is a package-level var to allow test injection.
var openDB = sqlx.Open

// SearchResult is one retrieved document row. Distance is the cosine
// distance to the query vector; smaller is closer.
type SearchResult struct {
	ID          int64   `db:"id" json:"id"`
	Application string  `db:"application" json:"application"`
	Category    string  `db:"category" json:"category"`
	Title       string  `db:"title" json:"title"`
	Path        *string `db:"path" json:"path,omitempty"`
	Content     string  `db:"content" json:"content"`
	Distance    float64 `db:"distance" json:"distance"`
}

// Scope is one row of the applications registry.
type Scope struct {
	Key         string `db:"key" json:"key"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	Active      bool   `db:"active" json:"active"`
	CreatedAt   string `db:"created_at" json:"created_at"`
}

// Document is the input for UpsertDocument.
type Document struct {
	Application string
	Category    string
	Title       string
	Path        string // optional; rows with a path are upserted by (application, path)
	Content     string
	Embedding   []float32
}

// Stats summarizes the knowledge base contents.
type Stats struct {
	Documents    int            `json:"documents"`
	ActiveScopes int            `json:"active_scopes"`
	ByCategory   map[string]int `json:"by_category"`
}

// Store is the knowledge base handle. It is safe for concurrent use; all
// serving-path operations are independent reads.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the knowledge base at path and runs
// migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, apperr.Configuration([]string{"DEVCTX_KB_PATH"}, errors.New("knowledge base path is empty"))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("knowledge: create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := openDB("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("knowledge: open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("knowledge: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version string
	if err := s.db.Get(&version, "SELECT vec_version()"); err != nil {
		return fmt.Errorf("sqlite-vec extension not loaded: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS applications (
			key         TEXT PRIMARY KEY,
			name        TEXT    NOT NULL DEFAULT '',
			description TEXT    NOT NULL DEFAULT '',
			active      INTEGER NOT NULL DEFAULT 1,
			created_at  TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS documents (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			application TEXT NOT NULL,
			category    TEXT NOT NULL,
			title       TEXT NOT NULL,
			path        TEXT,
			content     TEXT NOT NULL,
			embedding   BLOB NOT NULL,
			updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_docs_app_path ON documents(application, path);
		CREATE INDEX IF NOT EXISTS idx_docs_app_cat ON documents(application, category);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Search returns up to limit documents whose application is in
// applications (and category in categories, when non-empty), nearest
// first. The query vector is sent in the bracketed text form that
// vec_f32 parses.
func (s *Store) Search(ctx context.Context, vector []float32, applications, categories []string, limit int) ([]SearchResult, error) {
	if len(applications) == 0 {
		return nil, apperr.Backend("knowledge.search", errors.New("application filter is required"))
	}
	if limit <= 0 {
		limit = 2
	}

	q := `SELECT id, application, category, title, path, content,
		vec_distance_cosine(embedding, vec_f32(?)) AS distance
		FROM documents
		WHERE application IN (?)`
	args := []any{embedding.FormatVector(vector), applications}
	if len(categories) > 0 {
		q += " AND category IN (?)"
		args = append(args, categories)
	}
	q += " ORDER BY distance ASC, id ASC LIMIT ?"
	args = append(args, limit)

	query, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, apperr.Backend("knowledge.search", err)
	}

	var results []SearchResult
	if err := s.db.SelectContext(ctx, &results, s.db.Rebind(query), args...); err != nil {
		return nil, apperr.Backend("knowledge.search", err)
	}
	return results, nil
}

// IsActiveScope reports whether key exists in the registry and is active.
func (s *Store) IsActiveScope(ctx context.Context, key string) (bool, error) {
	var active bool
	err := s.db.GetContext(ctx, &active, "SELECT active FROM applications WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Backend("knowledge.scope", err)
	}
	return active, nil
}

// ListActiveScopes returns the keys of every active scope, sorted.
func (s *Store) ListActiveScopes(ctx context.Context) ([]string, error) {
	keys := []string{}
	if err := s.db.SelectContext(ctx, &keys, "SELECT key FROM applications WHERE active = 1 ORDER BY key"); err != nil {
		return nil, apperr.Backend("knowledge.scopes", err)
	}
	return keys, nil
}

// ListScopes returns every registered scope, active or not.
func (s *Store) ListScopes(ctx context.Context) ([]Scope, error) {
	var scopes []Scope
	if err := s.db.SelectContext(ctx, &scopes,
		"SELECT key, name, description, active, created_at FROM applications ORDER BY key"); err != nil {
		return nil, apperr.Backend("knowledge.scopes", err)
	}
	return scopes, nil
}

// UpsertScope registers key (active) or refreshes its name and description.
func (s *Store) UpsertScope(ctx context.Context, key, name, description string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return errors.New("knowledge: scope key is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO applications (key, name, description, active) VALUES (?, ?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET name = excluded.name, description = excluded.description, active = 1`,
		key, name, description)
	if err != nil {
		return apperr.Backend("knowledge.upsert_scope", err)
	}
	return nil
}

// SetScopeActive toggles a scope. Unknown keys are an error.
func (s *Store) SetScopeActive(ctx context.Context, key string, active bool) error {
	key = strings.ToLower(strings.TrimSpace(key))
	res, err := s.db.ExecContext(ctx, "UPDATE applications SET active = ? WHERE key = ?", active, key)
	if err != nil {
		return apperr.Backend("knowledge.set_scope_active", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("knowledge: scope %q not registered", key)
	}
	return nil
}

// UpsertDocument inserts d, replacing an existing row with the same
// (application, path) when d.Path is set. Returns the row id.
func (s *Store) UpsertDocument(ctx context.Context, d Document) (int64, error) {
	if d.Application == "" || d.Category == "" || d.Title == "" {
		return 0, errors.New("knowledge: application, category and title are required")
	}
	if len(d.Embedding) == 0 {
		return 0, errors.New("knowledge: embedding is required")
	}

	var path any
	if d.Path != "" {
		path = d.Path
	}

	var id int64
	err := s.db.GetContext(ctx, &id, `
		INSERT INTO documents (application, category, title, path, content, embedding)
		VALUES (?, ?, ?, ?, ?, vec_f32(?))
		ON CONFLICT(application, path) DO UPDATE SET
			category   = excluded.category,
			title      = excluded.title,
			content    = excluded.content,
			embedding  = excluded.embedding,
			updated_at = datetime('now')
		RETURNING id`,
		d.Application, d.Category, d.Title, path, d.Content, embedding.FormatVector(d.Embedding))
	if err != nil {
		return 0, apperr.Backend("knowledge.upsert_document", err)
	}
	return id, nil
}

// DeleteDocumentsByPath removes every row indexed from path.
func (s *Store) DeleteDocumentsByPath(ctx context.Context, path string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", path)
	if err != nil {
		return 0, apperr.Backend("knowledge.delete_document", err)
	}
	return res.RowsAffected()
}

// Stats returns document and scope counts.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{ByCategory: map[string]int{}}
	if err := s.db.GetContext(ctx, &st.Documents, "SELECT COUNT(*) FROM documents"); err != nil {
		return nil, apperr.Backend("knowledge.stats", err)
	}
	if err := s.db.GetContext(ctx, &st.ActiveScopes, "SELECT COUNT(*) FROM applications WHERE active = 1"); err != nil {
		return nil, apperr.Backend("knowledge.stats", err)
	}

	var rows []struct {
		Category string `db:"category"`
		N        int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows, "SELECT category, COUNT(*) AS n FROM documents GROUP BY category"); err != nil {
		return nil, apperr.Backend("knowledge.stats", err)
	}
	for _, r := range rows {
		st.ByCategory[r.Category] = r.N
	}
	return st, nil
}
