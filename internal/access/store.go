// Package access stores the API keys that guard the HTTP transport.
//
// Only SHA-256 hashes of keys are persisted. Last-used timestamps are
// written in the background so authentication never waits on them.
package access

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/HendryAvila/devctx/internal/apperr"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// KeyPrefix starts every generated key.
const KeyPrefix = "dctx_"

// touchTimeout bounds a single background last-used write.
const touchTimeout = 5 * time.Second

// ErrNotFound is returned by Lookup when no active key matches.
var ErrNotFound = errors.New("access: key not found")

// Key is a stored API key. The plaintext is never kept.
type Key struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Active     bool    `json:"active"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

// Store is the API-key store.
type Store struct {
	db  *sql.DB
	log *zap.Logger
	wg  sync.WaitGroup
}

// Open opens (creating if needed) the key database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, apperr.Configuration([]string{"DEVCTX_ACCESS_DB"}, errors.New("access database path is empty"))
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("access: create data dir: %w", err)
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("access: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("access: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, log: log.Named("access")}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("access: migration: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS api_keys (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			name         TEXT    NOT NULL,
			key_hash     TEXT    NOT NULL UNIQUE,
			active       INTEGER NOT NULL DEFAULT 1,
			created_at   TEXT    NOT NULL DEFAULT (datetime('now')),
			last_used_at TEXT
		);
	`)
	return err
}

// Close waits for pending audit writes and closes the database.
func (s *Store) Close() error {
	s.Wait()
	return s.db.Close()
}

// Create stores a new key named name and returns its plaintext. The
// plaintext cannot be recovered later.
func (s *Store) Create(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("access: key name is required")
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("access: generate key: %w", err)
	}
	plaintext := KeyPrefix + hex.EncodeToString(buf)

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (name, key_hash) VALUES (?, ?)`, name, hashKey(plaintext)); err != nil {
		return "", fmt.Errorf("access: insert key: %w", err)
	}
	return plaintext, nil
}

// Lookup returns the active key matching plaintext, or ErrNotFound.
func (s *Store) Lookup(ctx context.Context, plaintext string) (*Key, error) {
	if plaintext == "" {
		return nil, ErrNotFound
	}
	k := &Key{}
	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, active, created_at, last_used_at
		 FROM api_keys WHERE key_hash = ? AND active = 1`, hashKey(plaintext),
	).Scan(&k.ID, &k.Name, &active, &k.CreatedAt, &k.LastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("access: lookup key: %w", err)
	}
	k.Active = active == 1
	return k, nil
}

// List returns every key, newest first.
func (s *Store) List(ctx context.Context) ([]Key, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, active, created_at, last_used_at FROM api_keys ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("access: list keys: %w", err)
	}
	defer rows.Close()

	var out []Key
	for rows.Next() {
		var k Key
		var active int
		if err := rows.Scan(&k.ID, &k.Name, &active, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, fmt.Errorf("access: scan key: %w", err)
		}
		k.Active = active == 1
		out = append(out, k)
	}
	return out, rows.Err()
}

// Revoke deactivates the key with id.
func (s *Store) Revoke(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE api_keys SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("access: revoke key: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("access: key %d: %w", id, ErrNotFound)
	}
	return nil
}

// TouchAsync records a use of key id in the background. Failures are
// logged and never reach the caller.
func (s *Store) TouchAsync(id int64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if _, err := s.db.ExecContext(ctx,
			`UPDATE api_keys SET last_used_at = datetime('now') WHERE id = ?`, id); err != nil {
			s.log.Warn("WARNING: access: last-used update failed", zap.Int64("key_id", id), zap.Error(err))
		}
	}()
}

// Wait blocks until every pending TouchAsync write has finished.
func (s *Store) Wait() {
	s.wg.Wait()
}

func hashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}
