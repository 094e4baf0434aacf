package modules

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/funvibe/yjs/internal/config"
)

// SQLCache is a Store keeping entries in a SQLite database, for caches
// shared by several compiler processes.
type SQLCache struct {
	db    *sql.DB
	path  string
	codec entryCodec
	mu    sync.Mutex
}

// OpenSQLCache opens or creates the database at path for the running
// compiler.
func OpenSQLCache(path string) (*SQLCache, error) {
	return openSQLCache(path, config.Version, config.ModuleCompatibility)
}

func openSQLCache(path, version, constraint string) (*SQLCache, error) {
	codec, err := newEntryCodec(version, constraint)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS modules (
		key TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		data BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &SQLCache{db: db, path: path, codec: codec}, nil
}

func (c *SQLCache) Location() string {
	return c.path
}

func (c *SQLCache) Lookup(name, digest string) (*Entry, map[string]string, bool) {
	var data []byte
	err := c.db.QueryRow("SELECT data FROM modules WHERE key = ?", storeKey(name, digest)).Scan(&data)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warningf("module database: %s", err)
		}
		return nil, nil, false
	}
	return c.codec.decode(data, name, digest)
}

func (c *SQLCache) Store(e *Entry, deps map[string]string) error {
	data, err := c.codec.encode(e, deps)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.db.Exec("INSERT OR REPLACE INTO modules (key, name, data) VALUES (?, ?, ?)",
		storeKey(e.Name, e.Digest), Canonical(e.Name), data)
	if err != nil {
		return fmt.Errorf("saving %s: %w", e.Name, err)
	}
	return nil
}

func (c *SQLCache) Clean() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.db.Exec("DELETE FROM modules"); err != nil {
		return fmt.Errorf("cleaning module database: %w", err)
	}
	return nil
}

func (c *SQLCache) Close() error {
	return c.db.Close()
}
