// Package cache keeps a local, non-authoritative copy of client state in
// SQLite: the last collections snapshot, the activity and notification
// rings, the theme and the last visited page. The backend stays the source
// of truth; a cached snapshot only lets the terminal client paint before the
// first fetch completes.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rpggio/syncteam/internal/sqlite"
	"github.com/rpggio/syncteam/internal/store"
	"github.com/rpggio/syncteam/internal/view"
)

const (
	keySnapshot = "snapshot"
	keyTheme    = "theme"
	keyLastPage = "last_page"
)

// DefaultFlushDelay is how long scheduled snapshots wait before being written.
const DefaultFlushDelay = 500 * time.Millisecond

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

// Cache is a key/value store with a debounced snapshot writer.
type Cache struct {
	db     *sqlite.DB
	logger *slog.Logger
	delay  time.Duration
	now    func() time.Time

	mu      sync.Mutex
	pending *store.Snapshot
	wake    chan struct{}
}

// Open opens or creates the cache database at path. ":memory:" is accepted.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating cache directory: %w", err)
			}
		}
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &Cache{
		db:     db,
		logger: logger,
		delay:  DefaultFlushDelay,
		now:    time.Now,
		wake:   make(chan struct{}, 1),
	}, nil
}

// Close closes the database. Pending snapshots are not flushed; use Run.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Put stores v under key as JSON.
func (c *Cache) Put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(data), c.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Get decodes the value stored under key into out. It reports false when
// the key is absent.
func (c *Cache) Get(ctx context.Context, key string, out any) (bool, error) {
	var data string
	err := c.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Theme returns the saved theme name, or "" when none is saved.
func (c *Cache) Theme(ctx context.Context) (string, error) {
	var theme string
	_, err := c.Get(ctx, keyTheme, &theme)
	return theme, err
}

// SetTheme saves the theme name.
func (c *Cache) SetTheme(ctx context.Context, theme string) error {
	return c.Put(ctx, keyTheme, theme)
}

// LastPage returns the last visited page, defaulting to the dashboard.
func (c *Cache) LastPage(ctx context.Context) (string, error) {
	page := "dashboard"
	_, err := c.Get(ctx, keyLastPage, &page)
	return page, err
}

// SetLastPage saves the visited page.
func (c *Cache) SetLastPage(ctx context.Context, page string) error {
	return c.Put(ctx, keyLastPage, page)
}

// SaveSnapshot writes snap immediately.
func (c *Cache) SaveSnapshot(ctx context.Context, snap store.Snapshot) error {
	return c.Put(ctx, keySnapshot, snap)
}

// LoadSnapshot returns the last saved snapshot.
func (c *Cache) LoadSnapshot(ctx context.Context) (store.Snapshot, bool, error) {
	var snap store.Snapshot
	ok, err := c.Get(ctx, keySnapshot, &snap)
	if err != nil || !ok {
		return store.Snapshot{}, false, err
	}
	return snap, true, nil
}

// Schedule queues snap for writing. Only the newest scheduled snapshot is
// kept; it is written by Run after the flush delay.
func (c *Cache) Schedule(snap store.Snapshot) {
	c.mu.Lock()
	c.pending = &snap
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// OnChange returns a loop change callback that schedules a snapshot of s.
// It must run on the goroutine that owns s.
func (c *Cache) OnChange(s *store.Store) func([]view.Kind) {
	return func([]view.Kind) {
		c.Schedule(s.Snapshot())
	}
}

func (c *Cache) take() *store.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.pending
	c.pending = nil
	return snap
}

// Flush writes the pending snapshot, if any.
func (c *Cache) Flush(ctx context.Context) error {
	snap := c.take()
	if snap == nil {
		return nil
	}
	return c.SaveSnapshot(ctx, *snap)
}

// Run writes scheduled snapshots until ctx is done, then flushes whatever is
// still pending. A burst of changes is written at most once per flush delay.
func (c *Cache) Run(ctx context.Context) {
	timer := time.NewTimer(c.delay)
	timer.Stop()
	defer timer.Stop()
	armed := false
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := c.Flush(flushCtx); err != nil {
				c.logger.Warn("final cache flush failed", "error", err)
			}
			cancel()
			return
		case <-c.wake:
			if !armed {
				timer.Reset(c.delay)
				armed = true
			}
		case <-timer.C:
			armed = false
			if err := c.Flush(ctx); err != nil {
				c.logger.Warn("cache flush failed", "error", err)
			}
		}
	}
}
