// Package actionlog keeps an audit trail of every applied intent in SQLite.
// Writes go through a single writer goroutine so callers never wait on disk.
package actionlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const defaultBuffer = 4096

// Config holds configuration for the SQLite action log
type Config struct {
	// Path is the database file; ":memory:" keeps it in memory
	Path string

	// Buffer bounds queued writes; entries beyond it are dropped
	Buffer int

	Logger *zap.SugaredLogger
}

type request struct {
	entry Entry
	// flushed, when set, marks a barrier instead of a write
	flushed chan struct{}
}

// SQLiteLog implements Repository on SQLite
type SQLiteLog struct {
	db  *sql.DB
	log *zap.SugaredLogger

	mu     sync.RWMutex
	closed bool
	ch     chan request
	wg     sync.WaitGroup
}

// Open creates the database if needed and starts the writer
func Open(cfg *Config) (*SQLiteLog, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Path == "" {
		return nil, errors.New("empty db path")
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	l := &SQLiteLog{
		db:  db,
		log: log,
		ch:  make(chan request, buffer),
	}
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.loop()
	}()
	return l, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS actions (
			game_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			player_id INTEGER NOT NULL,
			action TEXT NOT NULL,
			at TEXT NOT NULL,
			PRIMARY KEY (game_id, version)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record queues an entry. It never blocks; when the writer falls behind
// the entry is dropped and a warning logged.
func (l *SQLiteLog) Record(entry Entry) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.ch <- request{entry: entry}:
	default:
		l.log.Warnw("Action log is behind, dropping entry",
			"game_id", entry.GameID,
			"version", entry.Version,
		)
	}
}

// Flush waits until every entry queued before the call is written
func (l *SQLiteLog) Flush(ctx context.Context) error {
	done := make(chan struct{})
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		return nil
	}
	select {
	case l.ch <- request{flushed: done}:
	case <-ctx.Done():
		l.mu.RUnlock()
		return ctx.Err()
	}
	l.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns a game's entries ordered by version. Pending writes are
// flushed first so callers read their own writes.
func (l *SQLiteLog) List(ctx context.Context, gameID string) ([]Entry, error) {
	if err := l.Flush(ctx); err != nil {
		return nil, err
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT game_id, version, player_id, action, at FROM actions WHERE game_id = ? ORDER BY version`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e      Entry
			action string
			at     string
		)
		if err := rows.Scan(&e.GameID, &e.Version, &e.PlayerID, &action, &at); err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		if err := json.Unmarshal([]byte(action), &e.Action); err != nil {
			return nil, fmt.Errorf("failed to unmarshal action: %w", err)
		}
		if e.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("failed to parse action time: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close drains pending writes and closes the database
func (l *SQLiteLog) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.ch)
	l.mu.Unlock()

	l.wg.Wait()
	return l.db.Close()
}

func (l *SQLiteLog) loop() {
	insert, err := l.db.Prepare(`INSERT OR REPLACE INTO actions(game_id, version, player_id, action, at) VALUES(?,?,?,?,?)`)
	if err != nil {
		l.log.Errorw("Failed to prepare action insert", "error", err)
	}
	defer func() {
		if insert != nil {
			_ = insert.Close()
		}
	}()

	for req := range l.ch {
		if req.flushed != nil {
			close(req.flushed)
			continue
		}
		if insert == nil {
			continue
		}

		e := req.entry
		action, err := json.Marshal(e.Action)
		if err != nil {
			l.log.Errorw("Failed to marshal action", "game_id", e.GameID, "error", err)
			continue
		}
		if _, err := insert.Exec(e.GameID, e.Version, e.PlayerID, string(action), e.At.UTC().Format(time.RFC3339Nano)); err != nil {
			l.log.Errorw("Failed to write action",
				"game_id", e.GameID,
				"version", e.Version,
				"error", err,
			)
		}
	}
}
