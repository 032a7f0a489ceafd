package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite for persistence.
//
// This backend is suitable for single-node deployments where counters
// and cache entries must survive restarts. TTLs are emulated with an
// expires_at column: expired rows are filtered on every read and purged
// by a background janitor. Increments run as single upsert statements
// inside a transaction, so concurrent callers within the process (and
// other processes via SQLite's locking) cannot lose updates.
//
// SQLiteStore uses a write-ahead log (WAL) for better concurrent read
// performance.
type SQLiteStore struct {
	db              *sql.DB
	janitorInterval time.Duration
	done            chan struct{}
	mu              sync.Mutex
	closeOnce       sync.Once

	incrStmt      *sql.Stmt
	incrFloatStmt *sql.Stmt
	expireStmt    *sql.Stmt
	getStmt       *sql.Stmt
	setStmt       *sql.Stmt
	keysStmt      *sql.Stmt
	purgeStmt     *sql.Stmt
	dropStmt      *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite backend.
type SQLiteStoreConfig struct {
	// Path is the path to the SQLite database file.
	Path string

	// JanitorInterval is how often expired rows are purged.
	// Default: 1 minute
	JanitorInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a SQLite-backed store with default settings.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{Path: path})
}

// NewSQLiteStoreWithConfig creates a SQLite-backed store with custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.JanitorInterval == 0 {
		cfg.JanitorInterval = time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:              db,
		janitorInterval: cfg.JanitorInterval,
		done:            make(chan struct{}),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go s.janitorLoop()

	return s, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		expires_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_kv_expires_at ON kv(expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.incrStmt, err = s.db.Prepare(`
		INSERT INTO kv (key, value, expires_at) VALUES (?, '1', NULL)
		ON CONFLICT (key) DO UPDATE SET
			value = CAST(CAST(kv.value AS INTEGER) + 1 AS TEXT)
		RETURNING CAST(value AS INTEGER)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare incr statement: %w", err)
	}

	s.incrFloatStmt, err = s.db.Prepare(`
		INSERT INTO kv (key, value, expires_at) VALUES (?, CAST(CAST(? AS REAL) AS TEXT), NULL)
		ON CONFLICT (key) DO UPDATE SET
			value = CAST(CAST(kv.value AS REAL) + CAST(? AS REAL) AS TEXT)
		RETURNING CAST(value AS REAL)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare incr-float statement: %w", err)
	}

	s.expireStmt, err = s.db.Prepare(`
		UPDATE kv SET expires_at = ?
		WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare expire statement: %w", err)
	}

	s.getStmt, err = s.db.Prepare(`
		SELECT value FROM kv
		WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.setStmt, err = s.db.Prepare(`
		INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare set statement: %w", err)
	}

	s.keysStmt, err = s.db.Prepare(`
		SELECT key FROM kv
		WHERE key GLOB ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY key
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare keys statement: %w", err)
	}

	s.purgeStmt, err = s.db.Prepare(`
		DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare purge statement: %w", err)
	}

	s.dropStmt, err = s.db.Prepare(`
		DELETE FROM kv WHERE key = ? AND expires_at IS NOT NULL AND expires_at <= ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare drop statement: %w", err)
	}

	return nil
}

// Incr atomically increments the integer counter at key.
func (s *SQLiteStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// An expired row must count from zero again.
	if _, err := s.dropStmt.ExecContext(ctx, key, nowMillis()); err != nil {
		return 0, fmt.Errorf("failed to drop expired key: %w", err)
	}

	var count int64
	if err := s.incrStmt.QueryRowContext(ctx, key).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to increment: %w", err)
	}
	return count, nil
}

// IncrByFloat atomically adds delta to the float accumulator at key.
func (s *SQLiteStore) IncrByFloat(ctx context.Context, key string, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.dropStmt.ExecContext(ctx, key, nowMillis()); err != nil {
		return 0, fmt.Errorf("failed to drop expired key: %w", err)
	}

	var total float64
	if err := s.incrFloatStmt.QueryRowContext(ctx, key, delta, delta).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to increment: %w", err)
	}
	return total, nil
}

// Expire sets the TTL for an existing key.
func (s *SQLiteStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowMillis()
	_, err := s.expireStmt.ExecContext(ctx, now+ttl.Milliseconds(), key, now)
	if err != nil {
		return fmt.Errorf("failed to set expiry: %w", err)
	}
	return nil
}

// Get returns the value at key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.getStmt.QueryRowContext(ctx, key, nowMillis()).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get: %w", err)
	}
	return []byte(value), true, nil
}

// Set writes value at key with the given TTL.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.setStmt.ExecContext(ctx, key, string(value), expiresAtMillis(ttl))
	if err != nil {
		return fmt.Errorf("failed to set: %w", err)
	}
	return nil
}

// SetBatch writes all entries in one transaction.
func (s *SQLiteStore) SetBatch(ctx context.Context, entries []Entry, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	expiresAt := expiresAtMillis(ttl)
	stmt := tx.StmtContext(ctx, s.setStmt)
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Key, string(e.Value), expiresAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to set %q: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Delete removes the given keys.
func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}
	return nil
}

// Keys enumerates live keys matching a glob pattern.
// SQLite's GLOB operator uses the same syntax as the Redis KEYS command.
func (s *SQLiteStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.keysStmt.QueryContext(ctx, pattern, nowMillis())
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating keys: %w", err)
	}
	return keys, nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases all resources. Close is idempotent.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		for _, stmt := range []*sql.Stmt{
			s.incrStmt, s.incrFloatStmt, s.expireStmt, s.getStmt,
			s.setStmt, s.keysStmt, s.purgeStmt, s.dropStmt,
		} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

// janitorLoop purges expired rows periodically.
func (s *SQLiteStore) janitorLoop() {
	ticker := time.NewTicker(s.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			_, _ = s.purgeStmt.Exec(nowMillis())
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// expiresAtMillis converts a TTL to an absolute expiry, or nil for no expiry.
func expiresAtMillis(ttl time.Duration) any {
	if ttl <= 0 {
		return nil
	}
	return nowMillis() + ttl.Milliseconds()
}
