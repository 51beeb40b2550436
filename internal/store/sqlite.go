package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/tidyframe/tidyframe/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Timestamps are
// stored as Unix milliseconds so range deletes compare numerically.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS name_cache (
	cache_key       TEXT PRIMARY KEY,
	normalized_name TEXT NOT NULL,
	payload         TEXT NOT NULL,
	cached_at       INTEGER NOT NULL,
	last_accessed   INTEGER NOT NULL,
	access_count    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_name_cache_cached_at ON name_cache(cached_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*model.CachedResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cache_key, normalized_name, payload, cached_at, last_accessed, access_count
		 FROM name_cache WHERE cache_key = ?`,
		key,
	)

	var (
		c                    model.CachedResult
		payload              string
		cachedAt, lastAccess int64
	)
	err := row.Scan(&c.Key, &c.NormalizedName, &payload, &cachedAt, &lastAccess, &c.AccessCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get %s", key)
	}

	if c.Result, err = decodePayload([]byte(payload), key); err != nil {
		return nil, err
	}
	c.CachedAt = time.UnixMilli(cachedAt).UTC()
	c.LastAccessed = time.UnixMilli(lastAccess).UTC()
	return &c, nil
}

// PutBatch upserts entries in one transaction. An existing row keeps the
// larger access count.
func (s *SQLiteStore) PutBatch(ctx context.Context, entries []model.CachedResult) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO name_cache (cache_key, normalized_name, payload, cached_at, last_accessed, access_count)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
			normalized_name = excluded.normalized_name,
			payload = excluded.payload,
			cached_at = excluded.cached_at,
			last_accessed = excluded.last_accessed,
			access_count = MAX(name_cache.access_count, excluded.access_count)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	for _, e := range entries {
		payload, err := encodePayload(e.Result)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			e.Key, e.NormalizedName, payload,
			e.CachedAt.UnixMilli(), e.LastAccessed.UnixMilli(), e.AccessCount,
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert %s", e.Key)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) Touch(ctx context.Context, key string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE name_cache SET access_count = access_count + 1, last_accessed = ? WHERE cache_key = ?`,
		at.UnixMilli(), key,
	)
	return eris.Wrapf(err, "sqlite: touch %s", key)
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM name_cache WHERE cached_at < ?`, before.UnixMilli(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM name_cache`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: clear")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM name_cache`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count")
}
