package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/tidyframe/tidyframe/internal/db"
	"github.com/tidyframe/tidyframe/internal/model"
)

// PostgresStore implements Store using pgxpool. It lets several workers
// share one persistent cache.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns, pgxCfg.MinConns = 10, 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS name_cache (
	cache_key       TEXT PRIMARY KEY,
	normalized_name TEXT NOT NULL,
	payload         JSONB NOT NULL,
	cached_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_accessed   TIMESTAMPTZ NOT NULL DEFAULT now(),
	access_count    INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_name_cache_cached_at ON name_cache(cached_at);
`

var nameCacheUpsert = db.UpsertConfig{
	Table:        "name_cache",
	Columns:      []string{"cache_key", "normalized_name", "payload", "cached_at", "last_accessed", "access_count"},
	ConflictKeys: []string{"cache_key"},
	Merge: map[string]string{
		"access_count": `GREATEST("name_cache"."access_count", EXCLUDED."access_count")`,
	},
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*model.CachedResult, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT cache_key, normalized_name, payload, cached_at, last_accessed, access_count
		 FROM name_cache WHERE cache_key = $1`,
		key,
	)

	var (
		c       model.CachedResult
		payload []byte
	)
	err := row.Scan(&c.Key, &c.NormalizedName, &payload, &c.CachedAt, &c.LastAccessed, &c.AccessCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get %s", key)
	}
	if c.Result, err = decodePayload(payload, key); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) PutBatch(ctx context.Context, entries []model.CachedResult) error {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		payload, err := encodePayload(e.Result)
		if err != nil {
			return err
		}
		rows = append(rows, []any{e.Key, e.NormalizedName, payload, e.CachedAt, e.LastAccessed, e.AccessCount})
	}
	_, err := db.BulkUpsert(ctx, s.pool, nameCacheUpsert, rows)
	return eris.Wrap(err, "postgres: put batch")
}

func (s *PostgresStore) Touch(ctx context.Context, key string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE name_cache SET access_count = access_count + 1, last_accessed = $1 WHERE cache_key = $2`,
		at, key,
	)
	return eris.Wrapf(err, "postgres: touch %s", key)
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM name_cache WHERE cached_at < $1`, before)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Clear(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM name_cache`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: clear")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM name_cache`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count")
}
