// Package store implements the persistent tier of the name cache. Entries
// are keyed by the hash of the normalized name and hold the parsed result
// as JSON.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"

	"github.com/tidyframe/tidyframe/internal/model"
)

// Store persists cached parse results. Get returns (nil, nil) when the key
// is absent; expiry is left to the caller.
type Store interface {
	Get(ctx context.Context, key string) (*model.CachedResult, error)
	PutBatch(ctx context.Context, entries []model.CachedResult) error
	Touch(ctx context.Context, key string, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
	Clear(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates the store for driver ("sqlite" or "postgres") and runs its
// migration.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	var (
		st  Store
		err error
	)
	switch driver {
	case "", "sqlite":
		st, err = NewSQLite(dsn)
	case "postgres":
		st, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func encodePayload(r model.ParsedName) (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal payload")
	}
	return string(b), nil
}

func decodePayload(payload []byte, key string) (model.ParsedName, error) {
	var r model.ParsedName
	if err := json.Unmarshal(payload, &r); err != nil {
		return r, eris.Wrapf(err, "store: decode payload %s", key)
	}
	return r, nil
}
