package blobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores blobs in the blob_entries table. The namespace part of a
// key ("submission-logs/2024-05-01/...") goes to the store column and the
// remainder to key; keys without a namespace use the empty store.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// splitKey maps a full key to its (store, key) row address.
func splitKey(full string) (store, key string) {
	if i := strings.IndexByte(full, '/'); i >= 0 {
		return full[:i], full[i+1:]
	}
	return "", full
}

func joinKey(store, key string) string {
	if store == "" {
		return key
	}
	return store + "/" + key
}

func (p *Postgres) Get(ctx context.Context, key string, dst any) error {
	store, k := splitKey(key)
	var raw []byte
	err := p.pool.QueryRow(ctx,
		`SELECT value FROM blob_entries WHERE store = $1 AND key = $2`, store, k).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	store, k := splitKey(key)
	_, err = p.pool.Exec(ctx, `
		INSERT INTO blob_entries (store, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (store, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		store, k, raw)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	store, k := splitKey(key)
	if _, err := p.pool.Exec(ctx, `DELETE FROM blob_entries WHERE store = $1 AND key = $2`, store, k); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// List uses a left() comparison rather than LIKE so keys containing "%" or
// "_" match literally. A prefix that names a namespace is resolved against
// that store only; a shorter prefix matches across stores.
func (p *Postgres) List(ctx context.Context, prefix string) ([]string, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if strings.Contains(prefix, "/") {
		store, k := splitKey(prefix)
		rows, err = p.pool.Query(ctx, `
			SELECT store, key FROM blob_entries
			WHERE store = $1 AND left(key, length($2)) = $2
			ORDER BY key`, store, k)
	} else {
		rows, err = p.pool.Query(ctx, `
			SELECT store, key FROM blob_entries
			WHERE left(CASE WHEN store = '' THEN key ELSE store || '/' || key END, length($1)) = $1`, prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var store, k string
		if err := rows.Scan(&store, &k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, joinKey(store, k))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}
