package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

type trialsCacheRepository struct {
	pool *pgxpool.Pool
}

func (r *trialsCacheRepository) Get(ctx context.Context, key string) (*model.TrialsCacheEntry, error) {
	entry := &model.TrialsCacheEntry{QueryKey: key}
	var payload []byte
	err := r.pool.QueryRow(ctx,
		`SELECT fetched_at, payload_json FROM trials_cache WHERE query_key = $1`, key,
	).Scan(&entry.FetchedAt, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get trials cache entry", goerr.V("query_key", key))
	}

	if err := json.Unmarshal(payload, &entry.Items); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal trials cache entry", goerr.V("query_key", key))
	}
	return entry, nil
}

func (r *trialsCacheRepository) Put(ctx context.Context, entry *model.TrialsCacheEntry) error {
	payload, err := json.Marshal(entry.Items)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal trials cache entry", goerr.V("query_key", entry.QueryKey))
	}

	if _, err := r.pool.Exec(ctx, `
		INSERT INTO trials_cache (query_key, fetched_at, payload_json)
		VALUES ($1, $2, $3)
		ON CONFLICT (query_key) DO UPDATE SET
			fetched_at = EXCLUDED.fetched_at,
			payload_json = EXCLUDED.payload_json`,
		entry.QueryKey, entry.FetchedAt, payload,
	); err != nil {
		return goerr.Wrap(err, "failed to upsert trials cache entry", goerr.V("query_key", entry.QueryKey))
	}
	return nil
}
