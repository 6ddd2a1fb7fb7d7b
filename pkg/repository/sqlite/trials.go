package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

type trialsCacheRepository struct {
	db *sql.DB
}

func (r *trialsCacheRepository) Get(ctx context.Context, key string) (*model.TrialsCacheEntry, error) {
	var fetchedAt, payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT fetched_at, payload_json FROM trials_cache WHERE query_key = ?`, key,
	).Scan(&fetchedAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get trials cache entry", goerr.V("query_key", key))
	}

	entry := &model.TrialsCacheEntry{QueryKey: key, FetchedAt: parseTime(fetchedAt)}
	if err := json.Unmarshal([]byte(payload), &entry.Items); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal trials cache entry", goerr.V("query_key", key))
	}
	return entry, nil
}

func (r *trialsCacheRepository) Put(ctx context.Context, entry *model.TrialsCacheEntry) error {
	payload, err := json.Marshal(entry.Items)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal trials cache entry", goerr.V("query_key", entry.QueryKey))
	}

	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO trials_cache (query_key, fetched_at, payload_json)
		VALUES (?, ?, ?)
		ON CONFLICT(query_key) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			payload_json = excluded.payload_json`,
		entry.QueryKey, formatTime(entry.FetchedAt), string(payload),
	); err != nil {
		return goerr.Wrap(err, "failed to upsert trials cache entry", goerr.V("query_key", entry.QueryKey))
	}
	return nil
}
