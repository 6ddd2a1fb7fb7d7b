package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

type trialsCacheRepository struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func newTrialsCacheRepository() *trialsCacheRepository {
	return &trialsCacheRepository{
		entries: make(map[string][]byte),
	}
}

func (r *trialsCacheRepository) Get(ctx context.Context, key string) (*model.TrialsCacheEntry, error) {
	r.mu.RLock()
	raw, exists := r.entries[key]
	r.mu.RUnlock()

	if !exists {
		return nil, nil
	}

	var entry model.TrialsCacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal trials cache entry", goerr.V("query_key", key))
	}
	return &entry, nil
}

func (r *trialsCacheRepository) Put(ctx context.Context, entry *model.TrialsCacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return goerr.Wrap(err, "failed to marshal trials cache entry", goerr.V("query_key", entry.QueryKey))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.QueryKey] = raw
	return nil
}
