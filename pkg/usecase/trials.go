package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/service/trials"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
)

const (
	DefaultTrialsPageSize = 20
	DefaultTrialsCacheTTL = 24 * time.Hour
)

type TrialsUseCase struct {
	cache    interfaces.TrialsCacheRepository
	searcher trials.Searcher
	ttl      time.Duration
	now      func() time.Time
}

func NewTrialsUseCase(cache interfaces.TrialsCacheRepository, searcher trials.Searcher, ttl time.Duration, now func() time.Time) *TrialsUseCase {
	return &TrialsUseCase{
		cache:    cache,
		searcher: searcher,
		ttl:      ttl,
		now:      now,
	}
}

// trialsCacheKey identifies a registry answer by query, recruiting filter
// and page size
func trialsCacheKey(query string, recruiting bool, pageSize int) string {
	flag := "0"
	if recruiting {
		flag = "1"
	}
	return query + "|" + flag + "|" + strconv.Itoa(pageSize)
}

// Search finds clinical trials for a condition. A cached answer younger
// than the TTL is returned without calling the registry. With recruiting
// set only open or soon opening studies are kept.
func (uc *TrialsUseCase) Search(ctx context.Context, query string, recruiting bool) (*model.TrialSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, goerr.Wrap(ErrInvalidTrialQuery, "query is required")
	}
	key := trialsCacheKey(query, recruiting, DefaultTrialsPageSize)

	cached, err := uc.cache.Get(ctx, key)
	if err != nil {
		logging.From(ctx).Warn("failed to read trials cache", slog.String("query_key", key), slog.Any("error", err))
	} else if cached != nil && uc.now().Sub(cached.FetchedAt) <= uc.ttl {
		return &model.TrialSearchResult{
			Query:      query,
			Recruiting: recruiting,
			Source:     model.TrialSourceCache,
			FetchedAt:  cached.FetchedAt,
			Items:      cached.Items,
		}, nil
	}

	if uc.searcher == nil {
		return nil, goerr.Wrap(ErrNoTrialSearcher, "cannot query trials registry", goerr.V(TrialQueryKey, query))
	}
	items, err := uc.searcher.Search(ctx, query, DefaultTrialsPageSize)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search trials registry", goerr.V(TrialQueryKey, query))
	}

	if recruiting {
		open := make([]*model.Trial, 0, len(items))
		for _, item := range items {
			if item.Recruiting() {
				open = append(open, item)
			}
		}
		items = open
	}
	if items == nil {
		items = []*model.Trial{}
	}

	entry := &model.TrialsCacheEntry{
		QueryKey:  key,
		FetchedAt: uc.now().UTC(),
		Items:     items,
	}
	if err := uc.cache.Put(ctx, entry); err != nil {
		logging.From(ctx).Warn("failed to write trials cache", slog.String("query_key", key), slog.Any("error", err))
	}

	logging.From(ctx).Info("trials fetched",
		slog.String("query", query),
		slog.Bool("recruiting", recruiting),
		slog.Int("items", len(items)),
	)

	return &model.TrialSearchResult{
		Query:      query,
		Recruiting: recruiting,
		Source:     model.TrialSourceLive,
		FetchedAt:  entry.FetchedAt,
		Items:      items,
	}, nil
}
