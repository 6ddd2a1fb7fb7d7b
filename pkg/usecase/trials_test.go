package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/repository/memory"
	"github.com/oncoguard/oncoguard/pkg/usecase"
)

type stubSearcher struct {
	items     []*model.Trial
	err       error
	calls     int
	condition string
	pageSize  int
}

func (s *stubSearcher) Search(ctx context.Context, condition string, pageSize int) ([]*model.Trial, error) {
	s.calls++
	s.condition = condition
	s.pageSize = pageSize
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func registryTrials() []*model.Trial {
	return []*model.Trial{
		{NCTID: "NCT1", BriefTitle: "Open study", OverallStatus: "RECRUITING"},
		{NCTID: "NCT2", BriefTitle: "Finished study", OverallStatus: "COMPLETED"},
		{NCTID: "NCT3", BriefTitle: "Upcoming study", OverallStatus: "NOT_YET_RECRUITING"},
	}
}

func TestTrials_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("live answer is cached until the TTL passes", func(t *testing.T) {
		clock := &testClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
		searcher := &stubSearcher{items: registryTrials()}
		uc := usecase.New(memory.New(), usecase.WithTrialSearcher(searcher), usecase.WithClock(clock.Now))

		first, err := uc.Trials.Search(ctx, "  gastric cancer ", false)
		gt.NoError(t, err).Required()
		gt.V(t, first.Source).Equal(model.TrialSourceLive)
		gt.V(t, first.Query).Equal("gastric cancer")
		gt.A(t, first.Items).Length(3)
		gt.V(t, searcher.condition).Equal("gastric cancer")
		gt.V(t, searcher.pageSize).Equal(usecase.DefaultTrialsPageSize)

		clock.now = clock.now.Add(23 * time.Hour)
		second, err := uc.Trials.Search(ctx, "gastric cancer", false)
		gt.NoError(t, err).Required()
		gt.V(t, second.Source).Equal(model.TrialSourceCache)
		gt.B(t, second.FetchedAt.Equal(first.FetchedAt)).True()
		gt.A(t, second.Items).Length(3)
		gt.V(t, searcher.calls).Equal(1)

		clock.now = clock.now.Add(2 * time.Hour)
		third, err := uc.Trials.Search(ctx, "gastric cancer", false)
		gt.NoError(t, err).Required()
		gt.V(t, third.Source).Equal(model.TrialSourceLive)
		gt.V(t, searcher.calls).Equal(2)
	})

	t.Run("recruiting filter keeps open studies and has its own cache key", func(t *testing.T) {
		searcher := &stubSearcher{items: registryTrials()}
		uc := usecase.New(memory.New(), usecase.WithTrialSearcher(searcher))

		open, err := uc.Trials.Search(ctx, "gastric cancer", true)
		gt.NoError(t, err).Required()
		gt.B(t, open.Recruiting).True()
		gt.A(t, open.Items).Length(2).Required()
		gt.V(t, open.Items[0].NCTID).Equal("NCT1")
		gt.V(t, open.Items[1].NCTID).Equal("NCT3")

		all, err := uc.Trials.Search(ctx, "gastric cancer", false)
		gt.NoError(t, err).Required()
		gt.V(t, all.Source).Equal(model.TrialSourceLive)
		gt.A(t, all.Items).Length(3)
		gt.V(t, searcher.calls).Equal(2)
	})

	t.Run("custom TTL", func(t *testing.T) {
		clock := &testClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
		searcher := &stubSearcher{items: registryTrials()}
		uc := usecase.New(memory.New(),
			usecase.WithTrialSearcher(searcher),
			usecase.WithTrialsCacheTTL(time.Minute),
			usecase.WithClock(clock.Now),
		)

		_, err := uc.Trials.Search(ctx, "melanoma", false)
		gt.NoError(t, err).Required()
		clock.now = clock.now.Add(2 * time.Minute)
		result, err := uc.Trials.Search(ctx, "melanoma", false)
		gt.NoError(t, err).Required()
		gt.V(t, result.Source).Equal(model.TrialSourceLive)
		gt.V(t, searcher.calls).Equal(2)
	})

	t.Run("blank query is rejected", func(t *testing.T) {
		searcher := &stubSearcher{}
		uc := usecase.New(memory.New(), usecase.WithTrialSearcher(searcher))

		_, err := uc.Trials.Search(ctx, "   ", false)
		gt.Error(t, err).Is(usecase.ErrInvalidTrialQuery)
		gt.V(t, searcher.calls).Equal(0)
	})

	t.Run("registry error is returned", func(t *testing.T) {
		registryErr := errors.New("registry down")
		uc := usecase.New(memory.New(), usecase.WithTrialSearcher(&stubSearcher{err: registryErr}))

		_, err := uc.Trials.Search(ctx, "lymphoma", false)
		gt.Error(t, err).Is(registryErr)
	})

	t.Run("without registry only cached answers are served", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.TrialsCache().Put(ctx, &model.TrialsCacheEntry{
			QueryKey:  "sarcoma|0|20",
			FetchedAt: time.Now().UTC(),
			Items:     []*model.Trial{{NCTID: "NCT9", BriefTitle: "Cached"}},
		})).Required()
		uc := usecase.New(repo)

		cached, err := uc.Trials.Search(ctx, "sarcoma", false)
		gt.NoError(t, err).Required()
		gt.V(t, cached.Source).Equal(model.TrialSourceCache)
		gt.V(t, cached.Items[0].NCTID).Equal("NCT9")

		_, err = uc.Trials.Search(ctx, "glioma", false)
		gt.Error(t, err).Is(usecase.ErrNoTrialSearcher)
	})

	t.Run("cache failures do not block live answers", func(t *testing.T) {
		repo := &failingCacheRepository{Memory: memory.New(), err: errors.New("cache unavailable")}
		searcher := &stubSearcher{items: registryTrials()}
		uc := usecase.New(repo, usecase.WithTrialSearcher(searcher))

		result, err := uc.Trials.Search(ctx, "gastric cancer", false)
		gt.NoError(t, err).Required()
		gt.V(t, result.Source).Equal(model.TrialSourceLive)
		gt.A(t, result.Items).Length(3)
	})
}

type failingCacheRepository struct {
	*memory.Memory
	err error
}

func (r *failingCacheRepository) TrialsCache() interfaces.TrialsCacheRepository {
	return &failingCache{err: r.err}
}

type failingCache struct{ err error }

func (c *failingCache) Get(ctx context.Context, key string) (*model.TrialsCacheEntry, error) {
	return nil, c.err
}
func (c *failingCache) Put(ctx context.Context, entry *model.TrialsCacheEntry) error { return c.err }
