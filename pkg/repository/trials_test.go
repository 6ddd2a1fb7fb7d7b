package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

func runTrialsCacheRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Get unknown key returns nil", func(t *testing.T) {
		repo := newRepo(t)
		entry, err := repo.TrialsCache().Get(context.Background(), uniqueID("absent"))
		gt.NoError(t, err).Required()
		gt.V(t, entry).Nil()
	})

	t.Run("Put and Get round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		fetchedAt := time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC)
		entry := &model.TrialsCacheEntry{
			QueryKey:  uniqueID("gastric cancer") + "|1|20",
			FetchedAt: fetchedAt,
			Items: []*model.Trial{
				{
					NCTID:                "NCT01234567",
					BriefTitle:           "Perioperative FLOT",
					OverallStatus:        "RECRUITING",
					LastUpdateSubmitDate: ptr("2024-11-02"),
					Conditions:           []string{"Gastric Cancer"},
					Interventions:        []string{"FLOT"},
				},
			},
		}
		gt.NoError(t, repo.TrialsCache().Put(ctx, entry)).Required()

		got, err := repo.TrialsCache().Get(ctx, entry.QueryKey)
		gt.NoError(t, err).Required()
		gt.V(t, got).NotNil()
		gt.V(t, got.QueryKey).Equal(entry.QueryKey)
		gt.B(t, got.FetchedAt.Equal(fetchedAt)).True()
		gt.A(t, got.Items).Length(1).Required()
		gt.V(t, got.Items[0].NCTID).Equal("NCT01234567")
		gt.V(t, *got.Items[0].LastUpdateSubmitDate).Equal("2024-11-02")
		gt.A(t, got.Items[0].Interventions).Equal([]string{"FLOT"})
	})

	t.Run("Put replaces the entry for the same key", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		key := uniqueID("breast") + "|0|20"
		first := &model.TrialsCacheEntry{
			QueryKey:  key,
			FetchedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Items:     []*model.Trial{{NCTID: "NCT1", BriefTitle: "Old"}},
		}
		second := &model.TrialsCacheEntry{
			QueryKey:  key,
			FetchedAt: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
			Items:     []*model.Trial{},
		}
		gt.NoError(t, repo.TrialsCache().Put(ctx, first)).Required()
		gt.NoError(t, repo.TrialsCache().Put(ctx, second)).Required()

		got, err := repo.TrialsCache().Get(ctx, key)
		gt.NoError(t, err).Required()
		gt.V(t, got).NotNil()
		gt.B(t, got.FetchedAt.Equal(second.FetchedAt)).True()
		gt.A(t, got.Items).Length(0)
	})
}
