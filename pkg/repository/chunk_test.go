package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

func hitIDs(hits []*model.SearchHit) []string {
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.ChunkID)
	}
	return ids
}

func runChunkRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	setup := func(t *testing.T) (interfaces.Repository, string) {
		repo := newRepo(t)
		id := uniqueID("g")
		g, sections, chunks := testGuideline(id, "Рак желудка "+id, "2020-04-09", 574,
			"Рекомендуется периоперационная химиотерапия FLOT и хирургическое лечение.",
			"Химиотерапия при метастатическом процессе.",
			"Хирургическое лечение по показаниям.",
			"Лучевая терапия не показана.",
		)
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i, c := range chunks {
			c.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		}
		gt.NoError(t, repo.Guideline().Save(context.Background(), g, sections, chunks)).Required()
		return repo, id
	}

	t.Run("FullTextSearch ranks chunks matching more terms first", func(t *testing.T) {
		repo, id := setup(t)

		hits, err := repo.Chunk().FullTextSearch(context.Background(), model.FullTextQuery{
			Terms:        []string{"химиотерапия", "flot", "хирургическое"},
			GuidelineIDs: []string{id},
			Limit:        10,
		})
		gt.NoError(t, err).Required()
		gt.A(t, hits).Length(3)
		gt.V(t, hits[0].ChunkID).Equal(id + ":doc_3:1")
		for i := 1; i < len(hits); i++ {
			gt.B(t, hits[i-1].Score <= hits[i].Score).True()
		}
		gt.B(t, hits[0].Score < 0).True()
	})

	t.Run("FullTextSearch matches term prefixes", func(t *testing.T) {
		repo, id := setup(t)

		hits, err := repo.Chunk().FullTextSearch(context.Background(), model.FullTextQuery{
			Terms:        []string{"лучев"},
			GuidelineIDs: []string{id},
			Limit:        10,
		})
		gt.NoError(t, err).Required()
		gt.A(t, hitIDs(hits)).Equal([]string{id + ":doc_3:4"})
	})

	t.Run("FullTextSearch denormalizes guideline and section", func(t *testing.T) {
		repo, id := setup(t)

		hits, err := repo.Chunk().FullTextSearch(context.Background(), model.FullTextQuery{
			Terms:        []string{"flot"},
			GuidelineIDs: []string{id},
			Limit:        10,
		})
		gt.NoError(t, err).Required()
		gt.A(t, hits).Length(1)
		gt.V(t, hits[0].GuidelineID).Equal(id)
		gt.V(t, hits[0].GuidelineName).Equal("Рак желудка " + id)
		gt.V(t, hits[0].SectionTitle).Equal("Лечение")
		gt.A(t, hits[0].Tags).Equal([]string{"recommendation"})
		gt.V(t, *hits[0].SourceAnchor).Equal("Лечение")
		gt.V(t, hits[0].EvidenceLevel).Nil()
	})

	t.Run("FullTextSearch applies section scope and limit", func(t *testing.T) {
		repo, id := setup(t)
		ctx := context.Background()

		hits, err := repo.Chunk().FullTextSearch(ctx, model.FullTextQuery{
			Terms:        []string{"химиотерапия"},
			GuidelineIDs: []string{id},
			SectionIDs:   []string{"doc_diag_2"},
			Limit:        10,
		})
		gt.NoError(t, err).Required()
		gt.A(t, hits).Length(0)

		hits, err = repo.Chunk().FullTextSearch(ctx, model.FullTextQuery{
			Terms:        []string{"лечение", "химиотерапия"},
			GuidelineIDs: []string{id},
			SectionIDs:   []string{"doc_3"},
			Limit:        2,
		})
		gt.NoError(t, err).Required()
		gt.A(t, hits).Length(2)
	})

	t.Run("FullTextSearch without terms returns nothing", func(t *testing.T) {
		repo, _ := setup(t)
		hits, err := repo.Chunk().FullTextSearch(context.Background(), model.FullTextQuery{Limit: 10})
		gt.NoError(t, err).Required()
		gt.A(t, hits).Length(0)
	})

	t.Run("SubstringSearch boosts marker chunks then newest first", func(t *testing.T) {
		repo, id := setup(t)

		hits, err := repo.Chunk().SubstringSearch(context.Background(), model.SubstringQuery{
			Pattern:      "лечение",
			Marker:       "рекомендуется",
			MarkerScore:  0.5,
			DefaultScore: 1.0,
			GuidelineIDs: []string{id},
			Limit:        8,
		})
		gt.NoError(t, err).Required()
		gt.A(t, hitIDs(hits)).Equal([]string{id + ":doc_3:1", id + ":doc_3:3"})
		gt.V(t, hits[0].Score).Equal(0.5)
		gt.V(t, hits[1].Score).Equal(1.0)
	})

	t.Run("SubstringSearch orders equal scores newest first", func(t *testing.T) {
		repo, id := setup(t)

		hits, err := repo.Chunk().SubstringSearch(context.Background(), model.SubstringQuery{
			Pattern:      "терапия",
			Marker:       "рекомендуется",
			MarkerScore:  0.5,
			DefaultScore: 1.0,
			GuidelineIDs: []string{id},
			Limit:        8,
		})
		gt.NoError(t, err).Required()
		gt.A(t, hitIDs(hits)).Equal([]string{id + ":doc_3:1", id + ":doc_3:4", id + ":doc_3:2"})
	})

	t.Run("SubstringSearch is case-insensitive for Cyrillic and Latin", func(t *testing.T) {
		repo, id := setup(t)

		hits, err := repo.Chunk().SubstringSearch(context.Background(), model.SubstringQuery{
			Pattern:      "химиотерапия flot",
			DefaultScore: 1.0,
			GuidelineIDs: []string{id},
			SectionIDs:   []string{"doc_3"},
			Limit:        8,
		})
		gt.NoError(t, err).Required()
		gt.A(t, hitIDs(hits)).Equal([]string{id + ":doc_3:1"})
	})

	t.Run("SubstringSearch with empty pattern returns nothing", func(t *testing.T) {
		repo, id := setup(t)
		hits, err := repo.Chunk().SubstringSearch(context.Background(), model.SubstringQuery{
			GuidelineIDs: []string{id},
		})
		gt.NoError(t, err).Required()
		gt.A(t, hits).Length(0)
	})
}
