package repository_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/service/normalize"
)

func guidelineIDs(guidelines []*model.GuidelineVersion) []string {
	ids := make([]string, 0, len(guidelines))
	for _, g := range guidelines {
		ids = append(ids, g.ID)
	}
	return ids
}

func runGuidelineRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Save and FindByName round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		marker := uniqueID("желудка")
		g, sections, chunks := testGuideline(uniqueID("g"), "Рак "+marker, "2020-04-09", 574,
			"Рекомендуется периоперационная химиотерапия FLOT и хирургическое лечение.")
		gt.NoError(t, repo.Guideline().Save(ctx, g, sections, chunks)).Required()

		found, err := repo.Guideline().FindByName(ctx, []string{marker})
		gt.NoError(t, err).Required()
		gt.A(t, found).Length(1)
		gt.V(t, found[0].ID).Equal(g.ID)
		gt.V(t, *found[0].Code).Equal(int64(574))
		gt.V(t, *found[0].Version).Equal(1)
		gt.V(t, *found[0].PublishDate).Equal("2020-04-09")
		gt.V(t, found[0].SourceURL).Equal(g.SourceURL)
		gt.B(t, found[0].IsOncology).True()
	})

	t.Run("FindByName matches Cyrillic case-insensitively", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		marker := uniqueID("меланома")
		g, sections, chunks := testGuideline(uniqueID("g"), strings.ToUpper(marker)+" КОЖИ", "2021-01-01", 100)
		gt.NoError(t, repo.Guideline().Save(ctx, g, sections, chunks)).Required()

		found, err := repo.Guideline().FindByName(ctx, []string{marker})
		gt.NoError(t, err).Required()
		gt.A(t, found).Length(1)
	})

	t.Run("FindByName orders by publish date descending", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		marker := uniqueID("family")
		for _, v := range []struct{ id, date string }{
			{marker + "-a", "2020-01-01"},
			{marker + "-c", "2023-01-01"},
			{marker + "-b", "2021-06-01"},
		} {
			g, sections, chunks := testGuideline(v.id, "Guideline "+marker, v.date, 1)
			gt.NoError(t, repo.Guideline().Save(ctx, g, sections, chunks)).Required()
		}

		found, err := repo.Guideline().FindByName(ctx, []string{marker})
		gt.NoError(t, err).Required()
		gt.A(t, guidelineIDs(found)).Equal([]string{marker + "-c", marker + "-b", marker + "-a"})
	})

	t.Run("FindByName without patterns returns nothing", func(t *testing.T) {
		repo := newRepo(t)
		found, err := repo.Guideline().FindByName(context.Background(), nil)
		gt.NoError(t, err).Required()
		gt.A(t, found).Length(0)
	})

	t.Run("Save replaces sections and chunks", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id := uniqueID("g")
		g, sections, chunks := testGuideline(id, "Replace "+id, "2020-01-01", 1,
			uniqueID("первый")+" текст", uniqueID("второй")+" текст")
		gt.NoError(t, repo.Guideline().Save(ctx, g, sections, chunks)).Required()

		g.Name = "Renamed " + id
		replacement := uniqueID("третий")
		_, sections2, chunks2 := testGuideline(id, g.Name, "2020-01-01", 1, replacement+" текст")
		gt.NoError(t, repo.Guideline().Save(ctx, g, sections2, chunks2)).Required()

		hits, err := repo.Chunk().SubstringSearch(ctx, model.SubstringQuery{
			Pattern:      "текст",
			DefaultScore: 1,
			MarkerScore:  0.5,
			GuidelineIDs: []string{id},
		})
		gt.NoError(t, err).Required()
		gt.A(t, hits).Length(1)
		gt.V(t, hits[0].ChunkID).Equal(id + ":doc_3:1")
		gt.V(t, hits[0].GuidelineName).Equal("Renamed " + id)
	})

	t.Run("Save rejects invalid guideline", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Guideline().Save(context.Background(), &model.GuidelineVersion{Name: "no id"}, nil, nil)
		gt.Error(t, err).Is(model.ErrInvalidGuideline)
	})

	t.Run("ListRecent filters oncology and honors limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		onco, sections, chunks := testGuideline(uniqueID("onco"), "Onco", "2999-01-02", 1)
		gt.NoError(t, repo.Guideline().Save(ctx, onco, sections, chunks)).Required()

		other, sections, chunks := testGuideline(uniqueID("other"), "Other", "2999-01-03", 2)
		other.IsOncology = false
		gt.NoError(t, repo.Guideline().Save(ctx, other, sections, chunks)).Required()

		recent, err := repo.Guideline().ListRecent(ctx, 1, true)
		gt.NoError(t, err).Required()
		gt.A(t, recent).Length(1)
		gt.B(t, recent[0].IsOncology).True()

		oncoOnly, err := repo.Guideline().ListRecent(ctx, 1000, true)
		gt.NoError(t, err).Required()
		gt.A(t, guidelineIDs(oncoOnly)).Has(onco.ID)
		for _, g := range oncoOnly {
			gt.V(t, g.ID).NotEqual(other.ID)
		}

		all, err := repo.Guideline().ListRecent(ctx, 1000, false)
		gt.NoError(t, err).Required()
		gt.A(t, guidelineIDs(all)).Has(other.ID)
	})

	t.Run("ListSources counts sections", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		g, sections, chunks := testGuideline(uniqueID("src"), "Sources", "2998-01-01", 1)
		sections = append(sections, &model.GuidelineSection{
			GuidelineID: g.ID, SectionID: "doc_diag_2", Title: "Диагностика", HTML: "<p>x</p>", Text: "x",
		})
		gt.NoError(t, repo.Guideline().Save(ctx, g, sections, chunks)).Required()

		sources, err := repo.Guideline().ListSources(ctx, 500)
		gt.NoError(t, err).Required()

		var found *model.GuidelineSource
		for _, s := range sources {
			if s.ID == g.ID {
				found = s
			}
		}
		gt.V(t, found).NotNil()
		gt.V(t, found.SectionCount).Equal(2)
		gt.V(t, found.PDFURL).Equal(g.PDFURL)
	})

	t.Run("Counts reflects saved chunks", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		before, err := repo.Counts(ctx)
		gt.NoError(t, err).Required()

		g, sections, chunks := testGuideline(uniqueID("cnt"), "Counts", "2020-01-01", 1, "a b c", "d e f")
		gt.NoError(t, repo.Guideline().Save(ctx, g, sections, chunks)).Required()

		after, err := repo.Counts(ctx)
		gt.NoError(t, err).Required()
		gt.V(t, after.Guidelines).Equal(before.Guidelines + 1)
		gt.V(t, after.Chunks).Equal(before.Chunks + 2)
	})

	t.Run("Save rejects repeated section ids and keeps stored chunks", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		g, sections, chunks := testGuideline(uniqueID("dup"), "Duplicates", "2020-01-01", 1, "перитонэктомия первичная")
		gt.NoError(t, repo.Guideline().Save(ctx, g, sections, chunks)).Required()

		doc := &model.GuidelineDocument{
			Guideline: *g,
			RawSections: []model.RawSection{
				{ID: "doc_3", Title: "Лечение", HTML: "<p>Рекомендуется хирургическое лечение</p>"},
				{ID: "doc_3", Title: "Лечение", HTML: "<p>Рекомендуется адъювантная химиотерапия</p>"},
			},
		}
		built := normalize.BuildSections(doc)
		dupChunks := normalize.BuildChunks(g.ID, built, normalize.DefaultTagRules())
		gt.A(t, dupChunks).Length(2).Required()
		gt.V(t, dupChunks[0].ChunkID).Equal(dupChunks[1].ChunkID)

		err := repo.Guideline().Save(ctx, g, built, dupChunks)
		gt.Error(t, err).Is(model.ErrDuplicateChunk)

		hits, err := repo.Chunk().FullTextSearch(ctx, model.FullTextQuery{
			Terms:        []string{"перитонэктомия"},
			GuidelineIDs: []string{g.ID},
			Limit:        10,
		})
		gt.NoError(t, err).Required()
		gt.A(t, hits).Length(1).Required()
		gt.V(t, hits[0].ChunkID).Equal(chunks[0].ChunkID)
	})
}
