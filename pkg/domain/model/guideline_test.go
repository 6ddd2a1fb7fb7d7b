package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"date only", "2020-04-09", time.Date(2020, 4, 9, 0, 0, 0, 0, time.UTC)},
		{"rfc3339", "2021-03-01T10:00:00Z", time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"local datetime", "2021-03-01T10:00:00", time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"space datetime", "2021-03-01 10:00:00", time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"garbage", "not a date", time.Time{}},
		{"empty", "", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.B(t, model.ParseDate(tt.input).Equal(tt.want)).True()
		})
	}
}

func TestGuidelineVersion_PublishedAt(t *testing.T) {
	date := "2023-01-01"
	g := &model.GuidelineVersion{ID: "g1", Name: "Рак желудка", PublishDate: &date}
	gt.V(t, g.PublishedAt().Year()).Equal(2023)

	g.PublishDate = nil
	gt.B(t, g.PublishedAt().IsZero()).True()
}

func TestGuidelineVersion_Validate(t *testing.T) {
	gt.NoError(t, (&model.GuidelineVersion{ID: "g1", Name: "name"}).Validate())

	err := (&model.GuidelineVersion{Name: "name"}).Validate()
	gt.B(t, errors.Is(err, model.ErrInvalidGuideline)).True()

	err = (&model.GuidelineVersion{ID: "g1", Name: "  "}).Validate()
	gt.B(t, errors.Is(err, model.ErrInvalidGuideline)).True()
}

func TestGuidelineVersion_Applied(t *testing.T) {
	date := "2020-04-09"
	code := int64(574)
	g := &model.GuidelineVersion{
		ID: "574_1", Code: &code, Name: "Рак желудка", PublishDate: &date,
		SourceURL: "https://example.org/574", PDFURL: "https://example.org/574.pdf",
	}
	applied := g.Applied()
	gt.V(t, applied.ID).Equal("574_1")
	gt.V(t, *applied.PublishDate).Equal("2020-04-09")
	gt.V(t, applied.PDFURL).Equal("https://example.org/574.pdf")
}

func TestCheckChunkIDs(t *testing.T) {
	gt.NoError(t, model.CheckChunkIDs(nil))
	gt.NoError(t, model.CheckChunkIDs([]*model.EvidenceChunk{
		{ChunkID: "574_1:doc_3:1"},
		{ChunkID: "574_1:doc_3:2"},
	}))

	err := model.CheckChunkIDs([]*model.EvidenceChunk{
		{ChunkID: "574_1:doc_3:1", GuidelineID: "574_1"},
		{ChunkID: "574_1:doc_3:1", GuidelineID: "574_1"},
	})
	gt.Error(t, err).Is(model.ErrDuplicateChunk)
}
