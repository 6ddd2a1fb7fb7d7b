package normalize

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

// Chunking limits applied at import time
const (
	MaxChunkLength      = 900
	MaxChunksPerSection = 220
)

// Whole-document fallback section
const (
	WholeDocumentSectionID    = "doc_whole"
	WholeDocumentSectionTitle = "Исходный документ"
)

// BuildSections normalizes raw sections of a guideline document. Sections
// without an id get section_{n}, sections without a title use their id and
// sections whose text and markup are both 3 runes or shorter are dropped.
// When nothing remains the document's text block becomes a single
// whole-document section.
func BuildSections(doc *model.GuidelineDocument) []*model.GuidelineSection {
	guidelineID := doc.Guideline.ID

	if len(doc.RawSections) == 0 && doc.TextBlock != "" {
		return []*model.GuidelineSection{wholeDocumentSection(guidelineID, doc.TextBlock)}
	}

	sections := make([]*model.GuidelineSection, 0, len(doc.RawSections))
	for i, raw := range doc.RawSections {
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			id = fmt.Sprintf("section_%d", i+1)
		}
		title := strings.TrimSpace(raw.Title)
		if title == "" {
			title = id
		}
		text := PlainText(raw.HTML)
		if text == "" && raw.Text != "" {
			text = strings.Join(strings.Fields(raw.Text), " ")
		}
		if utf8.RuneCountInString(text) <= 3 && utf8.RuneCountInString(raw.HTML) <= 3 {
			continue
		}
		sections = append(sections, &model.GuidelineSection{
			GuidelineID: guidelineID,
			SectionID:   id,
			Title:       title,
			HTML:        raw.HTML,
			Text:        text,
		})
	}

	if len(sections) == 0 {
		return []*model.GuidelineSection{wholeDocumentSection(guidelineID, doc.TextBlock)}
	}
	return sections
}

func wholeDocumentSection(guidelineID, textBlock string) *model.GuidelineSection {
	return &model.GuidelineSection{
		GuidelineID: guidelineID,
		SectionID:   WholeDocumentSectionID,
		Title:       WholeDocumentSectionTitle,
		HTML:        textBlock,
		Text:        PlainText(textBlock),
	}
}

// BuildChunks splits section text into evidence chunks tagged with tagRules.
// Chunk ordinals start at 1 within each section.
func BuildChunks(guidelineID string, sections []*model.GuidelineSection, tagRules PhraseRules) []*model.EvidenceChunk {
	var chunks []*model.EvidenceChunk
	for _, section := range sections {
		split := SentenceChunks(section.Text, MaxChunkLength)
		if len(split) > MaxChunksPerSection {
			split = split[:MaxChunksPerSection]
		}

		for i, text := range split {
			chunk := &model.EvidenceChunk{
				ChunkID:     fmt.Sprintf("%s:%s:%d", guidelineID, section.SectionID, i+1),
				GuidelineID: guidelineID,
				SectionID:   section.SectionID,
				Text:        text,
				Tags:        tagRules.Labels(text),
			}
			if level := ExtractEvidenceLevel(text); level != "" {
				chunk.EvidenceLevel = &level
			}
			if section.Title != "" {
				anchor := section.Title
				chunk.SourceAnchor = &anchor
			}
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
