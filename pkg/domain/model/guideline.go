package model

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Guideline publication status as reported by the registry. Both values are
// valid sources for validation.
const (
	GuidelineStatusActive   = 0
	GuidelineStatusArchived = 4
)

// GuidelineVersion is one published revision of a clinical guideline
type GuidelineVersion struct {
	ID          string  `json:"id"`
	Code        *int64  `json:"code"`    // groups revisions of the same guideline
	Version     *int    `json:"version"` // revision ordinal inside a code group
	Name        string  `json:"name"`
	PublishDate *string `json:"publish_date"`
	Status      int     `json:"status"`
	ApplyStatus *string `json:"apply_status,omitempty"`
	SourceURL   string  `json:"source_url"`
	PDFURL      string  `json:"pdf_url"`
	IsOncology  bool    `json:"is_oncology"`
}

// Validate checks required guideline fields
func (g *GuidelineVersion) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return goerr.Wrap(ErrInvalidGuideline, "guideline id is empty")
	}
	if strings.TrimSpace(g.Name) == "" {
		return goerr.Wrap(ErrInvalidGuideline, "guideline name is empty",
			goerr.V(GuidelineIDKey, g.ID))
	}
	return nil
}

// PublishedAt returns the parsed publish date. A missing or unparseable date
// is the zero time, which sorts before every real date.
func (g *GuidelineVersion) PublishedAt() time.Time {
	if g.PublishDate == nil {
		return time.Time{}
	}
	return ParseDate(*g.PublishDate)
}

// Applied projects the version into the shape reported in validation results
func (g *GuidelineVersion) Applied() AppliedGuidelineVersion {
	return AppliedGuidelineVersion{
		ID:          g.ID,
		Name:        g.Name,
		PublishDate: g.PublishDate,
		Status:      g.Status,
		SourceURL:   g.SourceURL,
		PDFURL:      g.PDFURL,
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the date formats found in guideline registries and case
// inputs. It returns the zero time when nothing matches.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// GuidelineSection is one section of a guideline document
type GuidelineSection struct {
	GuidelineID string `json:"guideline_id"`
	SectionID   string `json:"section_id"`
	Title       string `json:"section_title"`
	HTML        string `json:"section_html"`
	Text        string `json:"section_text"`
}

// EvidenceChunk is the smallest retrievable unit of guideline text.
// ChunkID has the form {guideline_id}:{section_id}:{ordinal}.
type EvidenceChunk struct {
	ChunkID       string    `json:"chunk_id"`
	GuidelineID   string    `json:"guideline_id"`
	SectionID     string    `json:"section_id"`
	Text          string    `json:"chunk_text"`
	Tags          []string  `json:"tags"`
	EvidenceLevel *string   `json:"evidence_level"`
	SourceAnchor  *string   `json:"source_anchor"`
	CreatedAt     time.Time `json:"created_at"`
}

// CheckChunkIDs rejects a chunk batch in which two chunks share an id.
// Repeated section ids in a source document produce such batches.
func CheckChunkIDs(chunks []*EvidenceChunk) error {
	seen := make(map[string]struct{}, len(chunks))
	for _, ch := range chunks {
		if _, ok := seen[ch.ChunkID]; ok {
			return goerr.Wrap(ErrDuplicateChunk, "chunk id appears twice in batch",
				goerr.V(ChunkIDKey, ch.ChunkID), goerr.V(GuidelineIDKey, ch.GuidelineID))
		}
		seen[ch.ChunkID] = struct{}{}
	}
	return nil
}

// GuidelineSource is a guideline version listed with its section count
type GuidelineSource struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	PublishDate  *string `json:"publish_date"`
	Status       int     `json:"status"`
	SourceURL    string  `json:"source_url"`
	PDFURL       string  `json:"pdf_url"`
	SectionCount int     `json:"section_count"`
}

// RawSection is a section as delivered by the ingestion side, before
// normalization
type RawSection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	HTML  string `json:"html"`
	Text  string `json:"text,omitempty"`
}

// GuidelineDocument is the import unit: a guideline with its raw sections.
// TextBlock is used as whole-document content when no section survives.
type GuidelineDocument struct {
	Guideline   GuidelineVersion `json:"guideline"`
	RawSections []RawSection     `json:"sections"`
	TextBlock   string           `json:"text_block,omitempty"`
}

// StoreCounts reports the size of the guideline corpus
type StoreCounts struct {
	Guidelines int `json:"guidelines"`
	Chunks     int `json:"chunks"`
}
