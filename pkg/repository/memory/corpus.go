package memory

import (
	"sync"

	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

type sectionKey struct {
	guidelineID string
	sectionID   string
}

// indexedChunk is a chunk with its precomputed search fields
type indexedChunk struct {
	chunk     *model.EvidenceChunk
	lowerText string
	terms     []string // index terms of text and tags
}

// corpus holds guidelines, sections and chunks under one lock so every read
// observes a consistent snapshot
type corpus struct {
	mu         sync.RWMutex
	guidelines map[string]*model.GuidelineVersion
	sections   map[sectionKey]*model.GuidelineSection
	chunks     map[string]*indexedChunk
	// total number of index terms across chunks, for average document length
	totalTerms int
}

func newCorpus() *corpus {
	return &corpus{
		guidelines: make(map[string]*model.GuidelineVersion),
		sections:   make(map[sectionKey]*model.GuidelineSection),
		chunks:     make(map[string]*indexedChunk),
	}
}

func copyGuideline(g *model.GuidelineVersion) *model.GuidelineVersion {
	copied := *g
	if g.Code != nil {
		v := *g.Code
		copied.Code = &v
	}
	if g.Version != nil {
		v := *g.Version
		copied.Version = &v
	}
	copied.PublishDate = copyStringPtr(g.PublishDate)
	copied.ApplyStatus = copyStringPtr(g.ApplyStatus)
	return &copied
}

func copySection(s *model.GuidelineSection) *model.GuidelineSection {
	copied := *s
	return &copied
}

func copyChunk(c *model.EvidenceChunk) *model.EvidenceChunk {
	copied := *c
	copied.Tags = append([]string{}, c.Tags...)
	copied.EvidenceLevel = copyStringPtr(c.EvidenceLevel)
	copied.SourceAnchor = copyStringPtr(c.SourceAnchor)
	return &copied
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// toHit denormalizes a chunk into a search hit. Caller must hold the lock.
func (c *corpus) toHit(ic *indexedChunk, score float64) *model.SearchHit {
	chunk := ic.chunk
	hit := &model.SearchHit{
		ChunkID:       chunk.ChunkID,
		GuidelineID:   chunk.GuidelineID,
		SectionID:     chunk.SectionID,
		ChunkText:     chunk.Text,
		Tags:          append([]string{}, chunk.Tags...),
		EvidenceLevel: copyStringPtr(chunk.EvidenceLevel),
		SourceAnchor:  copyStringPtr(chunk.SourceAnchor),
		Score:         score,
	}
	if g, ok := c.guidelines[chunk.GuidelineID]; ok {
		hit.GuidelineName = g.Name
	}
	if s, ok := c.sections[sectionKey{chunk.GuidelineID, chunk.SectionID}]; ok {
		hit.SectionTitle = s.Title
	}
	return hit
}

func inScope(chunk *model.EvidenceChunk, guidelineIDs, sectionIDs []string) bool {
	if len(guidelineIDs) > 0 && !contains(guidelineIDs, chunk.GuidelineID) {
		return false
	}
	if len(sectionIDs) > 0 && !contains(sectionIDs, chunk.SectionID) {
		return false
	}
	return true
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
