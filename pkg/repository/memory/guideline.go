package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

type guidelineRepository struct {
	corpus *corpus
}

func (r *guidelineRepository) Save(ctx context.Context, guideline *model.GuidelineVersion, sections []*model.GuidelineSection, chunks []*model.EvidenceChunk) error {
	if err := guideline.Validate(); err != nil {
		return goerr.Wrap(err, "failed to save guideline")
	}
	if err := model.CheckChunkIDs(chunks); err != nil {
		return goerr.Wrap(err, "failed to save guideline", goerr.V(model.GuidelineIDKey, guideline.ID))
	}

	c := r.corpus
	c.mu.Lock()
	defer c.mu.Unlock()

	id := guideline.ID
	for _, ch := range chunks {
		if owner, ok := c.chunks[ch.ChunkID]; ok && owner.chunk.GuidelineID != id {
			return goerr.Wrap(model.ErrDuplicateChunk, "chunk id belongs to another guideline",
				goerr.V(model.ChunkIDKey, ch.ChunkID), goerr.V(model.GuidelineIDKey, owner.chunk.GuidelineID))
		}
	}

	c.guidelines[id] = copyGuideline(guideline)

	for key := range c.sections {
		if key.guidelineID == id {
			delete(c.sections, key)
		}
	}
	for _, s := range sections {
		copied := copySection(s)
		copied.GuidelineID = id
		c.sections[sectionKey{id, copied.SectionID}] = copied
	}

	for chunkID, ic := range c.chunks {
		if ic.chunk.GuidelineID == id {
			c.totalTerms -= len(ic.terms)
			delete(c.chunks, chunkID)
		}
	}
	now := time.Now().UTC()
	for _, ch := range chunks {
		copied := copyChunk(ch)
		copied.GuidelineID = id
		if copied.CreatedAt.IsZero() {
			copied.CreatedAt = now
		}
		ic := &indexedChunk{
			chunk:     copied,
			lowerText: strings.ToLower(copied.Text),
			terms:     indexTerms(copied.Text + " " + strings.Join(copied.Tags, " ")),
		}
		c.chunks[copied.ChunkID] = ic
		c.totalTerms += len(ic.terms)
	}

	return nil
}

func (r *guidelineRepository) FindByName(ctx context.Context, patterns []string) ([]*model.GuidelineVersion, error) {
	c := r.corpus
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []*model.GuidelineVersion
	for _, g := range c.guidelines {
		name := strings.ToLower(g.Name)
		for _, p := range patterns {
			if strings.Contains(name, strings.ToLower(p)) {
				result = append(result, copyGuideline(g))
				break
			}
		}
	}
	sortByPublishDateDesc(result)
	return result, nil
}

func (r *guidelineRepository) ListRecent(ctx context.Context, limit int, oncologyOnly bool) ([]*model.GuidelineVersion, error) {
	c := r.corpus
	c.mu.RLock()
	defer c.mu.RUnlock()

	var result []*model.GuidelineVersion
	for _, g := range c.guidelines {
		if oncologyOnly && !g.IsOncology {
			continue
		}
		result = append(result, copyGuideline(g))
	}
	sortByPublishDateDesc(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *guidelineRepository) ListSources(ctx context.Context, limit int) ([]*model.GuidelineSource, error) {
	c := r.corpus
	c.mu.RLock()
	defer c.mu.RUnlock()

	counts := make(map[string]int)
	for key := range c.sections {
		counts[key.guidelineID]++
	}

	guidelines := make([]*model.GuidelineVersion, 0, len(c.guidelines))
	for _, g := range c.guidelines {
		guidelines = append(guidelines, g)
	}
	sortByPublishDateDesc(guidelines)
	if limit > 0 && len(guidelines) > limit {
		guidelines = guidelines[:limit]
	}

	result := make([]*model.GuidelineSource, 0, len(guidelines))
	for _, g := range guidelines {
		result = append(result, &model.GuidelineSource{
			ID:           g.ID,
			Name:         g.Name,
			PublishDate:  copyStringPtr(g.PublishDate),
			Status:       g.Status,
			SourceURL:    g.SourceURL,
			PDFURL:       g.PDFURL,
			SectionCount: counts[g.ID],
		})
	}
	return result, nil
}

// sortByPublishDateDesc orders guidelines newest first; missing dates go
// last and ties are broken by id
func sortByPublishDateDesc(guidelines []*model.GuidelineVersion) {
	sort.SliceStable(guidelines, func(i, j int) bool {
		a, b := guidelines[i].PublishedAt(), guidelines[j].PublishedAt()
		if !a.Equal(b) {
			return a.After(b)
		}
		return guidelines[i].ID < guidelines[j].ID
	})
}
