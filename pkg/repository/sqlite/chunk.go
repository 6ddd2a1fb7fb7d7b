package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

type chunkRepository struct {
	db *sql.DB
}

const hitColumns = `
	rc.chunk_id,
	rc.guideline_id,
	g.name AS guideline_name,
	rc.section_id,
	gs.section_title,
	rc.chunk_text,
	rc.tags,
	rc.evidence_level,
	rc.source_anchor`

const hitJoins = `
	JOIN guidelines g ON g.id = rc.guideline_id
	LEFT JOIN guideline_sections gs
		ON gs.guideline_id = rc.guideline_id
		AND gs.section_id = rc.section_id`

// matchExpression builds an FTS5 prefix query "t1"* OR "t2"* ...
func matchExpression(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ReplaceAll(strings.ToLower(t), `"`, `""`)
		if t == "" {
			continue
		}
		parts = append(parts, `"`+t+`"*`)
	}
	return strings.Join(parts, " OR ")
}

func scopeFilters(guidelineIDs, sectionIDs []string) (string, []any) {
	var filters []string
	var args []any
	if len(guidelineIDs) > 0 {
		filters = append(filters, `rc.guideline_id IN (`+placeholders(len(guidelineIDs))+`)`)
		for _, id := range guidelineIDs {
			args = append(args, id)
		}
	}
	if len(sectionIDs) > 0 {
		filters = append(filters, `rc.section_id IN (`+placeholders(len(sectionIDs))+`)`)
		for _, id := range sectionIDs {
			args = append(args, id)
		}
	}
	if len(filters) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(filters, " AND "), args
}

func (r *chunkRepository) FullTextSearch(ctx context.Context, query model.FullTextQuery) ([]*model.SearchHit, error) {
	match := matchExpression(query.Terms)
	if match == "" {
		return nil, nil
	}

	filter, filterArgs := scopeFilters(query.GuidelineIDs, query.SectionIDs)
	args := append([]any{match}, filterArgs...)
	args = append(args, sqlLimit(query.Limit))

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+hitColumns+`,
			bm25(recommendation_chunks_fts) AS score
		FROM recommendation_chunks_fts
		JOIN recommendation_chunks rc ON rc.chunk_id = recommendation_chunks_fts.chunk_id
		`+hitJoins+`
		WHERE recommendation_chunks_fts MATCH ?`+filter+`
		ORDER BY score ASC, rc.chunk_id ASC
		LIMIT ?`, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run full-text search", goerr.V("match", match))
	}
	return scanHits(rows)
}

func (r *chunkRepository) SubstringSearch(ctx context.Context, query model.SubstringQuery) ([]*model.SearchHit, error) {
	pattern := strings.ToLower(query.Pattern)
	if pattern == "" {
		return nil, nil
	}

	filter, filterArgs := scopeFilters(query.GuidelineIDs, query.SectionIDs)
	args := []any{query.MarkerScore, query.DefaultScore, likePattern(pattern)}
	markerClause := `0`
	if query.Marker != "" {
		markerClause = `rc.chunk_text_lower LIKE ? ESCAPE '\'`
		args = []any{likePattern(strings.ToLower(query.Marker)), query.MarkerScore, query.DefaultScore, likePattern(pattern)}
	}
	args = append(args, filterArgs...)
	args = append(args, sqlLimit(query.Limit))

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+hitColumns+`,
			CASE WHEN `+markerClause+` THEN ? ELSE ? END AS score
		FROM recommendation_chunks rc
		`+hitJoins+`
		WHERE rc.chunk_text_lower LIKE ? ESCAPE '\'`+filter+`
		ORDER BY score ASC, rc.created_at DESC, rc.chunk_id ASC
		LIMIT ?`, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run substring search")
	}
	return scanHits(rows)
}

func scanHits(rows *sql.Rows) ([]*model.SearchHit, error) {
	defer rows.Close()

	var hits []*model.SearchHit
	for rows.Next() {
		var hit model.SearchHit
		var sectionTitle, evidenceLevel, sourceAnchor sql.NullString
		var tags string
		if err := rows.Scan(&hit.ChunkID, &hit.GuidelineID, &hit.GuidelineName, &hit.SectionID,
			&sectionTitle, &hit.ChunkText, &tags, &evidenceLevel, &sourceAnchor, &hit.Score); err != nil {
			return nil, goerr.Wrap(err, "failed to scan search hit")
		}
		hit.SectionTitle = sectionTitle.String
		hit.EvidenceLevel = stringPtr(evidenceLevel)
		hit.SourceAnchor = stringPtr(sourceAnchor)
		if err := json.Unmarshal([]byte(tags), &hit.Tags); err != nil {
			hit.Tags = []string{}
		}
		hits = append(hits, &hit)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate search hits")
	}
	return hits, nil
}
