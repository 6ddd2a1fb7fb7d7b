package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

type chunkRepository struct {
	pool *pgxpool.Pool
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

// tsQuery builds a prefix disjunction "t1:* | t2:*" from normalized terms
func tsQuery(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		t = strings.Map(func(r rune) rune {
			switch r {
			case '\'', '&', '|', '!', ':', '(', ')', '*', '<', '>', '\\', ' ':
				return -1
			}
			return r
		}, t)
		if t == "" {
			continue
		}
		parts = append(parts, t+":*")
	}
	return strings.Join(parts, " | ")
}

// scopeFilters appends guideline and section filters starting at
// placeholder index next
func scopeFilters(guidelineIDs, sectionIDs []string, next int) (string, []any, int) {
	var filter string
	var args []any
	if len(guidelineIDs) > 0 {
		filter += fmt.Sprintf(` AND rc.guideline_id = ANY($%d)`, next)
		args = append(args, guidelineIDs)
		next++
	}
	if len(sectionIDs) > 0 {
		filter += fmt.Sprintf(` AND rc.section_id = ANY($%d)`, next)
		args = append(args, sectionIDs)
		next++
	}
	return filter, args, next
}

// FullTextSearch ranks with ts_rank_cd. The rank is negated so lower is
// better like the other stores.
func (r *chunkRepository) FullTextSearch(ctx context.Context, query model.FullTextQuery) ([]*model.SearchHit, error) {
	q := tsQuery(query.Terms)
	if q == "" {
		return nil, nil
	}

	filter, filterArgs, next := scopeFilters(query.GuidelineIDs, query.SectionIDs, 2)
	args := append([]any{q}, filterArgs...)
	args = append(args, sqlLimit(query.Limit))

	rows, err := r.pool.Query(ctx, `
		SELECT `+hitColumns+`,
			-ts_rank_cd(rc.search_tsv, to_tsquery('simple', $1))::float8 AS score
		FROM recommendation_chunks rc
		`+hitJoins+`
		WHERE rc.search_tsv @@ to_tsquery('simple', $1)`+filter+`
		ORDER BY score ASC, rc.chunk_id ASC
		LIMIT $`+fmt.Sprint(next), args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run full-text search", goerr.V("tsquery", q))
	}
	return scanHits(rows)
}

func (r *chunkRepository) SubstringSearch(ctx context.Context, query model.SubstringQuery) ([]*model.SearchHit, error) {
	pattern := strings.ToLower(query.Pattern)
	if pattern == "" {
		return nil, nil
	}

	args := []any{likePattern(pattern), query.MarkerScore, query.DefaultScore}
	next := 4
	markerClause := `FALSE`
	if marker := strings.ToLower(query.Marker); marker != "" {
		markerClause = fmt.Sprintf(`rc.chunk_text_lower LIKE $%d`, next)
		args = append(args, likePattern(marker))
		next++
	}
	filter, filterArgs, next := scopeFilters(query.GuidelineIDs, query.SectionIDs, next)
	args = append(args, filterArgs...)
	args = append(args, sqlLimit(query.Limit))

	rows, err := r.pool.Query(ctx, `
		SELECT `+hitColumns+`,
			(CASE WHEN `+markerClause+` THEN $2 ELSE $3 END)::float8 AS score
		FROM recommendation_chunks rc
		`+hitJoins+`
		WHERE rc.chunk_text_lower LIKE $1`+filter+`
		ORDER BY score ASC, rc.created_at DESC, rc.chunk_id ASC
		LIMIT $`+fmt.Sprint(next), args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to run substring search")
	}
	return scanHits(rows)
}

func scanHits(rows pgx.Rows) ([]*model.SearchHit, error) {
	defer rows.Close()

	var hits []*model.SearchHit
	for rows.Next() {
		var hit model.SearchHit
		var sectionTitle *string
		if err := rows.Scan(&hit.ChunkID, &hit.GuidelineID, &hit.GuidelineName, &hit.SectionID,
			&sectionTitle, &hit.ChunkText, &hit.Tags, &hit.EvidenceLevel, &hit.SourceAnchor, &hit.Score); err != nil {
			return nil, goerr.Wrap(err, "failed to scan search hit")
		}
		if sectionTitle != nil {
			hit.SectionTitle = *sectionTitle
		}
		if hit.Tags == nil {
			hit.Tags = []string{}
		}
		hits = append(hits, &hit)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate search hits")
	}
	return hits, nil
}
