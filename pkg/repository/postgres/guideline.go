package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/utils/safe"
)

type guidelineRepository struct {
	pool *pgxpool.Pool
}

const guidelineColumns = `id, code, version, name, publish_date, status, apply_status, source_url, pdf_url, is_oncology`

func (r *guidelineRepository) Save(ctx context.Context, guideline *model.GuidelineVersion, sections []*model.GuidelineSection, chunks []*model.EvidenceChunk) error {
	if err := guideline.Validate(); err != nil {
		return goerr.Wrap(err, "failed to save guideline")
	}
	if err := model.CheckChunkIDs(chunks); err != nil {
		return goerr.Wrap(err, "failed to save guideline", goerr.V(model.GuidelineIDKey, guideline.ID))
	}
	id := guideline.ID
	now := time.Now().UTC()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction", goerr.V("guideline_id", id))
	}
	defer safe.Rollback(ctx, func() error { return tx.Rollback(ctx) }, pgx.ErrTxClosed)

	if _, err := tx.Exec(ctx, `
		INSERT INTO guidelines (
			id, code, version, name, name_lower, publish_date, status, apply_status,
			source_url, pdf_url, is_oncology
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			code = excluded.code,
			version = excluded.version,
			name = excluded.name,
			name_lower = excluded.name_lower,
			publish_date = excluded.publish_date,
			status = excluded.status,
			apply_status = excluded.apply_status,
			source_url = excluded.source_url,
			pdf_url = excluded.pdf_url,
			is_oncology = excluded.is_oncology`,
		id, guideline.Code, guideline.Version, guideline.Name, strings.ToLower(guideline.Name),
		guideline.PublishDate, guideline.Status, guideline.ApplyStatus,
		guideline.SourceURL, guideline.PDFURL, guideline.IsOncology,
	); err != nil {
		return goerr.Wrap(err, "failed to upsert guideline", goerr.V("guideline_id", id))
	}

	if _, err := tx.Exec(ctx, `DELETE FROM guideline_sections WHERE guideline_id = $1`, id); err != nil {
		return goerr.Wrap(err, "failed to delete sections", goerr.V("guideline_id", id))
	}
	for _, s := range sections {
		if _, err := tx.Exec(ctx, `
			INSERT INTO guideline_sections (guideline_id, section_id, section_title, section_html, section_text)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (guideline_id, section_id) DO UPDATE SET
				section_title = excluded.section_title,
				section_html = excluded.section_html,
				section_text = excluded.section_text`,
			id, s.SectionID, s.Title, s.HTML, s.Text,
		); err != nil {
			return goerr.Wrap(err, "failed to insert section",
				goerr.V("guideline_id", id), goerr.V("section_id", s.SectionID))
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM recommendation_chunks WHERE guideline_id = $1`, id); err != nil {
		return goerr.Wrap(err, "failed to delete chunks", goerr.V("guideline_id", id))
	}
	for _, c := range chunks {
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		tags := c.Tags
		if tags == nil {
			tags = []string{}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO recommendation_chunks (
				chunk_id, guideline_id, section_id, chunk_text, chunk_text_lower,
				tags, evidence_level, source_anchor, search_tsv, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
				to_tsvector('simple', $5 || ' ' || array_to_string($6::text[], ' ')), $9)`,
			c.ChunkID, id, c.SectionID, c.Text, strings.ToLower(c.Text),
			tags, c.EvidenceLevel, c.SourceAnchor, createdAt,
		); err != nil {
			return goerr.Wrap(err, "failed to insert chunk", goerr.V("chunk_id", c.ChunkID))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return goerr.Wrap(err, "failed to commit guideline", goerr.V("guideline_id", id))
	}
	return nil
}

func (r *guidelineRepository) FindByName(ctx context.Context, patterns []string) ([]*model.GuidelineVersion, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	filters := make([]string, 0, len(patterns))
	args := make([]any, 0, len(patterns))
	for i, p := range patterns {
		filters = append(filters, fmt.Sprintf(`name_lower LIKE $%d`, i+1))
		args = append(args, likePattern(strings.ToLower(p)))
	}

	rows, err := r.pool.Query(ctx, `SELECT `+guidelineColumns+` FROM guidelines
		WHERE `+strings.Join(filters, " OR ")+`
		ORDER BY publish_date DESC NULLS LAST, id ASC`, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find guidelines by name")
	}
	return scanGuidelines(rows)
}

func (r *guidelineRepository) ListRecent(ctx context.Context, limit int, oncologyOnly bool) ([]*model.GuidelineVersion, error) {
	query := `SELECT ` + guidelineColumns + ` FROM guidelines`
	if oncologyOnly {
		query += ` WHERE is_oncology`
	}
	query += ` ORDER BY publish_date DESC NULLS LAST, id ASC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, sqlLimit(limit))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list recent guidelines")
	}
	return scanGuidelines(rows)
}

func (r *guidelineRepository) ListSources(ctx context.Context, limit int) ([]*model.GuidelineSource, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.name, g.publish_date, g.status, g.source_url, g.pdf_url,
			COUNT(gs.section_id) AS section_count
		FROM guidelines g
		LEFT JOIN guideline_sections gs ON gs.guideline_id = g.id
		GROUP BY g.id
		ORDER BY g.publish_date DESC NULLS LAST, g.id ASC
		LIMIT $1`, sqlLimit(limit))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list guideline sources")
	}
	defer rows.Close()

	var result []*model.GuidelineSource
	for rows.Next() {
		var src model.GuidelineSource
		var sectionCount int64
		if err := rows.Scan(&src.ID, &src.Name, &src.PublishDate, &src.Status,
			&src.SourceURL, &src.PDFURL, &sectionCount); err != nil {
			return nil, goerr.Wrap(err, "failed to scan guideline source")
		}
		src.SectionCount = int(sectionCount)
		result = append(result, &src)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate guideline sources")
	}
	return result, nil
}

func scanGuidelines(rows pgx.Rows) ([]*model.GuidelineVersion, error) {
	defer rows.Close()

	var result []*model.GuidelineVersion
	for rows.Next() {
		var g model.GuidelineVersion
		if err := rows.Scan(&g.ID, &g.Code, &g.Version, &g.Name, &g.PublishDate, &g.Status,
			&g.ApplyStatus, &g.SourceURL, &g.PDFURL, &g.IsOncology); err != nil {
			return nil, goerr.Wrap(err, "failed to scan guideline")
		}
		result = append(result, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate guidelines")
	}
	return result, nil
}
