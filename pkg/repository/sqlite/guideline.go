package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/utils/safe"
)

type guidelineRepository struct {
	db *sql.DB
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

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction", goerr.V("guideline_id", id))
	}
	defer safe.Rollback(ctx, tx.Rollback, sql.ErrTxDone)

	var code, version sql.NullInt64
	if guideline.Code != nil {
		code = sql.NullInt64{Int64: *guideline.Code, Valid: true}
	}
	if guideline.Version != nil {
		version = sql.NullInt64{Int64: int64(*guideline.Version), Valid: true}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO guidelines (
			id, code, version, name, name_lower, publish_date, status, apply_status,
			source_url, pdf_url, is_oncology, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
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
		id, code, version, guideline.Name, strings.ToLower(guideline.Name),
		nullString(guideline.PublishDate), guideline.Status, nullString(guideline.ApplyStatus),
		guideline.SourceURL, guideline.PDFURL, guideline.IsOncology, formatTime(now),
	); err != nil {
		return goerr.Wrap(err, "failed to upsert guideline", goerr.V("guideline_id", id))
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM guideline_sections WHERE guideline_id = ?`, id); err != nil {
		return goerr.Wrap(err, "failed to delete sections", goerr.V("guideline_id", id))
	}
	for _, s := range sections {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO guideline_sections (guideline_id, section_id, section_title, section_html, section_text)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(guideline_id, section_id) DO UPDATE SET
				section_title = excluded.section_title,
				section_html = excluded.section_html,
				section_text = excluded.section_text`,
			id, s.SectionID, s.Title, s.HTML, s.Text,
		); err != nil {
			return goerr.Wrap(err, "failed to insert section",
				goerr.V("guideline_id", id), goerr.V("section_id", s.SectionID))
		}
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM recommendation_chunks_fts WHERE chunk_id IN (
			SELECT chunk_id FROM recommendation_chunks WHERE guideline_id = ?
		)`, id); err != nil {
		return goerr.Wrap(err, "failed to delete chunk index", goerr.V("guideline_id", id))
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recommendation_chunks WHERE guideline_id = ?`, id); err != nil {
		return goerr.Wrap(err, "failed to delete chunks", goerr.V("guideline_id", id))
	}

	for _, c := range chunks {
		tags, err := json.Marshal(nonNil(c.Tags))
		if err != nil {
			return goerr.Wrap(err, "failed to marshal tags", goerr.V("chunk_id", c.ChunkID))
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recommendation_chunks (
				chunk_id, guideline_id, section_id, chunk_text, chunk_text_lower,
				tags, evidence_level, source_anchor, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ChunkID, id, c.SectionID, c.Text, strings.ToLower(c.Text),
			string(tags), nullString(c.EvidenceLevel), nullString(c.SourceAnchor), formatTime(createdAt),
		); err != nil {
			return goerr.Wrap(err, "failed to insert chunk", goerr.V("chunk_id", c.ChunkID))
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommendation_chunks_fts (chunk_id, chunk_text, tags) VALUES (?, ?, ?)`,
			c.ChunkID, c.Text, strings.Join(c.Tags, " "),
		); err != nil {
			return goerr.Wrap(err, "failed to index chunk", goerr.V("chunk_id", c.ChunkID))
		}
	}

	if err := tx.Commit(); err != nil {
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
	for _, p := range patterns {
		filters = append(filters, `name_lower LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(strings.ToLower(p)))
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+guidelineColumns+` FROM guidelines
		WHERE `+strings.Join(filters, " OR ")+`
		ORDER BY publish_date DESC, id ASC`, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find guidelines by name")
	}
	return scanGuidelines(rows)
}

func (r *guidelineRepository) ListRecent(ctx context.Context, limit int, oncologyOnly bool) ([]*model.GuidelineVersion, error) {
	query := `SELECT ` + guidelineColumns + ` FROM guidelines`
	if oncologyOnly {
		query += ` WHERE is_oncology = 1`
	}
	query += ` ORDER BY publish_date DESC, id ASC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, sqlLimit(limit))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list recent guidelines")
	}
	return scanGuidelines(rows)
}

func (r *guidelineRepository) ListSources(ctx context.Context, limit int) ([]*model.GuidelineSource, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id, g.name, g.publish_date, g.status, g.source_url, g.pdf_url,
			COUNT(gs.section_id) AS section_count
		FROM guidelines g
		LEFT JOIN guideline_sections gs ON gs.guideline_id = g.id
		GROUP BY g.id
		ORDER BY g.publish_date DESC, g.id ASC
		LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list guideline sources")
	}
	defer rows.Close()

	var result []*model.GuidelineSource
	for rows.Next() {
		var src model.GuidelineSource
		var publishDate sql.NullString
		if err := rows.Scan(&src.ID, &src.Name, &publishDate, &src.Status,
			&src.SourceURL, &src.PDFURL, &src.SectionCount); err != nil {
			return nil, goerr.Wrap(err, "failed to scan guideline source")
		}
		src.PublishDate = stringPtr(publishDate)
		result = append(result, &src)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate guideline sources")
	}
	return result, nil
}

func scanGuidelines(rows *sql.Rows) ([]*model.GuidelineVersion, error) {
	defer rows.Close()

	var result []*model.GuidelineVersion
	for rows.Next() {
		var g model.GuidelineVersion
		var code, version sql.NullInt64
		var publishDate, applyStatus sql.NullString
		if err := rows.Scan(&g.ID, &code, &version, &g.Name, &publishDate, &g.Status,
			&applyStatus, &g.SourceURL, &g.PDFURL, &g.IsOncology); err != nil {
			return nil, goerr.Wrap(err, "failed to scan guideline")
		}
		if code.Valid {
			v := code.Int64
			g.Code = &v
		}
		if version.Valid {
			v := int(version.Int64)
			g.Version = &v
		}
		g.PublishDate = stringPtr(publishDate)
		g.ApplyStatus = stringPtr(applyStatus)
		result = append(result, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate guidelines")
	}
	return result, nil
}

// sqlLimit maps a non-positive limit to SQLite's "no limit"
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
