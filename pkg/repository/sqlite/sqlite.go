// Package sqlite implements the repository on an embedded SQLite database
// with an FTS5 index over evidence chunks.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound      = goerr.New("not found")
	ErrAlreadyExists = goerr.New("already exists")
)

// timeLayout is fixed width so that text ordering equals time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type SQLite struct {
	db *sql.DB

	migrateMu sync.Mutex
	migrated  bool

	guideline     *guidelineRepository
	chunk         *chunkRepository
	validationRun *validationRunRepository
	benchmark     *benchmarkRepository
	trialsCache   *trialsCacheRepository
}

var _ interfaces.Repository = &SQLite{}

// New opens (and creates when missing) the database file at path. The schema
// is not touched until Migrate is called.
func New(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("path", path))
		}
	}

	dsn := "file:" + path + "?" + strings.Join([]string{
		"_pragma=foreign_keys(1)",
		"_pragma=journal_mode(WAL)",
		"_pragma=busy_timeout(5000)",
	}, "&")
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to connect sqlite database", goerr.V("path", path))
	}

	return &SQLite{
		db:            db,
		guideline:     &guidelineRepository{db: db},
		chunk:         &chunkRepository{db: db},
		validationRun: &validationRunRepository{db: db},
		benchmark:     &benchmarkRepository{db: db},
		trialsCache:   &trialsCacheRepository{db: db},
	}, nil
}

func (s *SQLite) Guideline() interfaces.GuidelineRepository {
	return s.guideline
}

func (s *SQLite) Chunk() interfaces.ChunkRepository {
	return s.chunk
}

func (s *SQLite) ValidationRun() interfaces.ValidationRunRepository {
	return s.validationRun
}

func (s *SQLite) Benchmark() interfaces.BenchmarkRepository {
	return s.benchmark
}

func (s *SQLite) TrialsCache() interfaces.TrialsCacheRepository {
	return s.trialsCache
}

// Migrate creates the schema once per handle
func (s *SQLite) Migrate(ctx context.Context) error {
	s.migrateMu.Lock()
	defer s.migrateMu.Unlock()

	if s.migrated {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return goerr.Wrap(err, "failed to migrate sqlite schema")
	}
	s.migrated = true
	return nil
}

func (s *SQLite) Counts(ctx context.Context) (*model.StoreCounts, error) {
	var counts model.StoreCounts
	row := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM guidelines),
		(SELECT COUNT(*) FROM recommendation_chunks)`)
	if err := row.Scan(&counts.Guidelines, &counts.Chunks); err != nil {
		return nil, goerr.Wrap(err, "failed to count guidelines")
	}
	return &counts, nil
}

func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return goerr.Wrap(err, "failed to close sqlite database")
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return model.ParseDate(s)
	}
	return t
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// likePattern escapes LIKE wildcards in s and wraps it in %...%
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// placeholders returns "?,?,?" for n values
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
