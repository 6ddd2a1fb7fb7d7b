// Package postgres implements the repository on PostgreSQL using a tsvector
// index for full-text ranking.
package postgres

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
)

var (
	ErrNotFound      = goerr.New("not found")
	ErrAlreadyExists = goerr.New("already exists")
)

type Postgres struct {
	pool *pgxpool.Pool

	migrateMu sync.Mutex
	migrated  bool

	guideline     *guidelineRepository
	chunk         *chunkRepository
	validationRun *validationRunRepository
	benchmark     *benchmarkRepository
	trialsCache   *trialsCacheRepository
}

var _ interfaces.Repository = &Postgres{}

func New(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to connect postgres")
	}

	return &Postgres{
		pool:          pool,
		guideline:     &guidelineRepository{pool: pool},
		chunk:         &chunkRepository{pool: pool},
		validationRun: &validationRunRepository{pool: pool},
		benchmark:     &benchmarkRepository{pool: pool},
		trialsCache:   &trialsCacheRepository{pool: pool},
	}, nil
}

func (p *Postgres) Guideline() interfaces.GuidelineRepository {
	return p.guideline
}

func (p *Postgres) Chunk() interfaces.ChunkRepository {
	return p.chunk
}

func (p *Postgres) ValidationRun() interfaces.ValidationRunRepository {
	return p.validationRun
}

func (p *Postgres) Benchmark() interfaces.BenchmarkRepository {
	return p.benchmark
}

func (p *Postgres) TrialsCache() interfaces.TrialsCacheRepository {
	return p.trialsCache
}

// Migrate creates the schema once per handle
func (p *Postgres) Migrate(ctx context.Context) error {
	p.migrateMu.Lock()
	defer p.migrateMu.Unlock()

	if p.migrated {
		return nil
	}
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return goerr.Wrap(err, "failed to migrate postgres schema")
	}
	p.migrated = true
	return nil
}

func (p *Postgres) Counts(ctx context.Context) (*model.StoreCounts, error) {
	var counts model.StoreCounts
	if err := p.pool.QueryRow(ctx, `SELECT
		(SELECT COUNT(*) FROM guidelines),
		(SELECT COUNT(*) FROM recommendation_chunks)`,
	).Scan(&counts.Guidelines, &counts.Chunks); err != nil {
		return nil, goerr.Wrap(err, "failed to count guidelines")
	}
	return &counts, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// likePattern escapes LIKE wildcards in s and wraps it in %...%
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// sqlLimit maps a non-positive limit to no limit (LIMIT NULL)
func sqlLimit(limit int) *int {
	if limit <= 0 {
		return nil
	}
	return &limit
}
