package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/interfaces"
	"github.com/oncoguard/oncoguard/pkg/repository/memory"
	"github.com/oncoguard/oncoguard/pkg/repository/postgres"
	"github.com/oncoguard/oncoguard/pkg/repository/sqlite"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository backends
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend     string
	sqlitePath  string
	postgresURL string
	autoMigrate bool
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (memory, sqlite or postgres)",
			Category:    "Repository",
			Value:       BackendSQLite,
			Sources:     cli.EnvVars("ONCOGUARD_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "sqlite-path",
			Usage:       "SQLite database file (sqlite backend)",
			Category:    "Repository",
			Value:       "data/oncology.db",
			Sources:     cli.EnvVars("ONCOGUARD_SQLITE_PATH"),
			Destination: &r.sqlitePath,
		},
		&cli.StringFlag{
			Name:        "postgres-url",
			Usage:       "PostgreSQL connection string (postgres backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("ONCOGUARD_POSTGRES_URL"),
			Destination: &r.postgresURL,
		},
		&cli.BoolFlag{
			Name:        "auto-migrate",
			Usage:       "Create the schema on startup when it is missing",
			Category:    "Repository",
			Value:       true,
			Sources:     cli.EnvVars("ONCOGUARD_AUTO_MIGRATE"),
			Destination: &r.autoMigrate,
		},
	}
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("sqlite_path", r.sqlitePath),
		slog.Bool("postgres_url_set", r.postgresURL != ""),
		slog.Bool("auto_migrate", r.autoMigrate),
	)
}

// Open initializes a repository for the configured backend without touching
// its schema. The caller is responsible for calling Close() on it.
func (r *Repository) Open(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	case BackendSQLite:
		if r.sqlitePath == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "sqlite-path is required when using sqlite backend")
		}
		repo, err := sqlite.New(ctx, r.sqlitePath)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize sqlite repository")
		}
		logging.Default().Info("Using SQLite repository", "path", r.sqlitePath)
		return repo, nil

	case BackendPostgres:
		if r.postgresURL == "" {
			return nil, goerr.Wrap(ErrInvalidConfig, "postgres-url is required when using postgres backend")
		}
		repo, err := postgres.New(ctx, r.postgresURL)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize postgres repository")
		}
		logging.Default().Info("Using PostgreSQL repository")
		return repo, nil

	default:
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid repository backend", goerr.V("backend", r.backend))
	}
}

// Configure opens the repository and, unless disabled, migrates its schema
func (r *Repository) Configure(ctx context.Context) (interfaces.Repository, error) {
	repo, err := r.Open(ctx)
	if err != nil {
		return nil, err
	}

	if r.autoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			_ = repo.Close()
			return nil, goerr.Wrap(err, "failed to migrate repository", goerr.V("backend", r.backend))
		}
	}

	return repo, nil
}
