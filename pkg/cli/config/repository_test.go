package config_test

import (
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/cli/config"
)

func TestRepository_Configure(t *testing.T) {
	t.Run("memory backend", func(t *testing.T) {
		cfg := config.NewRepositoryForTest(config.BackendMemory, "", true)
		repo, err := cfg.Configure(t.Context())
		gt.NoError(t, err).Required()
		defer repo.Close()

		counts, err := repo.Counts(t.Context())
		gt.NoError(t, err).Required()
		gt.N(t, counts.Guidelines).Equal(0)
	})

	t.Run("sqlite backend migrates on startup", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "db", "oncology.db")
		cfg := config.NewRepositoryForTest(config.BackendSQLite, path, true)
		repo, err := cfg.Configure(t.Context())
		gt.NoError(t, err).Required()
		defer repo.Close()

		counts, err := repo.Counts(t.Context())
		gt.NoError(t, err).Required()
		gt.N(t, counts.Chunks).Equal(0)
	})

	t.Run("sqlite backend requires a path", func(t *testing.T) {
		cfg := config.NewRepositoryForTest(config.BackendSQLite, "", true)
		_, err := cfg.Configure(t.Context())
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("postgres backend requires a url", func(t *testing.T) {
		cfg := config.NewRepositoryForTest(config.BackendPostgres, "", true)
		_, err := cfg.Configure(t.Context())
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.NewRepositoryForTest("firestore", "", true)
		_, err := cfg.Configure(t.Context())
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})
}
