// Package dataset loads labeled benchmark scenarios from a local directory or
// a Cloud Storage prefix.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/domain/types"
	"github.com/oncoguard/oncoguard/pkg/utils/logging"
	"github.com/oncoguard/oncoguard/pkg/utils/safe"
)

var (
	// ErrNotExist is returned by a Source when the named file is absent
	ErrNotExist = goerr.New("dataset file does not exist")

	// ErrInvalidLocation is returned for malformed dataset locations
	ErrInvalidLocation = goerr.New("invalid dataset location")
)

// Source opens dataset files by name
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// lister is implemented by sources that can enumerate their files
type lister interface {
	List(ctx context.Context) ([]string, error)
}

// Loader reads the scenario files of every dataset from a Source
type Loader struct {
	source Source
}

func NewLoader(source Source) *Loader {
	return &Loader{source: source}
}

// Open returns a Loader for location, which is either a local directory or
// gs://bucket/prefix
func Open(ctx context.Context, location string) (*Loader, error) {
	if strings.HasPrefix(location, gcsScheme) {
		src, err := NewGCS(ctx, location)
		if err != nil {
			return nil, err
		}
		return NewLoader(src), nil
	}
	return NewLoader(NewDir(location)), nil
}

// LoadScenarios reads retrospective, synthetic and literature scenarios in
// that order. Missing files are skipped. Scenarios without a dataset tag get
// the tag of their file.
func (l *Loader) LoadScenarios(ctx context.Context) ([]*model.BenchmarkScenario, error) {
	var scenarios []*model.BenchmarkScenario

	present, err := l.present(ctx)
	if err != nil {
		return nil, err
	}

	for _, ds := range types.AllDatasets() {
		if present != nil && !present[ds.FileName()] {
			continue
		}
		loaded, err := l.load(ctx, ds)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, loaded...)
	}

	if scenarios == nil {
		scenarios = []*model.BenchmarkScenario{}
	}
	return scenarios, nil
}

// present returns the file names a listing source holds, or nil when the
// source cannot list
func (l *Loader) present(ctx context.Context) (map[string]bool, error) {
	ls, ok := l.source.(lister)
	if !ok {
		return nil, nil
	}
	names, err := ls.List(ctx)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(names))
	for _, name := range names {
		present[name] = true
	}
	return present, nil
}

// Close releases the underlying source
func (l *Loader) Close() error {
	if c, ok := l.source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (l *Loader) load(ctx context.Context, ds types.Dataset) ([]*model.BenchmarkScenario, error) {
	r, err := l.source.Open(ctx, ds.FileName())
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			logging.From(ctx).Debug("dataset file not found, skipping",
				slog.String("dataset", ds.String()),
				slog.String("source", l.source.String()),
			)
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to open dataset file", goerr.V("dataset", ds))
	}
	defer safe.Close(ctx, r)

	var scenarios []*model.BenchmarkScenario
	if err := json.NewDecoder(r).Decode(&scenarios); err != nil {
		return nil, goerr.Wrap(err, "failed to decode dataset file",
			goerr.V("dataset", ds),
			goerr.V("source", l.source.String()))
	}

	for _, s := range scenarios {
		if s.Dataset == "" {
			s.Dataset = ds
		}
		if err := s.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid scenario in dataset", goerr.V("dataset", ds))
		}
		s.CaseInput.Normalize()
	}
	return scenarios, nil
}
