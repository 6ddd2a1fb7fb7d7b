package dataset_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/oncoguard/oncoguard/pkg/domain/model"
	"github.com/oncoguard/oncoguard/pkg/domain/types"
	"github.com/oncoguard/oncoguard/pkg/service/dataset"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600)).Required()
}

const scenarioJSON = `[
  {
    "id": "%s",
    "title": "Сценарий",
    "expected_status": "compliant",
    "expected_mismatch": false,
    "case_input": {"diagnosis": "Рак желудка", "as_of_date": "2025-01-15", "current_plan": ["Гастрэктомия"]}
  }
]`

func scenarios(id string) string {
	return fmt.Sprintf(scenarioJSON, id)
}

func TestLoaderDir(t *testing.T) {
	ctx := context.Background()

	t.Run("merges datasets in order and skips missing files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "literature.json", scenarios("lit-1"))
		writeFile(t, dir, "retrospective.json", scenarios("retro-1"))

		loaded, err := dataset.NewLoader(dataset.NewDir(dir)).LoadScenarios(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, loaded).Length(2).Required()
		gt.V(t, loaded[0].ID).Equal("retro-1")
		gt.V(t, loaded[0].Dataset).Equal(types.DatasetRetrospective)
		gt.V(t, loaded[1].ID).Equal("lit-1")
		gt.V(t, loaded[1].Dataset).Equal(types.DatasetLiterature)
		gt.A(t, loaded[0].CaseInput.Biomarkers).Length(0)
		gt.B(t, loaded[0].CaseInput.Biomarkers != nil).True()
	})

	t.Run("empty directory yields no scenarios", func(t *testing.T) {
		loaded, err := dataset.NewLoader(dataset.NewDir(t.TempDir())).LoadScenarios(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, loaded).Length(0)
	})

	t.Run("explicit dataset tag is kept", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "synthetic.json", `[{"id":"s1","dataset":"literature","expected_status":"review_required","expected_mismatch":true,"case_input":{"diagnosis":"Рак легкого","as_of_date":"2024-01-01"}}]`)

		loaded, err := dataset.NewLoader(dataset.NewDir(dir)).LoadScenarios(ctx)
		gt.NoError(t, err).Required()
		gt.A(t, loaded).Length(1).Required()
		gt.V(t, loaded[0].Dataset).Equal(types.DatasetLiterature)
		gt.B(t, loaded[0].ExpectedMismatch).True()
	})

	t.Run("malformed JSON fails", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "synthetic.json", `{"not":"an array"`)

		_, err := dataset.NewLoader(dataset.NewDir(dir)).LoadScenarios(ctx)
		gt.Error(t, err)
	})

	t.Run("invalid scenario fails", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "synthetic.json", `[{"id":"s1","expected_status":"unknown","case_input":{"diagnosis":"Рак","as_of_date":"2024-01-01"}}]`)

		_, err := dataset.NewLoader(dataset.NewDir(dir)).LoadScenarios(ctx)
		gt.Error(t, err).Is(model.ErrInvalidScenario)
	})
}

type listingSource struct {
	files  map[string]string
	opened []string
}

func (s *listingSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	s.opened = append(s.opened, name)
	body, ok := s.files[name]
	if !ok {
		return nil, dataset.ErrNotExist
	}
	return io.NopCloser(bytes.NewBufferString(body)), nil
}

func (s *listingSource) List(ctx context.Context) ([]string, error) {
	var names []string
	for name := range s.files {
		names = append(names, name)
	}
	return names, nil
}

func (s *listingSource) String() string { return "listing" }

func TestLoaderListingSource(t *testing.T) {
	src := &listingSource{files: map[string]string{"synthetic.json": scenarios("syn-1")}}

	loaded, err := dataset.NewLoader(src).LoadScenarios(context.Background())
	gt.NoError(t, err).Required()
	gt.A(t, loaded).Length(1)
	gt.A(t, src.opened).Equal([]string{"synthetic.json"})
}

func TestParseGCSLocation(t *testing.T) {
	testCases := []struct {
		name     string
		location string
		bucket   string
		prefix   string
		wantErr  bool
	}{
		{name: "bucket only", location: "gs://bench", bucket: "bench", prefix: ""},
		{name: "bucket with slash", location: "gs://bench/", bucket: "bench", prefix: ""},
		{name: "nested prefix", location: "gs://bench/data/benchmark", bucket: "bench", prefix: "data/benchmark/"},
		{name: "trailing slash prefix", location: "gs://bench/v1/", bucket: "bench", prefix: "v1/"},
		{name: "missing bucket", location: "gs:///v1", wantErr: true},
		{name: "not gcs", location: "/tmp/bench", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bucket, prefix, err := dataset.ParseGCSLocation(tc.location)
			if tc.wantErr {
				gt.Error(t, err).Is(dataset.ErrInvalidLocation)
				return
			}
			gt.NoError(t, err).Required()
			gt.V(t, bucket).Equal(tc.bucket)
			gt.V(t, prefix).Equal(tc.prefix)
		})
	}
}

func TestLoaderGCS(t *testing.T) {
	location := os.Getenv("TEST_GCS_DATASET")
	if location == "" {
		t.Skip("TEST_GCS_DATASET is not set")
	}

	ctx := context.Background()
	loader, err := dataset.Open(ctx, location)
	gt.NoError(t, err).Required()
	defer func() { gt.NoError(t, loader.Close()) }()

	loaded, err := loader.LoadScenarios(ctx)
	gt.NoError(t, err).Required()
	for _, s := range loaded {
		gt.B(t, s.Dataset.IsValid()).True()
	}
}
