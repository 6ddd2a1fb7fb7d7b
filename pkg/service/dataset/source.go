package dataset

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

const gcsScheme = "gs://"

// Dir reads dataset files from a local directory
type Dir struct {
	root string
}

var _ Source = &Dir{}

func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(d.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrNotExist, "dataset file not found", goerr.V("path", filepath.Join(d.root, name)))
		}
		return nil, goerr.Wrap(err, "failed to open dataset file", goerr.V("path", filepath.Join(d.root, name)))
	}
	return f, nil
}

func (d *Dir) String() string {
	return d.root
}

// GCS reads dataset files from objects under a Cloud Storage prefix
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

var _ Source = &GCS{}

// NewGCS creates a source for gs://bucket/prefix using application default
// credentials
func NewGCS(ctx context.Context, location string) (*GCS, error) {
	bucket, prefix, err := ParseGCSLocation(location)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}
	return &GCS{client: client, bucket: bucket, prefix: prefix}, nil
}

// ParseGCSLocation splits gs://bucket/prefix into bucket and prefix. A
// non-empty prefix always ends with a slash.
func ParseGCSLocation(location string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(location, gcsScheme)
	if !ok {
		return "", "", goerr.Wrap(ErrInvalidLocation, "location is not a gs:// URL", goerr.V("location", location))
	}

	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", goerr.Wrap(ErrInvalidLocation, "bucket name is empty", goerr.V("location", location))
	}
	prefix = strings.Trim(prefix, "/")
	if prefix != "" {
		prefix += "/"
	}
	return bucket, prefix, nil
}

func (g *GCS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := g.prefix + name
	r, err := g.client.Bucket(g.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, goerr.Wrap(ErrNotExist, "dataset object not found", goerr.V("bucket", g.bucket), goerr.V("key", key))
		}
		return nil, goerr.Wrap(err, "failed to open dataset object", goerr.V("bucket", g.bucket), goerr.V("key", key))
	}
	return r, nil
}

// List returns the object names directly under the prefix
func (g *GCS) List(ctx context.Context) ([]string, error) {
	var names []string
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: g.prefix, Delimiter: "/"})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list dataset objects", goerr.V("bucket", g.bucket), goerr.V("prefix", g.prefix))
		}
		if attrs.Name == "" {
			continue
		}
		names = append(names, strings.TrimPrefix(attrs.Name, g.prefix))
	}
	return names, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) String() string {
	return gcsScheme + g.bucket + "/" + g.prefix
}
