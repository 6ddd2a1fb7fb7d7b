package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/oncoguard/oncoguard/pkg/utils/safe"
)

// readJSON decodes a JSON file. "-" reads standard input.
func readJSON(ctx context.Context, path string, out any) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		// #nosec G304 - path is provided by CLI argument
		f, err := os.Open(path)
		if err != nil {
			return goerr.Wrap(err, "failed to open input file", goerr.V("path", path))
		}
		defer safe.Close(ctx, f)
		r = f
	}

	if err := json.NewDecoder(r).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode input file", goerr.V("path", path))
	}
	return nil
}

// readText reads a whole text file. "-" reads standard input.
func readText(ctx context.Context, path string) (string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		// #nosec G304 - path is provided by CLI argument
		f, err := os.Open(path)
		if err != nil {
			return "", goerr.Wrap(err, "failed to open input file", goerr.V("path", path))
		}
		defer safe.Close(ctx, f)
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", goerr.Wrap(err, "failed to read input file", goerr.V("path", path))
	}
	return string(data), nil
}

// writeJSON writes v as indented JSON to path, or to w when path is empty
func writeJSON(ctx context.Context, w io.Writer, path string, v any) error {
	if path != "" {
		// #nosec G304 - path is provided by CLI argument
		f, err := os.Create(path)
		if err != nil {
			return goerr.Wrap(err, "failed to create output file", goerr.V("path", path))
		}
		defer safe.Close(ctx, f)
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to write output")
	}
	return nil
}
