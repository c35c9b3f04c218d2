package bulkupload

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pottery-store/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for CSV files under a local directory.
type fileLoader struct {
	dir    string
	logger zerolog.Logger
}

// NewFileLoader creates a loader that reads keys relative to dir.
func NewFileLoader(dir string, logger zerolog.Logger) Loader {
	return &fileLoader{
		dir:    dir,
		logger: logger.With().Str("component", "csv-file-loader").Logger(),
	}
}

// Load reads and parses the CSV file stored under key.
func (l *fileLoader) Load(ctx context.Context, key string) (*Result, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}

	l.logger.Info().Str("file", path).Msg("loading product CSV")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open product CSV")
		return nil, fmt.Errorf("failed to open product CSV %s: %w", key, err)
	}
	defer file.Close()

	result, err := parseStream(ctx, file, key)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to parse product CSV")
		return nil, err
	}

	l.logger.Info().
		Str("file", path).
		Int("rows", len(result.Rows)).
		Int("row_errors", len(result.Errors)).
		Msg("product CSV loaded successfully")

	return result, nil
}

// resolve maps key to a path inside the loader's directory.
func (l *fileLoader) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if key == "" || clean == "/" {
		return "", model.NewValidationError("key", "key is required")
	}
	return filepath.Join(l.dir, clean), nil
}

// parseStream parses r, gunzipping it first when key ends in .gz.
func parseStream(ctx context.Context, r io.Reader, key string) (*Result, error) {
	if strings.HasSuffix(strings.ToLower(key), ".gz") {
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", key, err)
		}
		defer gzipReader.Close()
		r = gzipReader
	}

	return Parse(ctx, r)
}
