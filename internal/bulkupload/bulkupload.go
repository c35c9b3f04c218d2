// Package bulkupload reads product CSV files from a request body, the local
// file system or S3 and turns them into validated product requests.
package bulkupload

import (
	"context"

	"pottery-store/internal/model"
)

// Row is a CSV row that parsed and validated successfully.
// Number is 1-based and counts the header as row 1.
type Row struct {
	Number  int
	Product model.ProductRequest
}

// Result holds the outcome of parsing one CSV file.
type Result struct {
	Rows   []Row
	Errors []model.RowError
}

// Loader fetches a CSV file by key and parses it.
type Loader interface {
	// Load reads the file stored under key. Keys ending in .gz are gunzipped.
	Load(ctx context.Context, key string) (*Result, error)
}
