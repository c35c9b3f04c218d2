package bulkupload

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"pottery-store/internal/model"

	"github.com/shopspring/decimal"
)

// Column names, compared case-insensitively.
const (
	colName        = "name"
	colDescription = "description"
	colPrice       = "price"
	colStock       = "stock"
	colCategoryID  = "categoryid"
	colHeight      = "height"
	colWidth       = "width"
	colDepth       = "depth"
	colDiameter    = "diameter"
	colWeight      = "weight"
	colColors      = "colors"
	colImageURL    = "imageurl"
)

var requiredColumns = []string{colName, colDescription, colPrice, colStock, colCategoryID}

// Parse reads a product CSV. A missing or incomplete header fails the whole file;
// a bad data row is reported in Result.Errors and parsing continues.
func Parse(ctx context.Context, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, model.NewValidationError("file", "CSV file is empty")
		}
		return nil, model.NewValidationError("file", "invalid CSV header: %v", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		columns[key] = i
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := columns[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, model.NewValidationError("file", "missing required columns: %s", strings.Join(missing, ", "))
	}

	result := &Result{Rows: []Row{}, Errors: []model.RowError{}}
	rowNumber := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNumber++

		if rowNumber%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Errors = append(result.Errors, model.RowError{Row: rowNumber, Message: parseErr.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		if isBlank(record) {
			continue
		}

		product, err := parseRecord(record, columns)
		if err != nil {
			result.Errors = append(result.Errors, model.RowError{Row: rowNumber, Message: err.Error()})
			continue
		}

		result.Rows = append(result.Rows, Row{Number: rowNumber, Product: product})
	}

	return result, nil
}

func parseRecord(record []string, columns map[string]int) (model.ProductRequest, error) {
	field := func(col string) string {
		i, ok := columns[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	req := model.ProductRequest{
		Name:        field(colName),
		Description: field(colDescription),
		CategoryID:  field(colCategoryID),
		ImageURL:    field(colImageURL),
		Colors:      splitColors(field(colColors)),
	}

	price, err := decimal.NewFromString(field(colPrice))
	if err != nil {
		return req, fmt.Errorf("invalid price %q", field(colPrice))
	}
	req.Price = price

	stock, err := strconv.Atoi(field(colStock))
	if err != nil {
		return req, fmt.Errorf("invalid stock %q", field(colStock))
	}
	req.Stock = stock

	dims := []struct {
		col  string
		dest **float64
	}{
		{colHeight, &req.Dimensions.Height},
		{colWidth, &req.Dimensions.Width},
		{colDepth, &req.Dimensions.Depth},
		{colDiameter, &req.Dimensions.Diameter},
		{colWeight, &req.Dimensions.Weight},
	}
	for _, d := range dims {
		raw := field(d.col)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return req, fmt.Errorf("invalid %s %q", d.col, raw)
		}
		*d.dest = &v
	}

	if err := req.Validate(); err != nil {
		return req, err
	}

	return req, nil
}

// splitColors splits a comma-joined colour list, dropping empty entries.
func splitColors(raw string) []string {
	colors := []string{}
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			colors = append(colors, c)
		}
	}
	return colors
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
