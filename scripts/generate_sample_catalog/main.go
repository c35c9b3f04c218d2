package main

import (
	"compress/gzip"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// generateSampleCatalog writes sample product CSVs for the bulk import endpoint.
// catalog.csv is plain; catalog.csv.gz holds the same rows gzipped.
// The "Broken Teapot" row has an invalid price and is reported as a row error.
func main() {
	dataDir := "data/uploads"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	header := []string{"name", "description", "price", "stock", "categoryId", "height", "diameter", "weight", "colors"}
	rows := [][]string{
		{"Speckled Mug", "Wheel-thrown mug with speckled glaze", "24.90", "12", "mugs", "9.5", "8", "320", "cream,brown"},
		{"Ash Glaze Mug", "Wood-fired mug", "32.00", "6", "mugs", "10", "8.5", "350", "green"},
		{"Moon Jar", "Large white porcelain jar", "420.00", "1", "vases", "38", "36", "4200", "white"},
		{"Bud Vase", "Small vase for a single stem", "18.50", "20", "vases", "12", "5", "210", "blue,white"},
		{"Serving Bowl", "Stoneware bowl", "55.00", "4", "bowls", "9", "26", "1100", ""},
		{"Broken Teapot", "Row with an invalid price", "n/a", "1", "teapots", "", "", "", ""},
	}

	plainPath := filepath.Join(dataDir, "catalog.csv")
	if err := writeFile(plainPath, false, header, rows); err != nil {
		log.Fatalf("Failed to create %s: %v", plainPath, err)
	}
	fmt.Printf("Created %s with %d rows\n", plainPath, len(rows))

	gzPath := filepath.Join(dataDir, "catalog.csv.gz")
	if err := writeFile(gzPath, true, header, rows); err != nil {
		log.Fatalf("Failed to create %s: %v", gzPath, err)
	}
	fmt.Printf("Created %s with %d rows\n", gzPath, len(rows))

	fmt.Println("\nCategories referenced: mugs, vases, bowls, teapots")
	fmt.Println("Create them first with POST /api/admin/categories, then import with:")
	fmt.Println(`  curl -X POST -H "X-API-Key: $ADMIN_KEY" -d '{"key":"catalog.csv"}' localhost:8080/api/admin/products/bulk/import`)
}

func writeFile(path string, compress bool, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	var w io.Writer = file
	if compress {
		gzipWriter := gzip.NewWriter(file)
		defer gzipWriter.Close()
		w = gzipWriter
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}

	return nil
}
