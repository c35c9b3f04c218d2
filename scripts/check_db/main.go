package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"pottery-store/internal/config"
	"pottery-store/internal/database"
)

// check_db connects with the application's configuration, applies the schema
// and prints row counts for each store table.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully connected to database: %s\n", dbName)

	if err := database.Migrate(ctx, pool, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Schema migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nTable row counts:")
	for _, table := range []string{"categories", "products", "orders", "order_items", "refunds"} {
		var count int
		if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count); err != nil {
			fmt.Fprintf(os.Stderr, "Count on %s failed: %v\n", table, err)
			os.Exit(1)
		}
		fmt.Printf("  - %-12s %d\n", table, count)
	}
}
