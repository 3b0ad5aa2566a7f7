// ABOUTME: Maintenance utility for the leadledger database
// ABOUTME: Backs up the file, brings the schema up to date and purges a single import batch
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"slices"
	"time"

	"github.com/harperreed/leadledger/db"
	_ "github.com/mattn/go-sqlite3"
)

type options struct {
	dbPath     string
	dryRun     bool
	backup     bool
	purgeBatch string
}

func main() {
	var opts options
	flag.StringVar(&opts.dbPath, "db", "", "Path to database file (required)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Show what would happen without making changes")
	flag.BoolVar(&opts.backup, "backup", true, "Create backup before changing anything")
	flag.StringVar(&opts.purgeBatch, "purge-batch", "", "Delete every row written by this import batch ID")
	flag.Parse()

	if opts.dbPath == "" {
		log.Fatal("Error: -db flag is required")
	}

	if err := migrate(context.Background(), opts); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migration completed successfully")
}

func migrate(ctx context.Context, opts options) error {
	if _, err := os.Stat(opts.dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", opts.dbPath)
	}

	database, err := sql.Open("sqlite3", opts.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	tables, err := getCurrentTables(ctx, database)
	if err != nil {
		return fmt.Errorf("failed to get current tables: %w", err)
	}
	log.Printf("Current tables: %v", tables)
	missing := missingTables(tables)

	if opts.dryRun {
		log.Printf("[DRY RUN] Would perform the following actions:")
		if len(missing) > 0 {
			log.Printf("[DRY RUN] - Create tables: %v", missing)
		} else {
			log.Printf("[DRY RUN] - Schema is up to date")
		}
		if opts.purgeBatch != "" {
			log.Printf("[DRY RUN] - Purge import batch %s", opts.purgeBatch)
		}
		return nil
	}

	if opts.backup {
		backupPath, err := backupFile(opts.dbPath, time.Now())
		if err != nil {
			return err
		}
		log.Printf("Backup created: %s", backupPath)
	}

	if err := db.InitSchema(database); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	if len(missing) > 0 {
		log.Printf("Created tables: %v", missing)
	}

	if opts.purgeBatch != "" {
		n, err := db.DeleteBatch(ctx, database, opts.purgeBatch)
		if err != nil {
			return err
		}
		log.Printf("Purged batch %s: %d rows removed", opts.purgeBatch, n)
	}
	return nil
}

func backupFile(path string, now time.Time) (string, error) {
	backupPath := fmt.Sprintf("%s.backup.%s", path, now.Format("20060102-150405"))
	input, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read database: %w", err)
	}
	if err := os.WriteFile(backupPath, input, 0644); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	return backupPath, nil
}

func getCurrentTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}

	return tables, rows.Err()
}

// missingTables lists the store tables not present in existing.
func missingTables(existing []string) []string {
	var missing []string
	for _, t := range db.Tables {
		if !slices.Contains(existing, t) {
			missing = append(missing, t)
		}
	}
	return missing
}
