package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Applies SQL files from internal/migrations in lexical order, tracking what
// has run in schema_migrations so re-runs are safe.
func main() {
	apply := flag.Bool("apply", false, "apply pending migrations (default: list)")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		log.Fatalf("ensure schema_migrations: %v", err)
	}

	migDir := filepath.Join("internal", "migrations")
	entries, err := os.ReadDir(migDir)
	if err != nil {
		log.Fatalf("read migrations dir: %v", err)
	}

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var done bool
		err := db.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)", name).Scan(&done)
		if err != nil {
			log.Fatalf("check %s: %v", name, err)
		}
		if done {
			fmt.Printf("%-40s applied\n", name)
			continue
		}
		if !*apply {
			fmt.Printf("%-40s pending\n", name)
			continue
		}

		sql, err := os.ReadFile(filepath.Join(migDir, name))
		if err != nil {
			log.Fatalf("read %s: %v", name, err)
		}
		if _, err := db.Exec(ctx, string(sql)); err != nil {
			log.Fatalf("apply %s: %v", name, err)
		}
		if _, err := db.Exec(ctx, "INSERT INTO schema_migrations (name) VALUES ($1)", name); err != nil {
			log.Fatalf("record %s: %v", name, err)
		}
		fmt.Printf("%-40s applied now\n", name)
	}
}
