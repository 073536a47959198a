// Package main provides the schema migration CLI.
// Usage: migrate up
//        migrate down [n]
//        migrate version
//        migrate force <version>
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	m, err := newMigrator()
	if err != nil {
		fatal(err)
	}
	defer m.Close()

	switch os.Args[1] {
	case "up":
		err = m.Up()
	case "down":
		steps := 1
		if len(os.Args) > 2 {
			if steps, err = strconv.Atoi(os.Args[2]); err != nil {
				fatal(fmt.Errorf("invalid step count %q", os.Args[2]))
			}
		}
		err = m.Steps(-steps)
	case "version":
		var version uint
		var dirty bool
		version, dirty, err = m.Version()
		if err == nil {
			fmt.Printf("version: %d dirty: %v\n", version, dirty)
		}
	case "force":
		if len(os.Args) < 3 {
			fatal(errors.New("force requires a version"))
		}
		var version int
		if version, err = strconv.Atoi(os.Args[2]); err != nil {
			fatal(fmt.Errorf("invalid version %q", os.Args[2]))
		}
		err = m.Force(version)
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fatal(err)
	}

	fmt.Println("done")
}

func newMigrator() (*migrate.Migrate, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return nil, errors.New("required environment variable DATABASE_URL not set")
	}

	// The pgx/v5 driver registers under its own scheme.
	dsn = strings.Replace(dsn, "postgres://", "pgx5://", 1)
	dsn = strings.Replace(dsn, "postgresql://", "pgx5://", 1)

	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "migrations"
	}

	return migrate.New("file://"+dir, dsn)
}

func printUsage() {
	fmt.Println(`Comercia Schema Migration

Usage:
  migrate <command>

Commands:
  up         Apply all pending migrations
  down [n]   Roll back n migrations (default 1)
  version    Print current schema version
  force <v>  Set version without running migrations
  help       Show this help

Environment:
  DATABASE_URL    PostgreSQL connection string (required)
  MIGRATIONS_DIR  Migration directory (default "migrations")`)
}

func fatal(err error) {
	fmt.Printf("migrate: %v\n", err)
	os.Exit(1)
}
