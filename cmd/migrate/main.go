package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/flyover/internal/pkg/config"
	"github.com/samirrijal/flyover/migrations"
)

const versionTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|status>")
	}

	cfg, err := config.Load("flyover-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, versionTable); err != nil {
		log.Fatalf("create schema_migrations: %v", err)
	}

	ups, downs, err := listMigrations(migrations.FS)
	if err != nil {
		log.Fatalf("list migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		migrateUp(ctx, pool, ups)
	case "down":
		migrateDown(ctx, pool, downs)
	case "status":
		printStatus(ctx, pool, ups)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

// listMigrations returns up files in version order and down files keyed by
// the up file they revert.
func listMigrations(fsys fs.FS) ([]string, map[string]string, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, nil, err
	}
	var ups []string
	downs := make(map[string]string)
	for _, n := range names {
		if strings.HasSuffix(n, ".down.sql") {
			downs[strings.TrimSuffix(n, ".down.sql")+".sql"] = n
			continue
		}
		ups = append(ups, n)
	}
	sort.Strings(ups)
	return ups, downs, nil
}

func applied(ctx context.Context, pool *pgxpool.Pool) map[string]bool {
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		log.Fatalf("read schema_migrations: %v", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		log.Fatalf("read schema_migrations: %v", err)
	}
	done := make(map[string]bool, len(versions))
	for _, v := range versions {
		done[v] = true
	}
	return done
}

func migrateUp(ctx context.Context, pool *pgxpool.Pool, ups []string) {
	done := applied(ctx, pool)
	n := 0
	for _, f := range ups {
		if done[f] {
			continue
		}
		data, err := fs.ReadFile(migrations.FS, f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}
		err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(data)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, f)
			return err
		})
		if err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}
		fmt.Printf("OK  %s\n", f)
		n++
	}
	log.Printf("%d migrations applied", n)
}

// migrateDown reverts the most recent applied migration. Migrations without
// a down file (extensions) stay in place.
func migrateDown(ctx context.Context, pool *pgxpool.Pool, downs map[string]string) {
	var last string
	err := pool.QueryRow(ctx, `SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&last)
	if err == pgx.ErrNoRows {
		log.Println("nothing to revert")
		return
	}
	if err != nil {
		log.Fatalf("read schema_migrations: %v", err)
	}
	down, ok := downs[last]
	if !ok {
		log.Fatalf("%s has no down migration", last)
	}
	data, err := fs.ReadFile(migrations.FS, down)
	if err != nil {
		log.Fatalf("read %s: %v", down, err)
	}
	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, string(data)); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, last)
		return err
	})
	if err != nil {
		log.Fatalf("exec %s: %v", down, err)
	}
	fmt.Printf("OK  %s\n", down)
}

func printStatus(ctx context.Context, pool *pgxpool.Pool, ups []string) {
	done := applied(ctx, pool)
	for _, f := range ups {
		state := "pending"
		if done[f] {
			state = "applied"
		}
		fmt.Printf("%-8s %s\n", state, f)
	}
}
