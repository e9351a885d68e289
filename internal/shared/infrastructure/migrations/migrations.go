// Package migrations applies the embedded schema for each database driver.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`

// Run applies every pending .up.sql file for the connection's driver in name
// order. Applied versions are recorded in schema_migrations.
func Run(ctx context.Context, conn database.Connection) error {
	dir := string(conn.Driver())
	names, err := upFiles(dir)
	if err != nil {
		return err
	}

	if _, err := conn.Exec(ctx, createVersionTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return err
	}

	uow := database.NewUnitOfWork(conn)
	for _, name := range names {
		version := strings.TrimSuffix(name, ".up.sql")
		if applied[version] {
			continue
		}
		body, err := files.ReadFile(dir + "/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := apply(ctx, conn, uow, version, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// Pending lists the migrations that Run would apply.
func Pending(ctx context.Context, conn database.Connection) ([]string, error) {
	names, err := upFiles(string(conn.Driver()))
	if err != nil {
		return nil, err
	}
	if _, err := conn.Exec(ctx, createVersionTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := appliedVersions(ctx, conn)
	if err != nil {
		return nil, err
	}
	pending := []string{}
	for _, name := range names {
		if version := strings.TrimSuffix(name, ".up.sql"); !applied[version] {
			pending = append(pending, version)
		}
	}
	return pending, nil
}

func upFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(files, dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations for %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func appliedVersions(ctx context.Context, conn database.Connection) (map[string]bool, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, conn database.Connection, uow *database.UnitOfWork, version, body string) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	exec := database.ExecutorFromContext(txCtx, conn)

	if _, err := exec.Exec(txCtx, body); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}
	if _, err := exec.Exec(txCtx, insertVersion(conn.Driver()), version); err != nil {
		_ = uow.Rollback(txCtx)
		return err
	}
	return uow.Commit(txCtx)
}

func insertVersion(driver database.Driver) string {
	if driver == database.DriverPostgres {
		return `INSERT INTO schema_migrations (version) VALUES ($1)`
	}
	return `INSERT INTO schema_migrations (version) VALUES (?)`
}
