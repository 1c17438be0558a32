package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/clinicheck/clinicheck_backend/config"
)

// InitializeDatabases creates the application database (database.dbname)
// and any extra names listed in server.databases if they don't exist.
// It connects to the default 'postgres' database to create the others.
func InitializeDatabases(ctx context.Context, cfg *config.Config) ([]string, error) {
	names := databaseNames(cfg)
	if len(names) == 0 {
		return nil, fmt.Errorf("no database names provided")
	}

	postgresConfig := FromCentralConfig(cfg.Database)
	postgresConfig.DBName = "postgres"

	conn, err := openSQLDB(postgresConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer conn.Close()

	var created []string
	for _, dbName := range names {
		ok, err := createDatabaseIfNotExists(ctx, conn, dbName)
		if err != nil {
			return created, fmt.Errorf("failed to create database %q: %w", dbName, err)
		}
		if ok {
			created = append(created, dbName)
		}
	}

	return created, nil
}

func databaseNames(cfg *config.Config) []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range append([]string{cfg.Database.DBName}, cfg.Server.Databases...) {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// createDatabaseIfNotExists reports whether it had to create dbName.
func createDatabaseIfNotExists(ctx context.Context, conn *sql.DB, dbName string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`
	if err := conn.QueryRowContext(ctx, query, dbName).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check if database exists: %w", err)
	}
	if exists {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := conn.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(dbName)); err != nil {
		return false, fmt.Errorf("failed to create database: %w", err)
	}

	return true, nil
}
