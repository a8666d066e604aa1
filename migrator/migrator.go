// Package migrator applies the endpoint registry schema and seeds it from the
// networks file.
package migrator

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"

	"github.com/screwyprof/stakesync/pkg/pgxdb"
	"github.com/screwyprof/stakesync/syncer/config"
	"github.com/screwyprof/stakesync/syncer/store/pgxstore"
)

// Migration constants
const (
	migrationsTableName = "schema_migrations"
	schemaHashPrefix    = "schema_only_"
	seededHashPrefix    = "seeded_endpoints_"
)

// Migration-related errors
var (
	ErrMigrationExecution = errors.New("migration execution failed")
	ErrSeedEndpoints      = errors.New("endpoint seeding failed")
)

// SchemaMigrator applies only database schema migrations
type SchemaMigrator struct {
	migrationsDir string
}

// NewSchemaMigrator creates a migrator that applies schema migrations only
func NewSchemaMigrator(migrationsDir string) *SchemaMigrator {
	return &SchemaMigrator{migrationsDir: migrationsDir}
}

func (m *SchemaMigrator) Hash() (string, error) {
	baseHash, err := schemaHash(m.migrationsDir)
	if err != nil {
		return "", err
	}
	return schemaHashPrefix + baseHash, nil
}

func (m *SchemaMigrator) Migrate(_ context.Context, db *sql.DB, _ pgtestdb.Config) error {
	return applyMigrations(db, m.migrationsDir)
}

// SeededMigrator applies the schema and registers the endpoints of every network
type SeededMigrator struct {
	migrationsDir string
	networks      config.Networks
}

// NewSeededMigrator creates a migrator that applies schema + seeds endpoints
func NewSeededMigrator(migrationsDir string, networks config.Networks) *SeededMigrator {
	return &SeededMigrator{migrationsDir: migrationsDir, networks: networks}
}

// Hash changes whenever the schema or the seeded endpoints change, so pgtestdb
// builds a fresh template for a different networks file.
func (m *SeededMigrator) Hash() (string, error) {
	baseHash, err := schemaHash(m.migrationsDir)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	for _, name := range m.networks.Names() {
		h.Write([]byte(name + "=" + strings.Join(m.networks[name].Endpoints, ",") + ";"))
	}
	return seededHashPrefix + baseHash + "_" + hex.EncodeToString(h.Sum(nil))[:16], nil
}

func (m *SeededMigrator) Migrate(ctx context.Context, db *sql.DB, conf pgtestdb.Config) error {
	if err := applyMigrations(db, m.migrationsDir); err != nil {
		return err
	}

	pool, err := pgxdb.NewConnection(ctx, conf.URL())
	if err != nil {
		return err
	}
	defer pool.Close()

	return SeedEndpoints(ctx, pool, m.networks)
}

// ApplyMigrations applies database migrations using sql-migrate with the provided pgx pool
func ApplyMigrations(pool *pgxpool.Pool, migrationsDir string) error {
	// sql-migrate works on database/sql
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return applyMigrations(db, migrationsDir)
}

// SeedEndpoints registers the endpoints of every network. Existing rows are
// re-enabled; rows missing from the file are left alone.
func SeedEndpoints(ctx context.Context, pool *pgxpool.Pool, networks config.Networks) error {
	store, _ := pgxstore.New(pool)

	for _, name := range networks.Names() {
		endpoints := networks[name].Endpoints
		if err := store.SaveEndpoints(ctx, name, endpoints); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrSeedEndpoints, name, err)
		}
		slog.InfoContext(ctx, "Seeded RPC endpoints",
			slog.String("network", name),
			slog.Int("count", len(endpoints)),
		)
	}
	return nil
}

func schemaHash(migrationsDir string) (string, error) {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	hash, err := sqlmigrator.New(source, migrationSet).Hash()
	if err != nil {
		return "", fmt.Errorf("failed to calculate migration hash for %s: %w", migrationsDir, err)
	}
	return hash, nil
}

// applyMigrations applies database migrations using sql-migrate
func applyMigrations(db *sql.DB, migrationsDir string) error {
	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: migrationsTableName}

	_, err := migrationSet.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}
	return nil
}
