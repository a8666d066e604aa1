package migratortest

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/peterldowns/pgtestdb"

	"github.com/screwyprof/stakesync/migrator"
	"github.com/screwyprof/stakesync/pkg/pgxdb/pgxdbtest"
	"github.com/screwyprof/stakesync/syncer/config"
)

// CreateSchemaTestDatabase creates a test database with an empty endpoint registry
func CreateSchemaTestDatabase(t *testing.T, migrationsDir string) *pgxpool.Pool {
	t.Helper()

	return createTestDatabaseWithMigrator(t, migrator.NewSchemaMigrator(migrationsDir))
}

// CreateSeededTestDatabase creates a test database whose endpoint registry
// holds the endpoints of networks
func CreateSeededTestDatabase(t *testing.T, migrationsDir string, networks config.Networks) *pgxpool.Pool {
	t.Helper()

	return createTestDatabaseWithMigrator(t, migrator.NewSeededMigrator(migrationsDir, networks))
}

func createTestDatabaseWithMigrator(t *testing.T, m pgtestdb.Migrator) *pgxpool.Pool {
	t.Helper()

	pool, _ := pgxdbtest.Connect(t, pgtestdb.Custom(t, pgxdbtest.ServerConfig(), m))
	return pool
}
