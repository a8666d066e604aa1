// Package pgxdbtest creates throwaway Postgres databases for acceptance tests.
package pgxdbtest

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for pgtestdb
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/stakesync/pkg/pgxdb"
)

// Config points pgtestdb at the Postgres server that hosts the test databases
type Config struct {
	User     string `env:"PGXDBTEST_USER" envDefault:"stakesync"`
	Password string `env:"PGXDBTEST_PASSWORD" envDefault:"stakesync"`
	Host     string `env:"PGXDBTEST_HOST" envDefault:"localhost"`
	Port     string `env:"PGXDBTEST_PORT" envDefault:"5432"`
	Options  string `env:"PGXDBTEST_OPTIONS" envDefault:"sslmode=disable"`
}

// ServerConfig loads the server settings from the environment
func ServerConfig() pgtestdb.Config {
	cfg := env.Must(env.ParseAs[Config]())
	return pgtestdb.Config{
		DriverName: "pgx",
		User:       cfg.User,
		Password:   cfg.Password,
		Host:       cfg.Host,
		Port:       cfg.Port,
		Options:    cfg.Options,
	}
}

// CreateTestDatabase creates a test database with migrations applied.
// Returns the connection pool and database URL for further connections.
func CreateTestDatabase(t *testing.T, migrationsDir string) (*pgxpool.Pool, string) {
	t.Helper()

	source := &migrate.FileMigrationSource{Dir: migrationsDir}
	migrationSet := &migrate.MigrationSet{TableName: "schema_migrations"}

	return Connect(t, pgtestdb.Custom(t, ServerConfig(), sqlmigrator.New(source, migrationSet)))
}

// Connect opens a small pool on a database created by pgtestdb and closes it
// when the test ends.
func Connect(t *testing.T, dbConfig *pgtestdb.Config) (*pgxpool.Pool, string) {
	t.Helper()

	dbURL := dbConfig.URL()
	t.Logf("testdbconf: %s", dbURL)

	pool, err := pgxdb.NewConnection(t.Context(), dbURL,
		pgxdb.WithPoolSize(1, 2),
		pgxdb.WithConnectTimeout(5*time.Second),
	)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool, dbURL
}
