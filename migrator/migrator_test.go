package migrator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/stakesync/migrator"
	"github.com/screwyprof/stakesync/syncer/config"
)

const migrationsDir = "migrations"

const networksDoc = `
networks:
  mainnet:
    endpoints: [https://api.zilliqa.com, https://ssn.example.org]
    contracts:
      staking: 0xa7c67d49c82c7dc1b73d231640b2cf5be0b4d5b3
  testnet:
    endpoints: [https://dev-api.zilliqa.com]
    contracts:
      staking: 0x26f70a1c4b1e78d1e85e0a0b4a4b5f1b7f1e1a2d
`

func TestMigratorHash(t *testing.T) {
	t.Parallel()

	t.Run("it distinguishes schema-only from seeded templates", func(t *testing.T) {
		t.Parallel()

		// Arrange
		networks, err := config.ParseNetworks([]byte(networksDoc))
		require.NoError(t, err)

		// Act
		schema, err := migrator.NewSchemaMigrator(migrationsDir).Hash()
		require.NoError(t, err)
		seeded, err := migrator.NewSeededMigrator(migrationsDir, networks).Hash()
		require.NoError(t, err)

		// Assert
		assert.Contains(t, schema, "schema_only_")
		assert.Contains(t, seeded, "seeded_endpoints_")
	})

	t.Run("it changes the seeded hash with the endpoints", func(t *testing.T) {
		t.Parallel()

		// Arrange
		networks, err := config.ParseNetworks([]byte(networksDoc))
		require.NoError(t, err)
		other, err := config.ParseNetworks([]byte(networksDoc))
		require.NoError(t, err)
		mainnet := other["mainnet"]
		mainnet.Endpoints = []string{"https://api.zilliqa.com"}
		other["mainnet"] = mainnet

		// Act
		a, err := migrator.NewSeededMigrator(migrationsDir, networks).Hash()
		require.NoError(t, err)
		b, err := migrator.NewSeededMigrator(migrationsDir, other).Hash()
		require.NoError(t, err)

		// Assert
		assert.NotEqual(t, a, b)
	})
}
