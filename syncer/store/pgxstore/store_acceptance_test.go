//go:build acceptance

package pgxstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/stakesync/pkg/pgxdb/pgxdbtest"
	"github.com/screwyprof/stakesync/syncer/store/pgxstore"
)

const migrationsDir = "../../../migrator/migrations"

func TestStoreEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("it returns the enabled endpoints of a network", func(t *testing.T) {
		t.Parallel()

		// Arrange
		db, _ := pgxdbtest.CreateTestDatabase(t, migrationsDir)
		store, closer := pgxstore.New(db)
		defer closer()

		require.NoError(t, store.SaveEndpoints(t.Context(), "mainnet", []string{"https://b.example.org", "https://a.example.org"}))
		require.NoError(t, store.SaveEndpoints(t.Context(), "testnet", []string{"https://dev.example.org"}))

		// Act
		endpoints, err := store.Endpoints(t.Context(), "mainnet")

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, endpoints)
	})

	t.Run("it skips disabled endpoints and re-enables them when saved again", func(t *testing.T) {
		t.Parallel()

		// Arrange
		db, _ := pgxdbtest.CreateTestDatabase(t, migrationsDir)
		store, closer := pgxstore.New(db)
		defer closer()
		urls := []string{"https://a.example.org", "https://b.example.org"}
		require.NoError(t, store.SaveEndpoints(t.Context(), "mainnet", urls))

		// Act
		require.NoError(t, store.DisableEndpoint(t.Context(), "mainnet", "https://a.example.org"))
		afterDisable, err := store.Endpoints(t.Context(), "mainnet")
		require.NoError(t, err)
		require.NoError(t, store.SaveEndpoints(t.Context(), "mainnet", urls))
		afterSave, err := store.Endpoints(t.Context(), "mainnet")
		require.NoError(t, err)

		// Assert
		assert.Equal(t, []string{"https://b.example.org"}, afterDisable)
		assert.Equal(t, urls, afterSave)
	})

	t.Run("it reports an unknown endpoint", func(t *testing.T) {
		t.Parallel()

		// Arrange
		db, _ := pgxdbtest.CreateTestDatabase(t, migrationsDir)
		store, closer := pgxstore.New(db)
		defer closer()

		// Act
		err := store.DisableEndpoint(t.Context(), "mainnet", "https://nowhere.example.org")

		// Assert
		require.ErrorIs(t, err, pgxstore.ErrEndpointNotFound)
	})
}
