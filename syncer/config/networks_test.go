package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/stakesync/syncer"
	"github.com/screwyprof/stakesync/syncer/config"
)

const networksDoc = `
networks:
  mainnet:
    endpoints:
      - https://api.zilliqa.com
      - https://ssn.example.org
    contracts:
      staking: A7C67D49C82C7DC1B73D231640B2CF5BE0B4D5B3
      vault_factory: 0x9B4C6D5B3F0A1E2D7C8F6A5B4C3D2E1F0A9B8C7D
  testnet:
    endpoints: [https://dev-api.zilliqa.com]
    contracts:
      staking: 0x26f70a1c4b1e78d1e85e0a0b4a4b5f1b7f1e1a2d
`

func TestParseNetworks(t *testing.T) {
	t.Parallel()

	t.Run("it normalises contract addresses", func(t *testing.T) {
		t.Parallel()

		// Act
		networks, err := config.ParseNetworks([]byte(networksDoc))

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []string{"mainnet", "testnet"}, networks.Names())

		mainnet, err := networks.Get("mainnet")
		require.NoError(t, err)
		assert.Equal(t, "mainnet", mainnet.Name)
		assert.Equal(t, []string{"https://api.zilliqa.com", "https://ssn.example.org"}, mainnet.Endpoints)
		assert.Equal(t, syncer.Contracts{
			Staking:      "0xa7c67d49c82c7dc1b73d231640b2cf5be0b4d5b3",
			VaultFactory: "0x9b4c6d5b3f0a1e2d7c8f6a5b4c3d2e1f0a9b8c7d",
		}, mainnet.Contracts.Syncer())
	})

	t.Run("it rejects a network without a staking contract", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := config.ParseNetworks([]byte("networks:\n  devnet:\n    endpoints: [http://localhost:4201]\n"))

		// Assert
		require.ErrorIs(t, err, config.ErrNetworksFile)
	})

	t.Run("it rejects a malformed contract address", func(t *testing.T) {
		t.Parallel()

		// Act
		_, err := config.ParseNetworks([]byte("networks:\n  devnet:\n    contracts:\n      staking: zil1xyz\n"))

		// Assert
		require.ErrorIs(t, err, config.ErrNetworksFile)
	})

	t.Run("it rejects an empty document", func(t *testing.T) {
		t.Parallel()

		_, err := config.ParseNetworks([]byte("networks: {}\n"))

		require.ErrorIs(t, err, config.ErrNetworksFile)
	})
}

func TestNetworksGet(t *testing.T) {
	t.Parallel()

	// Arrange
	networks, err := config.ParseNetworks([]byte(networksDoc))
	require.NoError(t, err)

	// Act
	_, err = networks.Get("devnet")

	// Assert
	require.ErrorIs(t, err, config.ErrUnknownNetwork)
}

func TestLoadNetworks(t *testing.T) {
	t.Parallel()

	t.Run("it reads the file from disk", func(t *testing.T) {
		t.Parallel()

		// Arrange
		path := filepath.Join(t.TempDir(), "networks.yaml")
		require.NoError(t, os.WriteFile(path, []byte(networksDoc), 0o600))

		// Act
		networks, err := config.LoadNetworks(path)

		// Assert
		require.NoError(t, err)
		assert.Len(t, networks, 2)
	})

	t.Run("it reports a missing file", func(t *testing.T) {
		t.Parallel()

		_, err := config.LoadNetworks(filepath.Join(t.TempDir(), "missing.yaml"))

		require.ErrorIs(t, err, config.ErrNetworksFile)
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestResolveEndpoints(t *testing.T) {
	t.Parallel()

	networks, err := config.ParseNetworks([]byte(networksDoc))
	require.NoError(t, err)
	testnet, err := networks.Get("testnet")
	require.NoError(t, err)

	t.Run("it uses the file without a registry", func(t *testing.T) {
		t.Parallel()

		endpoints, err := testnet.ResolveEndpoints(t.Context(), nil)

		require.NoError(t, err)
		assert.Equal(t, []string{"https://dev-api.zilliqa.com"}, endpoints)
	})

	t.Run("it prefers the registry", func(t *testing.T) {
		t.Parallel()

		// Arrange
		src := registry{"testnet": {"https://a.example.org"}}

		// Act
		endpoints, err := testnet.ResolveEndpoints(t.Context(), src)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, []string{"https://a.example.org"}, endpoints)
	})

	t.Run("it reports a failing registry", func(t *testing.T) {
		t.Parallel()

		_, err := testnet.ResolveEndpoints(t.Context(), failingRegistry{})

		require.ErrorIs(t, err, errRegistryDown)
	})
}

var errRegistryDown = errors.New("registry down")

type registry map[string][]string

func (r registry) Endpoints(_ context.Context, network string) ([]string, error) {
	return r[network], nil
}

type failingRegistry struct{}

func (failingRegistry) Endpoints(context.Context, string) ([]string, error) {
	return nil, errRegistryDown
}
