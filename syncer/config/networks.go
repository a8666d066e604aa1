package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/screwyprof/stakesync/staking"
	"github.com/screwyprof/stakesync/syncer"
)

// Sentinel errors for the networks file
var (
	ErrNetworksFile   = errors.New("invalid networks file")
	ErrUnknownNetwork = errors.New("unknown network")
)

// Network is one entry of the networks file
type Network struct {
	Name      string    `yaml:"-"`
	Endpoints []string  `yaml:"endpoints"`
	Contracts Contracts `yaml:"contracts"`
}

// Contracts lists the contract addresses of a network
type Contracts struct {
	Staking      string `yaml:"staking"`
	VaultFactory string `yaml:"vault_factory"`
	Token        string `yaml:"token"`
}

// Syncer converts the contract addresses for the state reader
func (c Contracts) Syncer() syncer.Contracts {
	return syncer.Contracts{Staking: c.Staking, VaultFactory: c.VaultFactory, Token: c.Token}
}

// EndpointSource lists the endpoints registered for a network
type EndpointSource interface {
	Endpoints(ctx context.Context, network string) ([]string, error)
}

// ResolveEndpoints returns the endpoints of the network, read from src when one
// is given and from the networks file otherwise.
func (n Network) ResolveEndpoints(ctx context.Context, src EndpointSource) ([]string, error) {
	if src == nil {
		return n.Endpoints, nil
	}
	endpoints, err := src.Endpoints(ctx, n.Name)
	if err != nil {
		return nil, fmt.Errorf("reading endpoints of %s: %w", n.Name, err)
	}
	return endpoints, nil
}

// Networks maps a network name to its endpoints and contracts
type Networks map[string]Network

// LoadNetworks reads and validates the networks file at path
func LoadNetworks(path string) (Networks, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworksFile, err)
	}
	return ParseNetworks(data)
}

// ParseNetworks decodes a networks document. Contract addresses are normalised;
// the staking contract is mandatory, the vault factory and token are not.
func ParseNetworks(data []byte) (Networks, error) {
	var doc struct {
		Networks map[string]Network `yaml:"networks"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworksFile, err)
	}
	if len(doc.Networks) == 0 {
		return nil, fmt.Errorf("%w: no networks defined", ErrNetworksFile)
	}

	out := make(Networks, len(doc.Networks))
	for name, n := range doc.Networks {
		n.Name = name

		stakingAddr, err := normalize(name, "staking", n.Contracts.Staking, true)
		if err != nil {
			return nil, err
		}
		vaultFactory, err := normalize(name, "vault_factory", n.Contracts.VaultFactory, false)
		if err != nil {
			return nil, err
		}
		token, err := normalize(name, "token", n.Contracts.Token, false)
		if err != nil {
			return nil, err
		}
		n.Contracts = Contracts{Staking: stakingAddr, VaultFactory: vaultFactory, Token: token}

		out[name] = n
	}
	return out, nil
}

// Get returns the network called name
func (n Networks) Get(name string) (Network, error) {
	network, ok := n[name]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q (known: %v)", ErrUnknownNetwork, name, n.Names())
	}
	return network, nil
}

// Names returns the sorted network names
func (n Networks) Names() []string {
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func normalize(network, contract, addr string, required bool) (string, error) {
	if addr == "" {
		if required {
			return "", fmt.Errorf("%w: network %s has no %s contract", ErrNetworksFile, network, contract)
		}
		return "", nil
	}
	normalized, err := staking.NormalizeAddress(addr)
	if err != nil {
		return "", fmt.Errorf("%w: network %s %s contract: %w", ErrNetworksFile, network, contract, err)
	}
	return normalized, nil
}
