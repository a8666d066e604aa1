package syncer

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/screwyprof/stakesync/staking"
)

// VaultReader reads the pieces of a vault view
type VaultReader interface {
	OwnedVaults(ctx context.Context, owner string) (map[staking.VaultID]string, error)
	DelegatorStats(ctx context.Context, deleg string) (staking.DelegatorStats, error)
	NativeBalance(ctx context.Context, contract string) (staking.Amount, error)
	TokenBalance(ctx context.Context, holder string) (staking.Amount, error)
}

// VaultOption configures the VaultAggregator
type VaultOption func(*VaultAggregator)

// WithVaultConcurrency bounds how many vaults are read at once
func WithVaultConcurrency(n int) VaultOption {
	return func(a *VaultAggregator) { a.concurrency = max(n, 1) }
}

// WithVaultMetrics counts vaults reported as failed
func WithVaultMetrics(m *Metrics) VaultOption {
	return func(a *VaultAggregator) { a.metrics = m }
}

// VaultAggregator reads every vault of an owner and merges them into one map.
//
// The key set of the result is always the set of owned vault ids: a vault whose
// reads failed is reported with zero figures instead of being left out.
type VaultAggregator struct {
	reader      VaultReader
	concurrency int
	metrics     *Metrics
}

// NewVaultAggregator constructs a VaultAggregator
func NewVaultAggregator(reader VaultReader, opts ...VaultOption) *VaultAggregator {
	a := &VaultAggregator{
		reader:      reader,
		concurrency: DefaultVaultConcurrency,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate returns the view of every vault owned by owner. Only a failure to
// list the vaults, or cancellation, is returned as an error.
func (a *VaultAggregator) Aggregate(ctx context.Context, owner string) (map[staking.VaultID]staking.VaultView, error) {
	vaults, err := a.reader.OwnedVaults(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing vaults of %s: %w", owner, err)
	}

	ids := slices.Sorted(maps.Keys(vaults))
	views := make([]staking.VaultView, len(ids))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			views[i] = a.vault(ctx, id, vaults[id])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make(map[staking.VaultID]staking.VaultView, len(views))
	for _, v := range views {
		if v.Failed {
			a.metrics.vaultFailed()
		}
		result[v.ID] = v
	}
	return result, nil
}

func (a *VaultAggregator) vault(ctx context.Context, id staking.VaultID, address string) staking.VaultView {
	stats, err := a.reader.DelegatorStats(ctx, address)
	if err != nil {
		return staking.FailedVaultView(id, address, err)
	}
	native, err := a.reader.NativeBalance(ctx, address)
	if err != nil {
		return staking.FailedVaultView(id, address, err)
	}
	token, err := a.reader.TokenBalance(ctx, address)
	if err != nil {
		return staking.FailedVaultView(id, address, err)
	}

	return staking.VaultView{
		ID:            id,
		Address:       address,
		Stats:         stats,
		NativeBalance: native,
		TokenBalance:  token,
	}
}
