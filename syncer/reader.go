package syncer

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/screwyprof/stakesync/staking"
)

// Contracts are the addresses the reader works against
type Contracts struct {
	Staking      string
	VaultFactory string
	Token        string
}

// Fetcher reads sub-states and the chain height
type Fetcher interface {
	FetchSubState(ctx context.Context, contract, field string, indices ...string) (staking.SubState, error)
	LatestBlock(ctx context.Context) (uint64, error)
}

// ReaderOption configures the Reader
type ReaderOption func(*Reader)

// WithNodeConcurrency bounds the per-node reward reads of one delegator
func WithNodeConcurrency(n int) ReaderOption {
	return func(r *Reader) { r.nodeConcurrency = max(n, 1) }
}

// Reader turns sub-state reads into derived views.
//
// Reads of delegator-scoped entries that a delegator may never have written
// (deposits, buffered deposits, claims, pending withdrawals) are optional: when
// they exhaust their retries the entry is treated as absent. All other reads are
// required and their errors are returned.
type Reader struct {
	q               Fetcher
	contracts       Contracts
	nodeConcurrency int
}

// NewReader constructs a Reader over the given contracts
func NewReader(q Fetcher, contracts Contracts, opts ...ReaderOption) *Reader {
	r := &Reader{
		q:               q,
		contracts:       contracts,
		nodeConcurrency: DefaultNodeConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LandingStats reads the network-wide figures
func (r *Reader) LandingStats(ctx context.Context) (staking.LandingStats, error) {
	var (
		snaps staking.LandingSnapshots
		err   error
	)

	if snaps.TotalStake, err = r.required(ctx, staking.FieldTotalStakeAmount); err != nil {
		return staking.LandingStats{}, err
	}
	if snaps.SSNList, err = r.required(ctx, staking.FieldSSNList); err != nil {
		return staking.LandingStats{}, err
	}
	if snaps.LastRewardCycle, err = r.required(ctx, staking.FieldLastRewardCycle); err != nil {
		return staking.LandingStats{}, err
	}
	if snaps.MinDelegStake, err = r.required(ctx, staking.FieldMinDelegStake); err != nil {
		return staking.LandingStats{}, err
	}

	return staking.ParseLandingStats(snaps)
}

// OperatorStats reads the node operated from ssn
func (r *Reader) OperatorStats(ctx context.Context, ssn string) (staking.OperatorStats, error) {
	ssn, err := staking.NormalizeAddress(ssn)
	if err != nil {
		return staking.OperatorStats{}, err
	}

	ssnList, err := r.required(ctx, staking.FieldSSNList, ssn)
	if err != nil {
		return staking.OperatorStats{}, err
	}
	delegAmt, err := r.optional(ctx, r.contracts.Staking, staking.FieldSSNDelegAmt, ssn)
	if err != nil {
		return staking.OperatorStats{}, err
	}

	return staking.ParseOperatorStats(ssn, ssnList, delegAmt)
}

// DelegatorReward computes the unclaimed reward of deleg at ssn
func (r *Reader) DelegatorReward(ctx context.Context, ssn, deleg string) (staking.Amount, error) {
	ssn, err := staking.NormalizeAddress(ssn)
	if err != nil {
		return staking.Amount{}, err
	}
	deleg, err = staking.NormalizeAddress(deleg)
	if err != nil {
		return staking.Amount{}, err
	}

	snaps, err := r.delegatorRewardSnapshots(ctx, deleg)
	if err != nil {
		return staking.Amount{}, err
	}
	return r.nodeReward(ctx, ssn, deleg, snaps)
}

// PendingWithdrawals reads the delegator's pending withdrawals with their progress
// and the current block they were measured against.
func (r *Reader) PendingWithdrawals(ctx context.Context, deleg string) ([]staking.WithdrawalProgress, uint64, error) {
	deleg, err := staking.NormalizeAddress(deleg)
	if err != nil {
		return nil, 0, err
	}
	return r.withdrawals(ctx, deleg)
}

// DelegatorStats reads everything a delegator sees about its own stake
func (r *Reader) DelegatorStats(ctx context.Context, deleg string) (staking.DelegatorStats, error) {
	deleg, err := staking.NormalizeAddress(deleg)
	if err != nil {
		return staking.DelegatorStats{}, err
	}

	depositState, err := r.optional(ctx, r.contracts.Staking, staking.FieldDepositAmtDeleg, deleg)
	if err != nil {
		return staking.DelegatorStats{}, err
	}
	deposits, err := staking.ParseDeposits(depositState, deleg)
	if err != nil {
		return staking.DelegatorStats{}, err
	}

	snaps, err := r.delegatorRewardSnapshots(ctx, deleg)
	if err != nil {
		return staking.DelegatorStats{}, err
	}
	lastRewardCycle, err := snaps.LastRewardCycle.Uint(staking.FieldLastRewardCycle)
	if err != nil {
		return staking.DelegatorStats{}, err
	}
	buffered, err := staking.ParseBufferedDeposits(snaps.BufferedDeposits, deleg, lastRewardCycle)
	if err != nil {
		return staking.DelegatorStats{}, err
	}

	nodes := slices.Sorted(maps.Keys(deposits))
	for node := range buffered {
		if _, ok := deposits[node]; !ok {
			nodes = append(nodes, node)
		}
	}

	positions, err := r.nodePositions(ctx, deleg, nodes, deposits, buffered, snaps)
	if err != nil {
		return staking.DelegatorStats{}, err
	}

	withdrawals, currentBlock, err := r.withdrawals(ctx, deleg)
	if err != nil {
		return staking.DelegatorStats{}, err
	}

	return staking.NewDelegatorStats(deleg, positions, withdrawals, currentBlock), nil
}

// OwnedVaults reads the vaults owned by owner
func (r *Reader) OwnedVaults(ctx context.Context, owner string) (map[staking.VaultID]string, error) {
	if r.contracts.VaultFactory == "" {
		return nil, ErrNoVaultFactory
	}
	owner, err := staking.NormalizeAddress(owner)
	if err != nil {
		return nil, err
	}

	s, err := r.q.FetchSubState(ctx, r.contracts.VaultFactory, staking.FieldOwnedVaults, owner)
	if err != nil {
		return nil, err
	}
	return staking.ParseOwnedVaults(s, owner)
}

// NativeBalance reads the native balance held by a contract
func (r *Reader) NativeBalance(ctx context.Context, contract string) (staking.Amount, error) {
	s, err := r.q.FetchSubState(ctx, contract, staking.FieldBalance)
	if err != nil {
		return staking.Amount{}, err
	}
	return s.Amount(staking.FieldBalance)
}

// TokenBalance reads the derivative-token balance of holder
func (r *Reader) TokenBalance(ctx context.Context, holder string) (staking.Amount, error) {
	if r.contracts.Token == "" {
		return staking.Amount{}, nil
	}
	holder, err := staking.NormalizeAddress(holder)
	if err != nil {
		return staking.Amount{}, err
	}

	s, err := r.optional(ctx, r.contracts.Token, staking.FieldBalances, holder)
	if err != nil {
		return staking.Amount{}, err
	}
	return s.Amount(staking.FieldBalances, holder)
}

func (r *Reader) nodePositions(
	ctx context.Context,
	deleg string,
	nodes []string,
	deposits, buffered map[string]staking.Amount,
	snaps staking.RewardSnapshots,
) ([]staking.NodeDeposit, error) {
	var (
		mu        sync.Mutex
		positions = make([]staking.NodeDeposit, 0, len(nodes))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.nodeConcurrency)
	for _, node := range nodes {
		g.Go(func() error {
			reward, err := r.nodeReward(gctx, node, deleg, snaps)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			positions = append(positions, staking.NodeDeposit{
				Node:            node,
				Deposit:         deposits[node],
				BufferedDeposit: buffered[node],
				Reward:          reward,
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return positions, nil
}

func (r *Reader) nodeReward(ctx context.Context, ssn, deleg string, snaps staking.RewardSnapshots) (staking.Amount, error) {
	nodeCycles, err := r.required(ctx, staking.FieldStakeSSNPerCycle, ssn)
	if err != nil {
		return staking.Amount{}, err
	}
	snaps.NodeCycles = nodeCycles

	ledger, err := staking.ParseRewardLedger(ssn, deleg, snaps)
	if err != nil {
		return staking.Amount{}, err
	}
	return staking.ComputeDelegatorReward(ledger), nil
}

// delegatorRewardSnapshots reads the ledger entries shared by every node of deleg
func (r *Reader) delegatorRewardSnapshots(ctx context.Context, deleg string) (staking.RewardSnapshots, error) {
	var (
		snaps staking.RewardSnapshots
		err   error
	)

	if snaps.LastRewardCycle, err = r.required(ctx, staking.FieldLastRewardCycle); err != nil {
		return snaps, err
	}

	optional := []struct {
		field string
		dst   *staking.SubState
	}{
		{staking.FieldLastWithdrawCycleDeleg, &snaps.LastWithdrawCycle},
		{staking.FieldLastBufDepositCycle, &snaps.LastBufDepositCycle},
		{staking.FieldDirectDepositDeleg, &snaps.DirectDeposits},
		{staking.FieldBuffDepositDeleg, &snaps.BufferedDeposits},
		{staking.FieldDelegStakePerCycle, &snaps.StakeHistory},
	}
	for _, o := range optional {
		if *o.dst, err = r.optional(ctx, r.contracts.Staking, o.field, deleg); err != nil {
			return snaps, err
		}
	}

	return snaps, nil
}

func (r *Reader) withdrawals(ctx context.Context, deleg string) ([]staking.WithdrawalProgress, uint64, error) {
	pendingState, err := r.optional(ctx, r.contracts.Staking, staking.FieldWithdrawalPending, deleg)
	if err != nil {
		return nil, 0, err
	}
	pending, err := staking.ParsePendingWithdrawals(pendingState, deleg)
	if err != nil {
		return nil, 0, err
	}

	bnumReq, err := r.required(ctx, staking.FieldBNumReq)
	if err != nil {
		return nil, 0, err
	}
	delta, err := bnumReq.Uint(staking.FieldBNumReq)
	if err != nil {
		return nil, 0, err
	}

	latest, err := r.q.LatestBlock(ctx)
	if err != nil {
		return nil, 0, err
	}
	current := staking.CurrentBlock(latest)

	return staking.ComputeWithdrawals(pending, delta, current), current, nil
}

func (r *Reader) required(ctx context.Context, field string, indices ...string) (staking.SubState, error) {
	return r.q.FetchSubState(ctx, r.contracts.Staking, field, indices...)
}

func (r *Reader) optional(ctx context.Context, contract, field string, indices ...string) (staking.SubState, error) {
	s, err := r.q.FetchSubState(ctx, contract, field, indices...)
	if errors.Is(err, ErrRetriesExhausted) {
		return staking.SubState{}, nil
	}
	return s, err
}
