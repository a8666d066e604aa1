package staking

import (
	"cmp"
	"slices"
)

// LandingStats are network-wide figures shown to every visitor
type LandingStats struct {
	TotalStake      Amount `json:"totalStake"`
	NodeCount       int    `json:"nodeCount"`
	ActiveNodeCount int    `json:"activeNodeCount"`
	LastRewardCycle uint64 `json:"lastRewardCycle"`
	MinDelegStake   Amount `json:"minDelegStake"`
}

// NodeInfo is one staked seed node as recorded in ssnlist
type NodeInfo struct {
	Address           string `json:"address"`
	Name              string `json:"name"`
	Active            bool   `json:"active"`
	StakeAmount       Amount `json:"stakeAmount"`
	Rewards           Amount `json:"rewards"`
	URLRaw            string `json:"urlRaw"`
	URLAPI            string `json:"urlApi"`
	BufferedDeposit   Amount `json:"bufferedDeposit"`
	Commission        Amount `json:"commission"`
	CommissionRewards Amount `json:"commissionRewards"`
	ReceivingAddress  string `json:"receivingAddress"`
}

// OperatorStats is what a node operator sees about its own node
type OperatorStats struct {
	NodeInfo
	DelegatorCount int `json:"delegatorCount"`
}

// NodeDeposit is a delegator's position at one node
type NodeDeposit struct {
	Node            string `json:"node"`
	Deposit         Amount `json:"deposit"`
	BufferedDeposit Amount `json:"bufferedDeposit"`
	Reward          Amount `json:"reward"`
}

// DelegatorStats is what a delegator sees about its own stake
type DelegatorStats struct {
	Wallet              string               `json:"wallet"`
	Deposits            []NodeDeposit        `json:"deposits"`
	TotalDeposit        Amount               `json:"totalDeposit"`
	TotalBuffered       Amount               `json:"totalBuffered"`
	TotalReward         Amount               `json:"totalReward"`
	Withdrawals         []WithdrawalProgress `json:"withdrawals"`
	ClaimableWithdrawal Amount               `json:"claimableWithdrawal"`
	CurrentBlock        uint64               `json:"currentBlock"`
}

// EmptyDelegatorStats is the fallback value for a wallet
func EmptyDelegatorStats(wallet string) DelegatorStats {
	return DelegatorStats{
		Wallet:      wallet,
		Deposits:    []NodeDeposit{},
		Withdrawals: []WithdrawalProgress{},
	}
}

// NewDelegatorStats totals the per-node positions and withdrawals
func NewDelegatorStats(wallet string, deposits []NodeDeposit, withdrawals []WithdrawalProgress, currentBlock uint64) DelegatorStats {
	stats := EmptyDelegatorStats(wallet)
	stats.CurrentBlock = currentBlock

	for _, d := range deposits {
		stats.TotalDeposit = stats.TotalDeposit.Add(d.Deposit)
		stats.TotalBuffered = stats.TotalBuffered.Add(d.BufferedDeposit)
		stats.TotalReward = stats.TotalReward.Add(d.Reward)
		stats.Deposits = append(stats.Deposits, d)
	}
	slices.SortFunc(stats.Deposits, func(a, b NodeDeposit) int {
		return cmp.Compare(a.Node, b.Node)
	})

	for _, w := range withdrawals {
		if w.Claimable() {
			stats.ClaimableWithdrawal = stats.ClaimableWithdrawal.Add(w.Amount)
		}
		stats.Withdrawals = append(stats.Withdrawals, w)
	}

	return stats
}

// VaultID identifies a vault within the vault factory
type VaultID string

// VaultView is the merged state of one vault. A vault whose reads failed keeps
// its id and address with zero figures, Failed set and the error text.
type VaultView struct {
	ID            VaultID        `json:"id"`
	Address       string         `json:"address"`
	Stats         DelegatorStats `json:"stats"`
	NativeBalance Amount         `json:"nativeBalance"`
	TokenBalance  Amount         `json:"tokenBalance"`
	Failed        bool           `json:"failed"`
	Err           string         `json:"error,omitempty"`
}

// FailedVaultView is the fallback value for a vault that could not be read
func FailedVaultView(id VaultID, address string, err error) VaultView {
	v := VaultView{
		ID:      id,
		Address: address,
		Stats:   EmptyDelegatorStats(address),
		Failed:  true,
	}
	if err != nil {
		v.Err = err.Error()
	}
	return v
}
