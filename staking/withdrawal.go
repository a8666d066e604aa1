package staking

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"
)

// PendingWithdrawal is stake waiting for its unlock block
type PendingWithdrawal struct {
	RequestBlock uint64 `json:"requestBlock"`
	Amount       Amount `json:"amount"`
}

// WithdrawalProgress is a pending withdrawal with its maturity
type WithdrawalProgress struct {
	PendingWithdrawal
	UnlockBlock     uint64  `json:"unlockBlock"`
	BlocksRemaining uint64  `json:"blocksRemaining"`
	ProgressPercent float64 `json:"progressPercent"`
}

// Claimable reports whether the withdrawal can be completed
func (w WithdrawalProgress) Claimable() bool {
	return w.BlocksRemaining == 0
}

// CurrentBlock converts the latest reported block count into the block the
// chain has actually finalised, which lags one behind.
func CurrentBlock(latest uint64) uint64 {
	if latest == 0 {
		return 0
	}
	return latest - 1
}

// ComputeWithdrawalProgress derives how far a pending withdrawal is from unlocking.
// The percentage is rounded to two decimals and stays within [0, 100].
func ComputeWithdrawalProgress(entry PendingWithdrawal, requiredBlockDelta, currentBlock uint64) WithdrawalProgress {
	unlock := entry.RequestBlock + requiredBlockDelta

	var remaining uint64
	if unlock > currentBlock {
		remaining = unlock - currentBlock
	}

	percent := 100.0
	if remaining > 0 {
		percent = 0
		if requiredBlockDelta > 0 {
			percent = 100 * (1 - float64(remaining)/float64(requiredBlockDelta))
		}
	}
	percent = math.Round(percent*100) / 100

	return WithdrawalProgress{
		PendingWithdrawal: entry,
		UnlockBlock:       unlock,
		BlocksRemaining:   remaining,
		ProgressPercent:   min(max(percent, 0), 100),
	}
}

// ComputeWithdrawals derives progress for every entry, ordered by request block
func ComputeWithdrawals(entries []PendingWithdrawal, requiredBlockDelta, currentBlock uint64) []WithdrawalProgress {
	out := make([]WithdrawalProgress, 0, len(entries))
	for _, e := range entries {
		out = append(out, ComputeWithdrawalProgress(e, requiredBlockDelta, currentBlock))
	}
	slices.SortFunc(out, func(a, b WithdrawalProgress) int {
		return cmp.Compare(a.RequestBlock, b.RequestBlock)
	})
	return out
}

// ParsePendingWithdrawals reads withdrawal_pending[deleg], a map of request block to amount
func ParsePendingWithdrawals(s SubState, deleg string) ([]PendingWithdrawal, error) {
	m, err := s.Map(FieldWithdrawalPending, deleg)
	if err != nil {
		return nil, err
	}

	out := make([]PendingWithdrawal, 0, len(m))
	for k, raw := range m {
		block, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s has non-numeric block %q", ErrMalformedState, FieldWithdrawalPending, k)
		}
		amt, err := DecodeAmount(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, PendingWithdrawal{RequestBlock: block, Amount: amt})
	}

	slices.SortFunc(out, func(a, b PendingWithdrawal) int {
		return cmp.Compare(a.RequestBlock, b.RequestBlock)
	})
	return out, nil
}
