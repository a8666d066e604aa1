package staking

import (
	"fmt"
	"strconv"
)

// CycleInfo is a node's accounting for one reward cycle
type CycleInfo struct {
	TotalStake   Amount
	TotalRewards Amount
}

// RewardLedger holds everything needed to compute one delegator's unclaimed
// reward at one node. The values come from independent reads and may be
// mutually stale.
type RewardLedger struct {
	LastRewardCycle          uint64
	LastWithdrawCycle        uint64
	LastBufferedDepositCycle uint64
	DirectDeposits           map[uint64]Amount
	BufferedDeposits         map[uint64]Amount
	StakeHistory             map[uint64]Amount
	NodeCycles               map[uint64]CycleInfo
}

// ComputeDelegatorReward returns the reward the delegator can claim at the node.
//
// Cycles after the last claim up to and including the last reward cycle are paid.
// A deposit buffered in cycle c starts earning in cycle c+2, a direct deposit or a
// settled stake recorded in cycle c starts earning in c+1.
func ComputeDelegatorReward(l RewardLedger) Amount {
	if l.LastWithdrawCycle >= l.LastRewardCycle {
		return Amount{}
	}
	if l.LastRewardCycle <= l.LastBufferedDepositCycle {
		return Amount{}
	}

	var (
		stake  Amount
		reward Amount
	)
	for c := l.LastWithdrawCycle + 1; c <= l.LastRewardCycle; c++ {
		stake = stake.
			Add(l.StakeHistory[c-1]).
			Add(l.DirectDeposits[c-1])
		if c >= 2 {
			stake = stake.Add(l.BufferedDeposits[c-2])
		}

		info := l.NodeCycles[c]
		reward = reward.Add(stake.MulDiv(info.TotalRewards, info.TotalStake))
	}

	return reward
}

// RewardSnapshots are the reads behind a RewardLedger. Delegator-scoped fields
// are read with the delegator as the only index, node cycles with the node.
type RewardSnapshots struct {
	LastRewardCycle     SubState
	LastWithdrawCycle   SubState
	LastBufDepositCycle SubState
	DirectDeposits      SubState
	BufferedDeposits    SubState
	StakeHistory        SubState
	NodeCycles          SubState
}

// ParseRewardLedger assembles the ledger of deleg at ssn. Absent entries are zero.
func ParseRewardLedger(ssn, deleg string, s RewardSnapshots) (RewardLedger, error) {
	var (
		l   RewardLedger
		err error
	)

	if l.LastRewardCycle, err = s.LastRewardCycle.Uint(FieldLastRewardCycle); err != nil {
		return RewardLedger{}, err
	}
	if l.LastWithdrawCycle, err = s.LastWithdrawCycle.Uint(FieldLastWithdrawCycleDeleg, deleg, ssn); err != nil {
		return RewardLedger{}, err
	}
	if l.LastBufferedDepositCycle, err = s.LastBufDepositCycle.Uint(FieldLastBufDepositCycle, deleg, ssn); err != nil {
		return RewardLedger{}, err
	}
	if l.DirectDeposits, err = s.DirectDeposits.CycleAmounts(FieldDirectDepositDeleg, deleg, ssn); err != nil {
		return RewardLedger{}, err
	}
	if l.BufferedDeposits, err = s.BufferedDeposits.CycleAmounts(FieldBuffDepositDeleg, deleg, ssn); err != nil {
		return RewardLedger{}, err
	}
	if l.StakeHistory, err = s.StakeHistory.CycleAmounts(FieldDelegStakePerCycle, deleg, ssn); err != nil {
		return RewardLedger{}, err
	}
	if l.NodeCycles, err = parseNodeCycles(s.NodeCycles, ssn); err != nil {
		return RewardLedger{}, err
	}

	return l, nil
}

func parseNodeCycles(s SubState, ssn string) (map[uint64]CycleInfo, error) {
	m, err := s.Map(FieldStakeSSNPerCycle, ssn)
	if err != nil {
		return nil, err
	}

	out := make(map[uint64]CycleInfo, len(m))
	for k, raw := range m {
		cycle, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s has non-numeric cycle %q", ErrMalformedState, FieldStakeSSNPerCycle, k)
		}

		adt, err := DecodeADT(raw, 2)
		if err != nil {
			return nil, err
		}
		totalStake, err := DecodeAmount(adt.Arguments[0])
		if err != nil {
			return nil, err
		}
		totalRewards, err := DecodeAmount(adt.Arguments[1])
		if err != nil {
			return nil, err
		}
		out[cycle] = CycleInfo{TotalStake: totalStake, TotalRewards: totalRewards}
	}
	return out, nil
}
