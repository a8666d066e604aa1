package staking

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
)

// ssnArgs is the arity of the Ssn constructor
const ssnArgs = 10

// ParseNodeInfo decodes one Ssn ADT value
func ParseNodeInfo(address string, raw json.RawMessage) (NodeInfo, error) {
	adt, err := DecodeADT(raw, ssnArgs)
	if err != nil {
		return NodeInfo{}, fmt.Errorf("node %s: %w", address, err)
	}
	args := adt.Arguments

	info := NodeInfo{Address: address}
	if info.Active, err = DecodeBool(args[0]); err != nil {
		return NodeInfo{}, err
	}
	if info.StakeAmount, err = DecodeAmount(args[1]); err != nil {
		return NodeInfo{}, err
	}
	if info.Rewards, err = DecodeAmount(args[2]); err != nil {
		return NodeInfo{}, err
	}
	if info.Name, err = DecodeString(args[3]); err != nil {
		return NodeInfo{}, err
	}
	if info.URLRaw, err = DecodeString(args[4]); err != nil {
		return NodeInfo{}, err
	}
	if info.URLAPI, err = DecodeString(args[5]); err != nil {
		return NodeInfo{}, err
	}
	if info.BufferedDeposit, err = DecodeAmount(args[6]); err != nil {
		return NodeInfo{}, err
	}
	if info.Commission, err = DecodeAmount(args[7]); err != nil {
		return NodeInfo{}, err
	}
	if info.CommissionRewards, err = DecodeAmount(args[8]); err != nil {
		return NodeInfo{}, err
	}
	if info.ReceivingAddress, err = DecodeString(args[9]); err != nil {
		return NodeInfo{}, err
	}

	return info, nil
}

// ParseNodes decodes the whole ssnlist, ordered by address
func ParseNodes(s SubState) ([]NodeInfo, error) {
	m, err := s.Map(FieldSSNList)
	if err != nil {
		return nil, err
	}

	nodes := make([]NodeInfo, 0, len(m))
	for addr, raw := range m {
		info, err := ParseNodeInfo(addr, raw)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, info)
	}
	slices.SortFunc(nodes, func(a, b NodeInfo) int { return cmp.Compare(a.Address, b.Address) })
	return nodes, nil
}

// LandingSnapshots are the reads behind LandingStats
type LandingSnapshots struct {
	TotalStake      SubState
	SSNList         SubState
	LastRewardCycle SubState
	MinDelegStake   SubState
}

// ParseLandingStats derives the network-wide figures
func ParseLandingStats(s LandingSnapshots) (LandingStats, error) {
	var (
		stats LandingStats
		err   error
	)

	if stats.TotalStake, err = s.TotalStake.Amount(FieldTotalStakeAmount); err != nil {
		return LandingStats{}, err
	}
	if stats.LastRewardCycle, err = s.LastRewardCycle.Uint(FieldLastRewardCycle); err != nil {
		return LandingStats{}, err
	}
	if stats.MinDelegStake, err = s.MinDelegStake.Amount(FieldMinDelegStake); err != nil {
		return LandingStats{}, err
	}

	nodes, err := ParseNodes(s.SSNList)
	if err != nil {
		return LandingStats{}, err
	}
	stats.NodeCount = len(nodes)
	for _, n := range nodes {
		if n.Active {
			stats.ActiveNodeCount++
		}
	}

	return stats, nil
}

// ParseOperatorStats derives an operator's view of its node from ssnlist[ssn]
// and ssn_deleg_amt[ssn].
func ParseOperatorStats(ssn string, ssnList, delegAmt SubState) (OperatorStats, error) {
	raw, ok, err := ssnList.Lookup(FieldSSNList, ssn)
	if err != nil {
		return OperatorStats{}, err
	}
	if !ok {
		return OperatorStats{}, fmt.Errorf("%w: %s is not a registered node", ErrMalformedState, ssn)
	}

	info, err := ParseNodeInfo(ssn, raw)
	if err != nil {
		return OperatorStats{}, err
	}

	delegators, err := delegAmt.Map(FieldSSNDelegAmt, ssn)
	if err != nil {
		return OperatorStats{}, err
	}

	count := 0
	for _, raw := range delegators {
		amt, err := DecodeAmount(raw)
		if err != nil {
			return OperatorStats{}, err
		}
		if !amt.IsZero() {
			count++
		}
	}

	return OperatorStats{NodeInfo: info, DelegatorCount: count}, nil
}

// ParseDeposits reads deposit_amt_deleg[deleg] as node to amount
func ParseDeposits(s SubState, deleg string) (map[string]Amount, error) {
	m, err := s.Map(FieldDepositAmtDeleg, deleg)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Amount, len(m))
	for node, raw := range m {
		amt, err := DecodeAmount(raw)
		if err != nil {
			return nil, err
		}
		out[node] = amt
	}
	return out, nil
}

// ParseBufferedDeposits sums buff_deposit_deleg[deleg][node] over cycles for
// every node. A deposit buffered in cycle c is still buffered while c+2 > lastRewardCycle.
func ParseBufferedDeposits(s SubState, deleg string, lastRewardCycle uint64) (map[string]Amount, error) {
	m, err := s.Map(FieldBuffDepositDeleg, deleg)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Amount, len(m))
	for node := range m {
		cycles, err := s.CycleAmounts(FieldBuffDepositDeleg, deleg, node)
		if err != nil {
			return nil, err
		}
		var total Amount
		for cycle, amt := range cycles {
			if cycle+2 > lastRewardCycle {
				total = total.Add(amt)
			}
		}
		out[node] = total
	}
	return out, nil
}

// ParseOwnedVaults reads owned_vaults[owner] as vault id to vault address
func ParseOwnedVaults(s SubState, owner string) (map[VaultID]string, error) {
	m, err := s.Map(FieldOwnedVaults, owner)
	if err != nil {
		return nil, err
	}

	out := make(map[VaultID]string, len(m))
	for id, raw := range m {
		addr, err := DecodeString(raw)
		if err != nil {
			return nil, err
		}
		if addr, err = NormalizeAddress(addr); err != nil {
			return nil, fmt.Errorf("%w: vault %s: %w", ErrMalformedState, id, err)
		}
		out[VaultID(id)] = addr
	}
	return out, nil
}
